// Package tui is the terminal editor behind `dotlive edit`.
//
// The editing widget is a bubbles textarea bound to the Code or Config
// buffer of a session. Terminals cannot draw the vector output, so every
// successful render is mirrored to an SVG file that any viewer can watch,
// and the status line reports render state, zoom and background.
package tui

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/dotlive/pkg/engine"
	"github.com/matzehuels/dotlive/pkg/errors"
	"github.com/matzehuels/dotlive/pkg/export"
	"github.com/matzehuels/dotlive/pkg/render"
	"github.com/matzehuels/dotlive/pkg/session"
	"github.com/matzehuels/dotlive/pkg/sharelink"
)

// panStep is how far one alt+arrow press moves the view, in pixels.
const panStep = 20

// Options configures the editor. Engine is required.
type Options struct {
	Engine     engine.Engine
	Exporter   *export.Exporter
	Clipboard  sharelink.Clipboard
	Downloader export.Downloader
	Scheduler  render.Scheduler
	Origin     string
	Background string
	// Output is the file every successful render is written to.
	// Empty disables mirroring.
	Output string
	// Query carries an initial share parameter.
	Query  url.Values
	Logger *log.Logger
}

// Messages delivered to the model.
type (
	displayMsg   render.Event
	toastMsg     session.Toast
	exportedMsg  struct{ path string }
	mirroredMsg  struct{ err error }
	sessionEvent any
)

// Model is the bubbletea model of one editing session.
type Model struct {
	ctx    context.Context
	sess   *session.Controller
	editor textarea.Model
	events chan sessionEvent
	output string
	logger *log.Logger

	width, height int

	rendering bool
	last      *render.Result
	configErr error
	toast     *session.Toast
	mirrorErr error
	quitting  bool
}

// New creates the session and the model. The first render starts
// immediately; call Close when the program has exited.
func New(ctx context.Context, opts Options) (*Model, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	m := &Model{
		ctx:    ctx,
		events: make(chan sessionEvent, 32),
		output: opts.Output,
		logger: opts.Logger,
	}

	display := render.NewMemoryDisplay()
	display.Subscribe(func(ev render.Event) { m.post(displayMsg(ev)) })

	downloader := opts.Downloader
	if downloader == nil {
		downloader = export.FileDownloader{Dir: "."}
	}
	if fd, ok := downloader.(export.FileDownloader); ok {
		saved := fd.Saved
		fd.Saved = func(path string) {
			if saved != nil {
				saved(path)
			}
			m.post(exportedMsg{path: path})
		}
		downloader = fd
	}

	sess, err := session.New(ctx, session.Options{
		Engine:     opts.Engine,
		Display:    display,
		Scheduler:  opts.Scheduler,
		Exporter:   opts.Exporter,
		Clipboard:  opts.Clipboard,
		Downloader: downloader,
		Notifier: session.NotifierFunc(func(_ context.Context, t session.Toast) {
			m.post(toastMsg(t))
		}),
		Origin: opts.Origin,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	if opts.Background != "" {
		if err := sess.SetBackground(opts.Background); err != nil {
			sess.Close()
			return nil, err
		}
	}
	m.sess = sess

	m.editor = textarea.New()
	m.editor.ShowLineNumbers = true
	m.editor.CharLimit = 0
	m.editor.Placeholder = "digraph { a -> b }"
	m.editor.Focus()

	m.rendering = true
	sess.Load(opts.Query)
	m.editor.SetValue(sess.Buffer().Text)
	return m, nil
}

// Session returns the underlying session.
func (m *Model) Session() *session.Controller { return m.sess }

// Close stops the session.
func (m *Model) Close() { m.sess.Close() }

// post hands an event to the bubbletea loop. Events are dropped once the
// buffer is full rather than blocking a render goroutine.
func (m *Model) post(ev sessionEvent) {
	select {
	case m.events <- ev:
	default:
		m.logger.Debug("dropping ui event", "event", fmt.Sprintf("%T", ev))
	}
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-m.events:
			return ev
		case <-m.ctx.Done():
			return tea.Quit()
		}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.listen())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.editor.SetWidth(max(msg.Width-2, 20))
		m.editor.SetHeight(max(msg.Height-7, 3))
		return m, nil

	case displayMsg:
		return m, tea.Batch(m.onDisplay(render.Event(msg)), m.listen())

	case toastMsg:
		t := session.Toast(msg)
		m.toast = &t
		return m, m.listen()

	case exportedMsg:
		m.logger.Info("exported", "path", msg.path)
		return m, m.listen()

	case mirroredMsg:
		m.mirrorErr = msg.err
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if after := m.editor.Value(); after != before {
		m.edit(after)
	}
	return m, cmd
}

func (m *Model) onDisplay(ev render.Event) tea.Cmd {
	switch ev.Kind {
	case render.EventClear:
		m.rendering = true
		return nil
	case render.EventMount:
		m.rendering = false
		m.last = ev.Result
		if m.output == "" {
			return nil
		}
		svg := ev.Result.SVG
		return func() tea.Msg { return mirroredMsg{err: writeMirror(m.output, svg)} }
	default:
		m.rendering = false
		m.last = ev.Result
		return nil
	}
}

func (m *Model) edit(text string) {
	m.toast = nil
	if err := m.sess.Edit(text); err != nil {
		m.configErr = err
		return
	}
	if m.sess.ActiveTab() == session.TabConfig {
		m.configErr = nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.quitting = true
		return tea.Quit, true
	case "ctrl+t":
		next := session.TabConfig
		if m.sess.ActiveTab() == session.TabConfig {
			next = session.TabCode
		}
		m.sess.SetTab(next)
		m.editor.SetValue(m.sess.Buffer().Text)
		return nil, true
	case "ctrl+s":
		return func() tea.Msg {
			m.sess.Share(m.ctx)
			return nil
		}, true
	case "ctrl+e":
		return func() tea.Msg {
			m.sess.Export(m.ctx)
			return nil
		}, true
	case "ctrl+z":
		m.sess.ZoomIn()
		return nil, true
	case "ctrl+x":
		m.sess.ZoomOut()
		return nil, true
	case "ctrl+r":
		m.sess.ResetView()
		return nil, true
	case "alt+up":
		m.sess.Nudge(0, -panStep)
		return nil, true
	case "alt+down":
		m.sess.Nudge(0, panStep)
		return nil, true
	case "alt+left":
		m.sess.Nudge(-panStep, 0)
		return nil, true
	case "alt+right":
		m.sess.Nudge(panStep, 0)
		return nil, true
	}
	return nil, false
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	b.WriteString(styleTitle.Render("dotlive"))
	b.WriteString("  ")
	b.WriteString(m.tabBar())
	b.WriteString("\n")
	b.WriteString(styleEditor.Render(m.editor.View()))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	if m.toast != nil {
		b.WriteString(renderToast(*m.toast))
	}
	b.WriteString("\n")
	b.WriteString(styleHelp.Render(helpLine))
	return b.String()
}

func (m *Model) tabBar() string {
	tabs := []struct {
		tab   session.Tab
		label string
	}{
		{session.TabCode, "Code"},
		{session.TabConfig, "Config"},
	}
	active := m.sess.ActiveTab()
	parts := make([]string, len(tabs))
	for i, t := range tabs {
		if t.tab == active {
			parts[i] = styleTabActive.Render(t.label)
		} else {
			parts[i] = styleTabInactive.Render(t.label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// Status returns the render status shown in the status line.
func (m *Model) Status() string {
	switch {
	case m.rendering:
		return iconBusy + " rendering"
	case m.last == nil:
		return ""
	case m.last.OK():
		s := fmt.Sprintf("%s %s %.0f×%.0f in %s", iconSuccess, m.last.ID, m.last.Width, m.last.Height,
			m.last.Duration.Round(time.Millisecond))
		if m.last.Cached {
			s += " (cached)"
		}
		return s
	default:
		return iconError + " " + errors.UserMessage(m.last.Err)
	}
}

func (m *Model) statusLine() string {
	status := m.Status()
	switch {
	case m.last != nil && !m.rendering && m.last.OK():
		status = styleOK.Render(status)
	case m.last != nil && !m.rendering:
		status = styleFailed.Render(status)
	}

	view := m.sess.View()
	parts := []string{
		status,
		styleStatus.Render(fmt.Sprintf("zoom %d%%", view.Percent())),
		styleStatus.Render("bg " + m.sess.Background().String()),
	}
	if m.output != "" {
		out := iconArrow + " " + m.output
		if m.mirrorErr != nil {
			out = styleFailed.Render(out + ": " + m.mirrorErr.Error())
		}
		parts = append(parts, styleStatus.Render(out))
	}
	if m.configErr != nil {
		parts = append(parts, styleFailed.Render("config: "+errors.UserMessage(m.configErr)))
	}
	return strings.Join(parts, styleHelp.Render(" · "))
}

func renderToast(t session.Toast) string {
	if t.Level == session.LevelError {
		return styleFailed.Render(iconError + " " + t.Message)
	}
	return styleOK.Render(iconSuccess + " " + t.Message)
}

// writeMirror replaces path with svg through a temporary file so viewers
// never see a partial document.
func writeMirror(path string, svg []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".dotlive-*.svg")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(svg); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Run starts the editor on the terminal and blocks until it exits. It
// returns the diagram source as it was when the editor closed.
func Run(ctx context.Context, opts Options) (string, error) {
	m, err := New(ctx, opts)
	if err != nil {
		return "", err
	}
	defer m.Close()

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if ctx.Err() != nil {
		return m.sess.Source(), ctx.Err()
	}
	return m.sess.Source(), err
}
