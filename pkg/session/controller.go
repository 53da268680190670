package session

import (
	"context"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dotlive/pkg/engine"
	"github.com/matzehuels/dotlive/pkg/errors"
	"github.com/matzehuels/dotlive/pkg/export"
	"github.com/matzehuels/dotlive/pkg/render"
	"github.com/matzehuels/dotlive/pkg/sharelink"
	"github.com/matzehuels/dotlive/pkg/transform"
)

// Tab selects the buffer bound to the editing widget.
type Tab string

const (
	TabCode   Tab = "code"
	TabConfig Tab = "config"
)

// Editor languages of the two buffers.
const (
	LanguageMarkdown = "markdown"
	LanguageJSON     = "json"
)

// DefaultOrigin is the share-link base when none is configured.
const DefaultOrigin = "http://localhost:7777/"

// Toast messages.
const (
	msgLinkCopied   = "Link copied to clipboard"
	msgLinkFailed   = "Could not copy link"
	msgExported     = "Diagram exported"
	msgExportFailed = "Export failed"
	msgNoDiagram    = "Nothing to export yet"
)

// Buffer is what the editing widget shows.
type Buffer struct {
	Tab      Tab    `json:"tab"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Options configures a Controller. Only Engine is required.
type Options struct {
	Engine     engine.Engine
	Display    render.Display
	Scheduler  render.Scheduler
	Exporter   *export.Exporter
	Clipboard  sharelink.Clipboard
	Downloader export.Downloader
	Notifier   Notifier
	// Origin is the page URL share links point at.
	Origin string
	Logger *log.Logger
}

// SetDefaults fills unset optional fields.
func (o *Options) SetDefaults() {
	if o.Display == nil {
		o.Display = render.NewMemoryDisplay()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Exporter == nil {
		o.Exporter = export.New(export.Options{Logger: o.Logger})
	}
	if o.Clipboard == nil {
		o.Clipboard = sharelink.SystemClipboard{}
	}
	if o.Downloader == nil {
		o.Downloader = export.FileDownloader{Dir: "."}
	}
	if o.Notifier == nil {
		o.Notifier = LogNotifier{Logger: o.Logger}
	}
	if o.Origin == "" {
		o.Origin = DefaultOrigin
	}
}

// Validate checks required fields.
func (o *Options) Validate() error {
	if o.Engine == nil {
		return errors.New(errors.ErrCodeInvalidInput, "session needs an engine")
	}
	if _, err := sharelink.BuildURL(o.Origin, ""); err != nil {
		return err
	}
	return nil
}

// Controller is one editor session. Its methods are safe for concurrent use.
type Controller struct {
	ID string

	eng        engine.Engine
	pipeline   *render.Pipeline
	exporter   *export.Exporter
	clipboard  sharelink.Clipboard
	downloader export.Downloader
	notifier   Notifier
	origin     string
	logger     *log.Logger

	mu         sync.Mutex
	tab        Tab
	source     string
	configText string
	background export.Color
	view       transform.State
}

// New creates a session holding the default sample and configuration text.
// Nothing renders until Load or an edit.
func New(ctx context.Context, opts Options) (*Controller, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	id, err := GenerateID()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "generate session id")
	}
	logger := opts.Logger.With("session", id[:8])

	return &Controller{
		ID:  id,
		eng: opts.Engine,
		pipeline: render.New(ctx, opts.Engine, render.Options{
			Display:   opts.Display,
			Scheduler: opts.Scheduler,
			Logger:    logger,
		}),
		exporter:   opts.Exporter,
		clipboard:  opts.Clipboard,
		downloader: opts.Downloader,
		notifier:   opts.Notifier,
		origin:     opts.Origin,
		logger:     logger,
		tab:        TabCode,
		source:     DefaultSource,
		configText: engine.DefaultConfigText,
		background: export.White,
		view:       transform.Default(),
	}, nil
}

// Close stops pending and in-flight renders.
func (c *Controller) Close() {
	c.pipeline.Close()
}

// Load sets the initial source from the share parameter in q, falling back
// to DefaultSource when it is absent or cannot be decoded, and renders it.
func (c *Controller) Load(q url.Values) *render.Result {
	source := DefaultSource
	if s, found, err := sharelink.FromQuery(q); err != nil {
		c.logger.Warn("ignoring share link", "err", err)
	} else if found {
		source = s
	}

	c.mu.Lock()
	c.source = source
	c.mu.Unlock()
	return c.pipeline.RenderNow(source)
}

// ActiveTab returns the tab bound to the editing widget.
func (c *Controller) ActiveTab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

// SetTab binds another buffer to the editing widget.
func (c *Controller) SetTab(t Tab) error {
	if t != TabCode && t != TabConfig {
		return errors.New(errors.ErrCodeInvalidInput, "unknown tab %q", t)
	}
	c.mu.Lock()
	c.tab = t
	c.mu.Unlock()
	return nil
}

// Buffer returns the text and language of the active tab.
func (c *Controller) Buffer() Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tab == TabConfig {
		return Buffer{Tab: TabConfig, Text: c.configText, Language: LanguageJSON}
	}
	return Buffer{Tab: TabCode, Text: c.source, Language: LanguageMarkdown}
}

// Source returns the diagram source.
func (c *Controller) Source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// ConfigText returns the configuration buffer.
func (c *Controller) ConfigText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configText
}

// Edit replaces the active buffer with text.
func (c *Controller) Edit(text string) error {
	if c.ActiveTab() == TabConfig {
		return c.EditConfig(text)
	}
	c.EditSource(text)
	return nil
}

// EditSource replaces the source and schedules a debounced render.
func (c *Controller) EditSource(text string) {
	c.mu.Lock()
	c.source = text
	c.mu.Unlock()
	c.pipeline.Schedule(text)
}

// EditConfig replaces the configuration text. When it parses, it is merged
// over the applied configuration, applied, and the source re-rendered at
// once. Otherwise the error is logged and returned and the engine keeps its
// configuration.
func (c *Controller) EditConfig(text string) error {
	c.mu.Lock()
	c.configText = text
	source := c.source
	c.mu.Unlock()

	cfg, err := engine.ParseConfig(text, c.eng.Config())
	if err == nil {
		err = c.eng.SetConfig(cfg)
	}
	if err != nil {
		c.logger.Warn("invalid config", "err", err)
		return err
	}
	c.pipeline.RenderNow(source)
	return nil
}

// Render re-renders the current source without waiting.
func (c *Controller) Render() *render.Result {
	return c.pipeline.RenderNow(c.Source())
}

// Current returns the displayed successful render, or nil.
func (c *Controller) Current() *render.Result {
	return c.pipeline.Current()
}

// Config returns the configuration applied to the engine.
func (c *Controller) Config() engine.Config {
	return c.eng.Config()
}

// View returns the pan/zoom state.
func (c *Controller) View() transform.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// UpdateView applies fn to the pan/zoom state and returns the result.
func (c *Controller) UpdateView(fn func(*transform.State)) transform.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.view)
	return c.view
}

func (c *Controller) ZoomIn() transform.State  { return c.UpdateView((*transform.State).ZoomIn) }
func (c *Controller) ZoomOut() transform.State { return c.UpdateView((*transform.State).ZoomOut) }
func (c *Controller) ResetView() transform.State {
	return c.UpdateView((*transform.State).Reset)
}

func (c *Controller) PointerDown(b transform.Button, p transform.Point) transform.State {
	return c.UpdateView(func(s *transform.State) { s.PointerDown(b, p) })
}

func (c *Controller) PointerMove(p transform.Point) transform.State {
	return c.UpdateView(func(s *transform.State) { s.PointerMove(p) })
}

func (c *Controller) PointerUp() transform.State {
	return c.UpdateView((*transform.State).PointerUp)
}

func (c *Controller) PointerLeave() transform.State {
	return c.UpdateView((*transform.State).PointerLeave)
}

func (c *Controller) Nudge(dx, dy float64) transform.State {
	return c.UpdateView(func(s *transform.State) { s.Nudge(dx, dy) })
}

// Background returns the export background colour.
func (c *Controller) Background() export.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.background
}

// SetBackground parses and sets the export background colour.
func (c *Controller) SetBackground(s string) error {
	col, err := export.ParseColor(s)
	if err != nil {
		c.logger.Warn("invalid background", "err", err)
		return err
	}
	c.mu.Lock()
	c.background = col
	c.mu.Unlock()
	return nil
}

// ShareURL returns the share link for the current source.
func (c *Controller) ShareURL() (string, error) {
	return sharelink.BuildURL(c.origin, c.Source())
}

// Share copies the share link for the current source to the clipboard and
// shows a toast. It does not wait for rendering. The link is returned even
// when the clipboard write fails.
func (c *Controller) Share(ctx context.Context) (string, error) {
	link, err := c.ShareURL()
	if err != nil {
		c.logger.Error("build share link", "err", err)
		c.notifier.Notify(ctx, Toast{Level: LevelError, Message: msgLinkFailed})
		return "", err
	}
	if err := c.clipboard.WriteText(ctx, link); err != nil {
		c.logger.Warn("clipboard write failed", "err", err)
		c.notifier.Notify(ctx, Toast{Level: LevelError, Message: msgLinkFailed})
		return link, err
	}
	c.notifier.Notify(ctx, Toast{Level: LevelSuccess, Message: msgLinkCopied})
	return link, nil
}

// Export rasterizes the displayed diagram over the background colour and
// hands it to the downloader. Without a successful render on display it
// fails with NO_DIAGRAM. Every outcome is reported with a toast.
func (c *Controller) Export(ctx context.Context) (*export.Result, error) {
	cur := c.pipeline.Current()
	if !cur.OK() {
		err := errors.New(errors.ErrCodeNoDiagram, "no rendered diagram to export")
		c.logger.Warn("export skipped", "err", err)
		c.notifier.Notify(ctx, Toast{Level: LevelError, Message: msgNoDiagram})
		return nil, err
	}

	res, err := c.exporter.Export(ctx, cur.SVG, c.Background())
	if err == nil {
		err = c.downloader.Download(ctx, res.Filename, res.DataURI())
	}
	if err != nil {
		c.logger.Error("export failed", "err", err)
		c.notifier.Notify(ctx, Toast{Level: LevelError, Message: msgExportFailed})
		return nil, err
	}
	c.notifier.Notify(ctx, Toast{Level: LevelSuccess, Message: msgExported})
	return res, nil
}
