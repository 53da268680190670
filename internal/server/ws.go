package server

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/dotlive/pkg/engine"
	"github.com/matzehuels/dotlive/pkg/errors"
	"github.com/matzehuels/dotlive/pkg/export"
	"github.com/matzehuels/dotlive/pkg/render"
	"github.com/matzehuels/dotlive/pkg/session"
	"github.com/matzehuels/dotlive/pkg/sharelink"
	"github.com/matzehuels/dotlive/pkg/transform"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	maxMessage   = 1 << 20
	sendBuffer   = 64
)

// Client operations.
const (
	opEdit       = "edit"
	opTab        = "tab"
	opConfig     = "config"
	opZoom       = "zoom"
	opPointer    = "pointer"
	opNudge      = "nudge"
	opBackground = "background"
	opShare      = "share"
	opExport     = "export"
	opLoad       = "load"
	opRender     = "render"
)

// Server event types.
const (
	evRender      = "render"
	evRenderError = "render_error"
	evClear       = "clear"
	evTransform   = "transform"
	evToast       = "toast"
	evClipboard   = "clipboard"
	evDownload    = "download"
	evState       = "state"
	evError       = "error"
)

// clientMessage is one operation sent by the page.
type clientMessage struct {
	Op     string  `json:"op"`
	Text   string  `json:"text,omitempty"`
	Tab    string  `json:"tab,omitempty"`
	Action string  `json:"action,omitempty"`
	Button int     `json:"button,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Color  string  `json:"color,omitempty"`
	// Query is a raw page query string for load, e.g. "code=...".
	Query string `json:"query,omitempty"`
}

// serverEvent is one message pushed to the page.
type serverEvent struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	SVG       string          `json:"svg,omitempty"`
	HTML      string          `json:"html,omitempty"`
	Error     string          `json:"error,omitempty"`
	Code      errors.Code     `json:"code,omitempty"`
	Transform *transformEvent `json:"transform,omitempty"`
	Toast     *session.Toast  `json:"toast,omitempty"`
	Text      string          `json:"text,omitempty"`
	Filename  string          `json:"filename,omitempty"`
	DataURI   string          `json:"data_uri,omitempty"`
	State     *stateEvent     `json:"state,omitempty"`
}

type transformEvent struct {
	CSS        string `json:"css"`
	Transition string `json:"transition"`
	Percent    int    `json:"percent"`
}

type stateEvent struct {
	Session    string         `json:"session"`
	Buffer     session.Buffer `json:"buffer"`
	Background string         `json:"background"`
	Config     engine.Config  `json:"config"`
}

func newTransformEvent(s transform.State) serverEvent {
	return serverEvent{Type: evTransform, Transform: &transformEvent{
		CSS:        s.CSS(),
		Transition: s.Transition(),
		Percent:    s.Percent(),
	}}
}

func newDisplayEvent(ev render.Event) serverEvent {
	switch ev.Kind {
	case render.EventMount:
		return serverEvent{Type: evRender, ID: ev.ID, SVG: string(ev.Result.SVG)}
	case render.EventError:
		out := serverEvent{Type: evRenderError, ID: ev.ID, HTML: render.ErrorPlaceholder}
		if ev.Result != nil && ev.Result.Err != nil {
			out.Error = errors.UserMessage(ev.Result.Err)
			out.Code = errors.GetCode(ev.Result.Err)
		}
		return out
	default:
		return serverEvent{Type: evClear, ID: ev.ID}
	}
}

func errorEvent(err error) serverEvent {
	return serverEvent{Type: evError, Error: errors.UserMessage(err), Code: errors.GetCode(err)}
}

// conn is one live editor connection. Only the write loop writes to ws.
type conn struct {
	ws   *websocket.Conn
	out  chan serverEvent
	done chan struct{}
	// gone is closed when the write loop exits.
	gone   chan struct{}
	logger *log.Logger
}

func newConn(ws *websocket.Conn, logger *log.Logger) *conn {
	return &conn{
		ws:     ws,
		out:    make(chan serverEvent, sendBuffer),
		done:   make(chan struct{}),
		gone:   make(chan struct{}),
		logger: logger,
	}
}

// send queues ev, giving up once the connection is closing or the writer
// has stopped.
func (c *conn) send(ev serverEvent) {
	select {
	case c.out <- ev:
	case <-c.done:
	case <-c.gone:
	}
}

// writeLoop drains out until done is closed. On a write error it closes the
// socket so the read loop fails as well.
func (c *conn) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer close(c.gone)
	for {
		select {
		case ev := <-c.out:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				c.logger.Debug("write failed", "err", err)
				c.ws.Close()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping failed", "err", err)
				c.ws.Close()
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade", "err", err)
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := newConn(ws, s.logger)

	display := render.NewMemoryDisplay()
	unsubscribe := display.Subscribe(func(ev render.Event) { c.send(newDisplayEvent(ev)) })
	defer unsubscribe()

	sess, err := session.New(ctx, session.Options{
		Engine:    s.newEngine(),
		Display:   display,
		Scheduler: render.NewDebouncer(s.opts.Debounce),
		Exporter:  s.opts.Exporter,
		Clipboard: sharelink.ClipboardFunc(func(_ context.Context, text string) error {
			c.send(serverEvent{Type: evClipboard, Text: text})
			return nil
		}),
		Downloader: export.DownloaderFunc(func(_ context.Context, filename, dataURI string) error {
			c.send(serverEvent{Type: evDownload, Filename: filename, DataURI: dataURI})
			return nil
		}),
		Notifier: session.NotifierFunc(func(_ context.Context, t session.Toast) {
			c.send(serverEvent{Type: evToast, Toast: &t})
		}),
		Origin: s.origin(r),
		Logger: s.logger,
	})
	if err != nil {
		s.logger.Error("new session", "err", err)
		return
	}
	if err := sess.SetBackground(s.opts.Background); err != nil {
		s.logger.Warn("default background", "err", err)
	}
	c.logger = s.logger.With("session", sess.ID[:8])

	s.sessions.Add(1)
	defer s.sessions.Add(-1)
	c.logger.Info("session opened", "remote", r.RemoteAddr)

	go c.writeLoop()

	defer func() {
		close(c.done)
		sess.Close()
		<-c.gone
		c.logger.Info("session closed")
	}()

	// state follows Load so the editor shows the adopted source
	sess.Load(r.URL.Query())
	c.send(s.stateEvent(sess))
	c.send(newTransformEvent(sess.View()))

	ws.SetReadLimit(maxMessage)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("read failed", "err", err)
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(pongWait))
		s.dispatch(ctx, c, sess, msg)
	}
}

// dispatch applies one client operation to sess.
func (s *Server) dispatch(ctx context.Context, c *conn, sess *session.Controller, msg clientMessage) {
	switch msg.Op {
	case opEdit:
		// invalid config text is reported by the error event and leaves
		// the applied configuration in place
		if err := sess.Edit(msg.Text); err != nil {
			c.send(errorEvent(err))
		}
	case opTab:
		if err := sess.SetTab(session.Tab(msg.Tab)); err != nil {
			c.send(errorEvent(err))
			return
		}
		c.send(s.stateEvent(sess))
	case opConfig:
		if err := sess.EditConfig(msg.Text); err != nil {
			c.send(errorEvent(err))
			return
		}
		c.send(s.stateEvent(sess))
	case opRender:
		sess.Render()
	case opZoom:
		var st transform.State
		switch msg.Action {
		case "in":
			st = sess.ZoomIn()
		case "out":
			st = sess.ZoomOut()
		case "reset":
			st = sess.ResetView()
		default:
			c.send(errorEvent(errors.New(errors.ErrCodeInvalidInput, "unknown zoom action %q", msg.Action)))
			return
		}
		c.send(newTransformEvent(st))
	case opPointer:
		p := transform.Point{X: msg.X, Y: msg.Y}
		var st transform.State
		switch msg.Action {
		case "down":
			st = sess.PointerDown(transform.Button(msg.Button), p)
		case "move":
			st = sess.PointerMove(p)
		case "up":
			st = sess.PointerUp()
		case "leave":
			st = sess.PointerLeave()
		default:
			c.send(errorEvent(errors.New(errors.ErrCodeInvalidInput, "unknown pointer action %q", msg.Action)))
			return
		}
		c.send(newTransformEvent(st))
	case opNudge:
		c.send(newTransformEvent(sess.Nudge(msg.X, msg.Y)))
	case opBackground:
		if err := sess.SetBackground(msg.Color); err != nil {
			c.send(errorEvent(err))
			return
		}
		c.send(s.stateEvent(sess))
	case opShare:
		// outcome is reported through the clipboard and toast events
		sess.Share(ctx)
	case opExport:
		sess.Export(ctx)
	case opLoad:
		q, err := url.ParseQuery(msg.Query)
		if err != nil {
			c.send(errorEvent(errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid query")))
			return
		}
		sess.Load(q)
		c.send(s.stateEvent(sess))
	default:
		c.send(errorEvent(errors.New(errors.ErrCodeInvalidInput, "unknown op %q", msg.Op)))
	}
}

func (s *Server) stateEvent(sess *session.Controller) serverEvent {
	return serverEvent{Type: evState, State: &stateEvent{
		Session:    sess.ID,
		Buffer:     sess.Buffer(),
		Background: sess.Background().String(),
		Config:     sess.Config(),
	}}
}
