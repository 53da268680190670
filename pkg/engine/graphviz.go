package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/dotlive/pkg/errors"
)

// Graphviz renders DOT source to SVG with an embedded Graphviz runtime.
// Renders are serialized: the runtime is not safe for concurrent use.
type Graphviz struct {
	mu     sync.Mutex
	gv     *graphviz.Graphviz
	cfgMu  sync.RWMutex
	cfg    Config
	logger *log.Logger
}

// GraphvizOption configures a Graphviz engine.
type GraphvizOption func(*Graphviz)

// WithLogger sets the engine logger. Its level follows the applied
// configuration's logLevel.
func WithLogger(l *log.Logger) GraphvizOption {
	return func(e *Graphviz) { e.logger = l }
}

// WithConfig sets the initial configuration instead of DefaultConfig.
func WithConfig(cfg Config) GraphvizOption {
	return func(e *Graphviz) { e.cfg = cfg }
}

// NewGraphviz starts a Graphviz runtime.
func NewGraphviz(ctx context.Context, opts ...GraphvizOption) (*Graphviz, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	e := &Graphviz{
		gv:  gv,
		cfg: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		gv.Close()
		return nil, err
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(io.Discard, log.Options{})
	} else {
		e.logger = e.logger.WithPrefix("engine")
	}
	e.logger.SetLevel(e.cfg.LogLevel.Charm())
	return e, nil
}

// SetConfig validates and applies cfg.
func (e *Graphviz) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfgMu.Lock()
	e.cfg = cfg
	e.cfgMu.Unlock()
	e.logger.SetLevel(cfg.LogLevel.Charm())
	e.logger.Debug("config applied", "theme", cfg.Theme, "security", cfg.SecurityLevel, "layout", cfg.Layout)
	return nil
}

// Config returns the applied configuration.
func (e *Graphviz) Config() Config {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.cfg
}

// Render lays out DOT source under the applied configuration and returns
// the SVG document tagged with id.
func (e *Graphviz) Render(ctx context.Context, id, source string) (*Document, error) {
	return e.RenderWith(ctx, e.Config(), id, source)
}

// RenderWith renders with cfg instead of the applied configuration. cfg
// must be valid.
func (e *Graphviz) RenderWith(ctx context.Context, cfg Config, id, source string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCanceled, err, "render %s", id)
	}
	if strings.TrimSpace(source) == "" {
		return nil, syntaxError(nil, "empty diagram")
	}

	dot := applyTheme(source, cfg)

	e.mu.Lock()
	defer e.mu.Unlock()

	// another render may have held the runtime for a while
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCanceled, err, "render %s", id)
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		e.logger.Debug("parse failed", "id", id, "err", err)
		return nil, syntaxError(err, "parse DOT")
	}
	if g == nil {
		return nil, syntaxError(nil, "no graph in source")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := e.gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		e.logger.Debug("layout failed", "id", id, "err", err)
		return nil, syntaxError(err, "render")
	}

	svg, w, h := normalizeSVG(buf.Bytes())
	svg = sanitize(svg, cfg.SecurityLevel)
	e.logger.Debug("rendered", "id", id, "width", w, "height", h, "bytes", len(svg))

	return &Document{
		ID:     id,
		SVG:    withID(svg, id),
		Width:  w,
		Height: h,
	}, nil
}

// Close releases the Graphviz runtime.
func (e *Graphviz) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gv.Close()
}

var (
	_ Engine         = (*Graphviz)(nil)
	_ ConfigRenderer = (*Graphviz)(nil)
)
