package render

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/dotlive/pkg/engine"
	"github.com/matzehuels/dotlive/pkg/errors"
	"github.com/matzehuels/dotlive/pkg/observability"
)

// Options configures a Pipeline. Zero values get defaults in SetDefaults.
type Options struct {
	Display   Display
	Scheduler Scheduler
	Logger    *log.Logger
	// NewID returns a fresh render ID. Defaults to NewID.
	NewID func() string
}

// SetDefaults fills unset options.
func (o *Options) SetDefaults() {
	if o.Display == nil {
		o.Display = NewMemoryDisplay()
	}
	if o.Scheduler == nil {
		o.Scheduler = NewDebouncer(DefaultDelay)
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.NewID == nil {
		o.NewID = NewID
	}
}

// NewID returns a unique render-target identifier.
func NewID() string {
	return "diagram-" + uuid.NewString()
}

// Pipeline renders the latest source through an engine onto a display.
type Pipeline struct {
	engine  engine.Engine
	display Display
	sched   Scheduler
	delay   time.Duration
	logger  *log.Logger
	newID   func() string
	ctx     context.Context

	// dmu orders display updates: an attempt clears the display and bumps
	// seq in one step, and a result is checked against seq and mounted in
	// one step.
	dmu sync.Mutex

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current *Result
	closed  bool
}

// New creates a pipeline. Attempts run with contexts derived from ctx.
func New(ctx context.Context, eng engine.Engine, opts Options) *Pipeline {
	opts.SetDefaults()
	// schedulers that do not report a quiet period are assumed to use the default
	delay := DefaultDelay
	if d, ok := opts.Scheduler.(Delayer); ok {
		delay = d.Delay()
	}
	return &Pipeline{
		engine:  eng,
		display: opts.Display,
		sched:   opts.Scheduler,
		delay:   delay,
		logger:  opts.Logger,
		newID:   opts.NewID,
		ctx:     ctx,
	}
}

// Schedule renders source once the quiet period after the latest call ends.
func (p *Pipeline) Schedule(source string) {
	observability.Render().OnRenderScheduled(p.ctx, p.delay)
	p.sched.Schedule(func() { p.run(source) })
}

// RenderNow renders source without waiting and returns the result. A result
// superseded by a newer attempt is returned but not displayed.
func (p *Pipeline) RenderNow(source string) *Result {
	return p.run(source)
}

// Current returns the displayed successful result, or nil while an attempt
// is in flight or after a failure.
func (p *Pipeline) Current() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Close stops scheduling and cancels the attempt in flight.
func (p *Pipeline) Close() {
	p.sched.Stop()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Pipeline) run(source string) *Result {
	id := p.newID()

	p.dmu.Lock()
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.dmu.Unlock()
		return &Result{ID: id, Source: source, Err: errors.New(errors.ErrCodeCanceled, "pipeline closed")}
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.seq++
	seq := p.seq
	ctx, cancel := context.WithCancel(p.ctx)
	p.cancel = cancel
	p.current = nil
	p.mu.Unlock()
	p.display.Clear(id)
	p.dmu.Unlock()

	hooks := observability.Render()
	hooks.OnRenderStart(ctx, id)
	start := time.Now()
	doc, err := p.engine.Render(ctx, id, source)
	res := &Result{
		ID:       id,
		Seq:      seq,
		Source:   source,
		Err:      err,
		Duration: time.Since(start),
	}
	if err == nil {
		res.SVG, res.Width, res.Height, res.Cached = doc.SVG, doc.Width, doc.Height, doc.Cached
	}
	hooks.OnRenderComplete(ctx, id, res.Duration, err)

	p.dmu.Lock()
	defer p.dmu.Unlock()
	p.mu.Lock()
	if seq != p.seq || p.closed {
		p.mu.Unlock()
		cancel()
		hooks.OnRenderSuperseded(ctx, id)
		p.logger.Debug("dropping superseded render", "id", id)
		return res
	}
	p.cancel = nil
	if res.OK() {
		p.current = res
	}
	p.mu.Unlock()
	cancel()

	if err != nil || !res.OK() {
		if res.Err == nil {
			res.Err = errors.New(errors.ErrCodeSyntax, "empty document")
		}
		p.logger.Warn("render failed", "id", id, "err", res.Err)
		p.display.ShowError(res)
		return res
	}
	p.logger.Debug("rendered", "id", id, "duration", res.Duration.Round(time.Millisecond), "cached", res.Cached)
	p.display.Mount(res)
	return res
}
