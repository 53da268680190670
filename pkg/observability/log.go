package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event as a debug line on a charm logger.
// It implements RenderHooks, ExportHooks and CacheHooks.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks writing to l, or to log.Default() when l is nil.
func NewLogHooks(l *log.Logger) *LogHooks {
	if l == nil {
		l = log.Default()
	}
	return &LogHooks{Logger: l}
}

func (h *LogHooks) OnRenderScheduled(_ context.Context, delay time.Duration) {
	h.Logger.Debug("render scheduled", "delay", delay)
}

func (h *LogHooks) OnRenderStart(_ context.Context, id string) {
	h.Logger.Debug("render start", "id", id)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, id string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("render failed", "id", id, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	h.Logger.Debug("render done", "id", id, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnRenderSuperseded(_ context.Context, id string) {
	h.Logger.Debug("render superseded", "id", id)
}

func (h *LogHooks) OnExportComplete(_ context.Context, w, ht int, d time.Duration, err error) {
	h.Logger.Debug("export", "width", w, "height", ht, "duration", d.Round(time.Millisecond), "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

var (
	_ RenderHooks = (*LogHooks)(nil)
	_ ExportHooks = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
)
