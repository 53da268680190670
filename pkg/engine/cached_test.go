package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dotlive/pkg/cache"
)

// fakeEngine renders a fixed document and counts calls.
type fakeEngine struct {
	cfg   Config
	calls atomic.Int32
	err   error
}

func (f *fakeEngine) SetConfig(cfg Config) error { f.cfg = cfg; return nil }
func (f *fakeEngine) Config() Config             { return f.cfg }

func (f *fakeEngine) Render(_ context.Context, id, source string) (*Document, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	svg, w, h := normalizeSVG([]byte(`<svg viewBox="0 0 40 20"><text>` + source + `</text></svg>`))
	return &Document{ID: id, SVG: withID(svg, id), Width: w, Height: h}, nil
}

type failingCache struct{ cache.NullCache }

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func TestCachedHitRetagsID(t *testing.T) {
	ctx := context.Background()
	inner := &fakeEngine{cfg: DefaultConfig()}
	eng := NewCached(inner, cache.NewMemoryCache(), nil, quietLogger())

	first, err := eng.Render(ctx, "diagram-a", "x")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if first.Cached {
		t.Error("first render should not be cached")
	}

	second, err := eng.Render(ctx, "diagram-b", "x")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !second.Cached {
		t.Error("second render should come from the cache")
	}
	if inner.calls.Load() != 1 {
		t.Errorf("inner engine called %d times, want 1", inner.calls.Load())
	}
	if second.ID != "diagram-b" || !bytes.HasPrefix(second.SVG, []byte(`<svg id="diagram-b"`)) {
		t.Errorf("cached document not retagged: id=%s svg=%.30s", second.ID, second.SVG)
	}
	if second.Width != 40 || second.Height != 20 {
		t.Errorf("size = %vx%v, want 40x20", second.Width, second.Height)
	}
}

func TestCachedKeyIncludesConfig(t *testing.T) {
	ctx := context.Background()
	inner := &fakeEngine{cfg: DefaultConfig()}
	eng := NewCached(inner, cache.NewMemoryCache(), nil, quietLogger())

	if _, err := eng.Render(ctx, "diagram-1", "x"); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Theme = ThemeForest
	if err := eng.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Render(ctx, "diagram-2", "x"); err != nil {
		t.Fatal(err)
	}
	if inner.calls.Load() != 2 {
		t.Errorf("config change should miss the cache; inner calls = %d", inner.calls.Load())
	}
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryCache()
	inner := &fakeEngine{cfg: DefaultConfig(), err: syntaxError(nil, "bad")}
	eng := NewCached(inner, mem, nil, quietLogger())

	if _, err := eng.Render(ctx, "diagram-1", "x"); !IsSyntax(err) {
		t.Fatalf("Render() error = %v, want syntax error", err)
	}
	if mem.Len() != 0 {
		t.Errorf("failed render was cached (%d entries)", mem.Len())
	}
}

func TestCachedSurvivesBackendErrors(t *testing.T) {
	inner := &fakeEngine{cfg: DefaultConfig()}
	eng := NewCached(inner, failingCache{}, nil, quietLogger())

	doc, err := eng.Render(context.Background(), "diagram-1", "x")
	if err != nil {
		t.Fatalf("cache errors must not fail a render: %v", err)
	}
	if doc.Cached {
		t.Error("document should not be marked cached")
	}
}
