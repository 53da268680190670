package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dotlive/pkg/engine"
	"github.com/matzehuels/dotlive/pkg/errors"
	"github.com/matzehuels/dotlive/pkg/render"
)

// echoRenderer embeds the source in the SVG so tests can see which
// version was rendered.
type echoRenderer struct{}

func (echoRenderer) RenderWith(_ context.Context, _ engine.Config, id, source string) (*engine.Document, error) {
	if strings.HasPrefix(source, "bad") {
		return nil, errors.New(errors.ErrCodeSyntax, "syntax error")
	}
	svg := `<svg id="` + id + `"><desc>` + source + `</desc></svg>`
	return &engine.Document{ID: id, SVG: []byte(svg), Width: 1, Height: 1}, nil
}

func waitForFile(t *testing.T, path string, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil && bytes.Contains(data, []byte(want)) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s never contained %q", path, want)
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "graph.dot")
	out := filepath.Join(dir, "graph.svg")
	if err := os.WriteFile(in, []byte("digraph { first }"), 0o644); err != nil {
		t.Fatal(err)
	}

	logger := log.New(io.Discard)
	p := render.New(context.Background(), engine.NewScoped(echoRenderer{}), render.Options{
		Display:   &fileDisplay{path: out, logger: logger},
		Scheduler: render.NewDebouncer(10 * time.Millisecond),
		Logger:    logger,
	})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- watchFile(ctx, in, p, logger) }()

	waitForFile(t, out, "first")

	if err := os.WriteFile(in, []byte("digraph { second }"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitForFile(t, out, "second")

	if err := os.WriteFile(in, []byte("bad {"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if data, _ := os.ReadFile(out); !bytes.Contains(data, []byte("second")) {
		t.Errorf("failed render replaced the last good file: %s", data)
	}

	cancel()
	select {
	case err := <-errc:
		if err != context.Canceled {
			t.Errorf("watchFile() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchFile did not return after cancel")
	}
}

func TestWatchFileMissing(t *testing.T) {
	logger := log.New(io.Discard)
	p := render.New(context.Background(), engine.NewScoped(echoRenderer{}), render.Options{Logger: logger})
	defer p.Close()

	err := watchFile(context.Background(), filepath.Join(t.TempDir(), "nope.dot"), p, logger)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}
