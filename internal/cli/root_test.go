package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/dotlive/pkg/engine"
	"github.com/matzehuels/dotlive/pkg/errors"
	"github.com/matzehuels/dotlive/pkg/sharelink"
)

// fakeRenderer renders any source not starting with "bad" into a 40x20 SVG.
type fakeRenderer struct{}

func (fakeRenderer) RenderWith(_ context.Context, _ engine.Config, id, source string) (*engine.Document, error) {
	if strings.HasPrefix(source, "bad") {
		return nil, errors.New(errors.ErrCodeSyntax, "syntax error in line 1")
	}
	svg := `<svg id="` + id + `" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 40 20"><rect width="40" height="20" fill="#000"/></svg>`
	return &engine.Document{ID: id, SVG: []byte(svg), Width: 40, Height: 20}, nil
}

func (fakeRenderer) Close() error { return nil }

// isolate points the settings and cache directories at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	c.OpenRenderer = func(context.Context, *log.Logger) (Renderer, error) { return fakeRenderer{}, nil }

	root := NewRoot(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRoot(New(io.Discard, LogInfo))
	got := map[string]bool{}
	for _, cmd := range root.Commands() {
		got[cmd.Name()] = true
	}
	for _, name := range []string{"cache", "completion", "edit", "export", "open", "render", "serve", "share", "watch"} {
		if !got[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
	if root.PersistentFlags().Lookup("verbose") == nil || root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --verbose or --config")
	}
}

func TestRenderCommand(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, "digraph { a -> b }", "render", "--no-cache")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, `<svg id="diagram-`) {
		t.Errorf("output = %q", out)
	}
}

func TestRenderCommandToFile(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "graph.dot")
	outPath := filepath.Join(dir, "graph.svg")
	if err := os.WriteFile(in, []byte("digraph {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "", "render", in, "-o", outPath); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`viewBox="0 0 40 20"`)) {
		t.Errorf("svg = %s", data)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	dir := isolate(t)
	badConfig := filepath.Join(dir, "config.json")
	if err := os.WriteFile(badConfig, []byte(`{"theme": "sepia"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		in   string
		code errors.Code
	}{
		{"syntax", []string{"render"}, "bad {", errors.ErrCodeSyntax},
		{"config", []string{"render", "--graph-config", badConfig}, "digraph {}", errors.ErrCodeInvalidConfig},
		{"missing file", []string{"render", filepath.Join(dir, "nope.dot")}, "", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.in, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExportCommand(t *testing.T) {
	dir := isolate(t)
	outPath := filepath.Join(dir, "out.png")

	if _, err := runCLI(t, "digraph {}", "export", "-o", outPath, "--background", "transparent"); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestExportCommandRejectsColour(t *testing.T) {
	isolate(t)
	_, err := runCLI(t, "digraph {}", "export", "--background", "#12345")
	if !errors.Is(err, errors.ErrCodeInvalidColor) {
		t.Errorf("err = %v, want INVALID_COLOR", err)
	}
}

func TestShareOpenRoundTrip(t *testing.T) {
	isolate(t)
	source := "digraph {\n  \"naïve\" -> \"café\"\n}\n"

	link, err := runCLI(t, source, "share", "--origin", "https://dot.example.com/")
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	link = strings.TrimSpace(link)
	if !strings.HasPrefix(link, "https://dot.example.com/?code=") {
		t.Fatalf("link = %q", link)
	}

	got, err := runCLI(t, "", "open", link)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if diff := cmp.Diff(source, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeShare(t *testing.T) {
	source := "graph { a -- b }"
	token := sharelink.Encode(source)

	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr bool
	}{
		{"url", "http://localhost:7777/?code=" + token, source, false},
		{"query", "?code=" + token, source, false},
		{"token", token, source, false},
		{"escaped token", strings.ReplaceAll(token, "=", "%3D"), source, false},
		{"url without code", "http://localhost:7777/", "", true},
		{"garbage", "%%%", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeShare(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeShare() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("decodeShare() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCachePath(t *testing.T) {
	dir := isolate(t)
	out, err := runCLI(t, "", "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "cache", appName); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}

func TestCacheClear(t *testing.T) {
	dir := isolate(t)
	if _, err := runCLI(t, "digraph {}", "render"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := runCLI(t, "", "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	entries, _ := filepath.Glob(filepath.Join(dir, "cache", appName, "*", "*.json"))
	if len(entries) != 0 {
		t.Errorf("%d entries left after clear", len(entries))
	}
}

func TestCacheStats(t *testing.T) {
	isolate(t)
	if _, err := runCLI(t, "digraph {}", "render"); err != nil {
		t.Fatalf("render: %v", err)
	}
	out, err := runCLI(t, "", "cache", "stats")
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	fields := strings.Fields(out)
	if len(fields) < 3 || fields[0] != "render" || fields[1] != "1" {
		t.Errorf("cache stats = %q, want one render entry", out)
	}
}

func TestCacheClearExpiredKeepsFreshEntries(t *testing.T) {
	dir := isolate(t)
	if _, err := runCLI(t, "digraph {}", "render"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := runCLI(t, "", "cache", "clear", "--expired"); err != nil {
		t.Fatalf("cache clear --expired: %v", err)
	}
	entries, _ := filepath.Glob(filepath.Join(dir, "cache", appName, "*", "*.json"))
	if len(entries) != 1 {
		t.Errorf("%d entries after pruning, want the fresh render kept", len(entries))
	}
}

func TestInvalidSettingsFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "settings.toml")
	if err := os.WriteFile(path, []byte("[cache]\nbackend = \"s3\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := runCLI(t, "", "--config", path, "cache", "path")
	if !errors.Is(err, errors.ErrCodeInvalidSettings) {
		t.Errorf("err = %v, want INVALID_SETTINGS", err)
	}
}
