package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/dotlive/pkg/cache"
	"github.com/matzehuels/dotlive/pkg/errors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
[server]
addr = ":9000"

[editor]
debounce = "150ms"
background = "black"

[cache]
backend = "redis"

[cache.redis]
addr = "localhost:6379"
db = 2

[extra]
foo = 1
`)

	s, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := &Settings{
		Server: ServerSettings{Addr: ":9000"},
		Editor: EditorSettings{
			Debounce:   Duration{150 * time.Millisecond},
			Background: "black",
			Downloads:  ".",
			Rasterizer: "auto",
		},
		Cache: CacheSettings{
			Backend: CacheRedis,
			Prefix:  "dotlive:v1:",
			Redis:   cache.RedisConfig{Addr: "localhost:6379", DB: 2},
		},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
	if len(warnings) == 0 {
		t.Error("expected a warning for the unknown [extra] table")
	}
	if got := s.Origin(); got != "http://localhost:9000/" {
		t.Errorf("Origin() = %q", got)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s, _, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(Default(), s); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidSettings) {
		t.Errorf("Load() error = %v, want INVALID_SETTINGS", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"bad background", func(s *Settings) { s.Editor.Background = "#12" }},
		{"bad rasterizer", func(s *Settings) { s.Editor.Rasterizer = "cairo" }},
		{"bad backend", func(s *Settings) { s.Cache.Backend = "mongo" }},
		{"redis without addr", func(s *Settings) { s.Cache.Backend = CacheRedis }},
		{"debounce too long", func(s *Settings) { s.Editor.Debounce.Duration = time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.modify(s)
			if err := s.Validate(); !errors.Is(err, errors.ErrCodeInvalidSettings) {
				t.Errorf("Validate() error = %v, want INVALID_SETTINGS", err)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error: %v", err)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	s := Default()
	if dir, _ := s.CacheDir(); dir != "/tmp/xdg-cache/dotlive" {
		t.Errorf("CacheDir() = %q", dir)
	}
	s.Cache.Dir = "/var/cache/dl"
	if dir, _ := s.CacheDir(); dir != "/var/cache/dl" {
		t.Errorf("CacheDir() = %q", dir)
	}
}
