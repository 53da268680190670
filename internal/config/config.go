// Package config loads dotlive's settings file.
//
// Settings live in $XDG_CONFIG_HOME/dotlive/config.toml (falling back to
// ~/.config/dotlive/config.toml). Every field is optional; command-line flags
// override the file.
//
//	[server]
//	addr   = "127.0.0.1:7777"
//	origin = "https://diagrams.example.com/"
//
//	[editor]
//	debounce   = "300ms"
//	background = "#ffffff"
//	downloads  = "~/Downloads"
//	rasterizer = "auto"
//
//	[cache]
//	backend = "redis"
//	prefix  = "dotlive:v1:"
//
//	[cache.redis]
//	addr = "localhost:6379"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/dotlive/pkg/cache"
	"github.com/matzehuels/dotlive/pkg/errors"
	"github.com/matzehuels/dotlive/pkg/export"
	"github.com/matzehuels/dotlive/pkg/render"
)

const appName = "dotlive"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// ValidCacheBackends lists the accepted cache.backend values.
var ValidCacheBackends = []string{CacheNone, CacheMemory, CacheFile, CacheRedis}

// Settings is the parsed settings file.
type Settings struct {
	Server ServerSettings `toml:"server"`
	Editor EditorSettings `toml:"editor"`
	Cache  CacheSettings  `toml:"cache"`
}

// ServerSettings configures `dotlive serve`.
type ServerSettings struct {
	Addr string `toml:"addr"`
	// Origin is the public page URL share links point at.
	// Empty means http://<addr>/.
	Origin string `toml:"origin"`
}

// EditorSettings configures editor sessions.
type EditorSettings struct {
	Debounce   Duration `toml:"debounce"`
	Background string   `toml:"background"`
	Downloads  string   `toml:"downloads"`
	Rasterizer string   `toml:"rasterizer"`
}

// CacheSettings selects and configures the render cache.
type CacheSettings struct {
	Backend string            `toml:"backend"`
	Dir     string            `toml:"dir"`
	Prefix  string            `toml:"prefix"`
	Redis   cache.RedisConfig `toml:"redis"`
}

// Duration is a time.Duration written as a Go duration string.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns settings with every default applied.
func Default() *Settings {
	s := &Settings{}
	s.SetDefaults()
	return s
}

// SetDefaults fills unset fields.
func (s *Settings) SetDefaults() {
	if s.Server.Addr == "" {
		s.Server.Addr = "127.0.0.1:7777"
	}
	if s.Editor.Debounce.Duration <= 0 {
		s.Editor.Debounce.Duration = render.DefaultDelay
	}
	if s.Editor.Background == "" {
		s.Editor.Background = export.DefaultBackground
	}
	if s.Editor.Downloads == "" {
		s.Editor.Downloads = "."
	}
	if s.Editor.Rasterizer == "" {
		s.Editor.Rasterizer = "auto"
	}
	if s.Cache.Backend == "" {
		s.Cache.Backend = CacheFile
	}
	if s.Cache.Prefix == "" {
		s.Cache.Prefix = appName + ":v1:"
	}
}

// Validate checks value ranges and enums.
func (s *Settings) Validate() error {
	if _, err := export.ParseColor(s.Editor.Background); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSettings, err, "editor.background")
	}
	if _, err := export.ByName(s.Editor.Rasterizer); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSettings, err, "editor.rasterizer")
	}
	if !slices.Contains(ValidCacheBackends, s.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidSettings, "invalid cache.backend %q (must be one of: %s)",
			s.Cache.Backend, strings.Join(ValidCacheBackends, ", "))
	}
	if s.Cache.Backend == CacheRedis && s.Cache.Redis.Addr == "" {
		return errors.New(errors.ErrCodeInvalidSettings, "cache.redis.addr is required for the redis backend")
	}
	if s.Editor.Debounce.Duration > 10*time.Second {
		return errors.New(errors.ErrCodeInvalidSettings, "editor.debounce %s is too long", s.Editor.Debounce)
	}
	return nil
}

// Origin returns the share-link origin, derived from the listen address
// when not set.
func (s *Settings) Origin() string {
	if s.Server.Origin != "" {
		return s.Server.Origin
	}
	host := s.Server.Addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/"
}

// Path returns the default settings file path.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the file cache directory: cache.dir when set, else the
// XDG cache directory.
func (s *Settings) CacheDir() (string, error) {
	if s.Cache.Dir != "" {
		return expandHome(s.Cache.Dir)
	}
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// DownloadsDir returns editor.downloads with ~ expanded.
func (s *Settings) DownloadsDir() (string, error) {
	return expandHome(s.Editor.Downloads)
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// Load reads path, applies defaults and validates. With an empty path the
// default location is used and a missing file yields defaults. Keys the
// file sets but Settings does not know are returned as warnings.
func Load(path string) (s *Settings, warnings []string, err error) {
	explicit := path != ""
	if !explicit {
		if path, err = Path(); err != nil {
			return Default(), nil, nil
		}
	}

	s = &Settings{}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) && !explicit {
		s.SetDefaults()
		return s, nil, nil
	}
	md, err := toml.DecodeFile(path, s)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidSettings, err, "read %s", path)
	}
	for _, k := range md.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("%s: unknown key %q", path, k.String()))
	}

	s.SetDefaults()
	if err := s.Validate(); err != nil {
		return nil, warnings, err
	}
	return s, warnings, nil
}
