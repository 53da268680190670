package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dotlive/pkg/cache"
	"github.com/matzehuels/dotlive/pkg/errors"
)

// Themes.
const (
	ThemeDefault = "default"
	ThemeDark    = "dark"
	ThemeForest  = "forest"
	ThemeNeutral = "neutral"
	ThemeBase    = "base"
)

// Security levels.
const (
	SecurityStrict     = "strict"
	SecurityLoose      = "loose"
	SecurityAntiscript = "antiscript"
	SecuritySandbox    = "sandbox"
)

// Valid option values.
var (
	ValidThemes         = []string{ThemeDefault, ThemeDark, ThemeForest, ThemeNeutral, ThemeBase}
	ValidSecurityLevels = []string{SecurityStrict, SecurityLoose, SecurityAntiscript, SecuritySandbox}
	ValidLayouts        = []string{"dot", "neato", "fdp", "sfdp", "circo", "twopi", "osage", "patchwork"}
	ValidRankDirs       = []string{"TB", "LR", "BT", "RL"}
)

// Config is the renderer configuration. Its JSON form is what users type
// into the configuration buffer.
type Config struct {
	Theme         string   `json:"theme"`
	LogLevel      LogLevel `json:"logLevel"`
	SecurityLevel string   `json:"securityLevel"`
	// StartOnLoad is accepted for compatibility; sessions always render on load.
	StartOnLoad bool   `json:"startOnLoad"`
	Layout      string `json:"layout,omitempty"`
	RankDir     string `json:"rankdir,omitempty"`
	FontFamily  string `json:"fontFamily,omitempty"`
}

// DefaultConfig is the configuration an engine starts with.
func DefaultConfig() Config {
	return Config{
		Theme:         ThemeDefault,
		LogLevel:      LogLevelFatal,
		SecurityLevel: SecurityLoose,
		StartOnLoad:   false,
	}
}

// DefaultConfigText is the configuration buffer shown to a new session.
const DefaultConfigText = `{
  "theme": "default",
  "logLevel": 1,
  "securityLevel": "loose",
  "startOnLoad": true
}`

// Validate checks enum-valued fields.
func (c Config) Validate() error {
	if !slices.Contains(ValidThemes, c.Theme) {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid theme %q (must be one of: %s)", c.Theme, strings.Join(ValidThemes, ", "))
	}
	if !slices.Contains(ValidSecurityLevels, c.SecurityLevel) {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid securityLevel %q (must be one of: %s)", c.SecurityLevel, strings.Join(ValidSecurityLevels, ", "))
	}
	if c.LogLevel < LogLevelTrace || c.LogLevel > LogLevelFatal {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid logLevel %d (must be 0-5)", c.LogLevel)
	}
	if c.Layout != "" && !slices.Contains(ValidLayouts, c.Layout) {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid layout %q (must be one of: %s)", c.Layout, strings.Join(ValidLayouts, ", "))
	}
	if c.RankDir != "" && !slices.Contains(ValidRankDirs, c.RankDir) {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid rankdir %q (must be one of: %s)", c.RankDir, strings.Join(ValidRankDirs, ", "))
	}
	if strings.ContainsAny(c.FontFamily, "\"\\\n") {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid fontFamily %q", c.FontFamily)
	}
	return nil
}

// Hash returns a stable content hash used in cache keys.
func (c Config) Hash() string {
	data, _ := json.Marshal(c)
	return cache.Hash(data)
}

// configPatch mirrors Config with optional fields so that a JSON object
// only overrides the keys it names.
type configPatch struct {
	Theme         *string   `json:"theme"`
	LogLevel      *LogLevel `json:"logLevel"`
	SecurityLevel *string   `json:"securityLevel"`
	StartOnLoad   *bool     `json:"startOnLoad"`
	Layout        *string   `json:"layout"`
	RankDir       *string   `json:"rankdir"`
	FontFamily    *string   `json:"fontFamily"`
}

// ParseConfig parses configuration text and merges it over base.
// Empty text yields base unchanged. Unknown keys are ignored. Any syntax,
// type or value error returns an INVALID_CONFIG error and the zero Config;
// callers keep using base.
func ParseConfig(text string, base Config) (Config, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 {
		return base, nil
	}
	if trimmed[0] != '{' {
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "configuration must be a JSON object")
	}

	var p configPatch
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config JSON")
	}

	cfg := base
	if p.Theme != nil {
		cfg.Theme = *p.Theme
	}
	if p.LogLevel != nil {
		cfg.LogLevel = *p.LogLevel
	}
	if p.SecurityLevel != nil {
		cfg.SecurityLevel = *p.SecurityLevel
	}
	if p.StartOnLoad != nil {
		cfg.StartOnLoad = *p.StartOnLoad
	}
	if p.Layout != nil {
		cfg.Layout = *p.Layout
	}
	if p.RankDir != nil {
		cfg.RankDir = strings.ToUpper(*p.RankDir)
	}
	if p.FontFamily != nil {
		cfg.FontFamily = *p.FontFamily
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LogLevel is a renderer log level, 0 (trace) to 5 (fatal).
// In JSON it may be a number or a level name.
type LogLevel int

// Log levels.
const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelFatal
)

var logLevelNames = map[string]LogLevel{
	"trace": LogLevelTrace,
	"debug": LogLevelDebug,
	"info":  LogLevelInfo,
	"warn":  LogLevelWarn,
	"error": LogLevelError,
	"fatal": LogLevelFatal,
}

// UnmarshalJSON accepts 0-5 or "trace".."fatal".
func (l *LogLevel) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*l = LogLevel(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("logLevel must be a number or a level name")
	}
	lvl, ok := logLevelNames[strings.ToLower(s)]
	if !ok {
		return fmt.Errorf("unknown logLevel %q", s)
	}
	*l = lvl
	return nil
}

// Charm maps the level onto a charm log level.
func (l LogLevel) Charm() log.Level {
	switch l {
	case LogLevelTrace, LogLevelDebug:
		return log.DebugLevel
	case LogLevelInfo:
		return log.InfoLevel
	case LogLevelWarn:
		return log.WarnLevel
	case LogLevelError:
		return log.ErrorLevel
	default:
		return log.FatalLevel
	}
}
