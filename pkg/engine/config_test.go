package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/dotlive/pkg/errors"
)

func TestDefaultConfigText(t *testing.T) {
	got, err := ParseConfig(DefaultConfigText, DefaultConfig())
	if err != nil {
		t.Fatalf("ParseConfig(DefaultConfigText) error: %v", err)
	}
	want := Config{
		Theme:         ThemeDefault,
		LogLevel:      LogLevelDebug,
		SecurityLevel: SecurityLoose,
		StartOnLoad:   true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfig(t *testing.T) {
	base := DefaultConfig()

	tests := []struct {
		name    string
		text    string
		want    Config
		wantErr bool
	}{
		{
			name: "empty keeps base",
			text: "  \n",
			want: base,
		},
		{
			name: "merges named keys only",
			text: `{"theme": "dark"}`,
			want: Config{Theme: ThemeDark, LogLevel: LogLevelFatal, SecurityLevel: SecurityLoose},
		},
		{
			name: "log level by name",
			text: `{"logLevel": "warn"}`,
			want: Config{Theme: ThemeDefault, LogLevel: LogLevelWarn, SecurityLevel: SecurityLoose},
		},
		{
			name: "rankdir uppercased",
			text: `{"layout": "dot", "rankdir": "lr"}`,
			want: Config{Theme: ThemeDefault, LogLevel: LogLevelFatal, SecurityLevel: SecurityLoose, Layout: "dot", RankDir: "LR"},
		},
		{
			name: "unknown keys ignored",
			text: `{"flowchart": {"curve": "basis"}}`,
			want: base,
		},
		{name: "trailing comma", text: `{"theme": "dark",}`, wantErr: true},
		{name: "not an object", text: `["dark"]`, wantErr: true},
		{name: "unknown theme", text: `{"theme": "sepia"}`, wantErr: true},
		{name: "unknown security level", text: `{"securityLevel": "none"}`, wantErr: true},
		{name: "log level out of range", text: `{"logLevel": 9}`, wantErr: true},
		{name: "wrong type", text: `{"startOnLoad": "yes"}`, wantErr: true},
		{name: "bad font", text: `{"fontFamily": "a\"b"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig(tt.text, base)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidConfig) {
					t.Fatalf("ParseConfig() error = %v, want INVALID_CONFIG", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseConfig() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigHash(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	if a.Hash() != b.Hash() {
		t.Error("equal configs should hash equally")
	}
	b.Theme = ThemeDark
	if a.Hash() == b.Hash() {
		t.Error("different configs should hash differently")
	}
}
