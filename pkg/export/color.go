package export

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/dotlive/pkg/errors"
)

// DefaultBackground is the export background of a new session.
const DefaultBackground = "#ffffff"

var namedColors = map[string]string{
	"white": "#ffffff",
	"black": "#000000",
	"red":   "#ff0000",
	"green": "#008000",
	"blue":  "#0000ff",
	"gray":  "#808080",
	"grey":  "#808080",
}

// Color is an export background colour.
type Color struct {
	c           colorful.Color
	transparent bool
}

// White is the default background.
var White = MustParseColor(DefaultBackground)

// ParseColor accepts "#rgb", "#rrggbb", a few CSS names and "transparent".
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "transparent" {
		return Color{transparent: true}, nil
	}
	if hex, ok := namedColors[s]; ok {
		s = hex
	}
	if len(s) == 4 && s[0] == '#' {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	if len(s) != 7 {
		return Color{}, errors.New(errors.ErrCodeInvalidColor, "invalid colour %q (want #rgb or #rrggbb)", s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, errors.Wrap(errors.ErrCodeInvalidColor, err, "invalid colour %q", s)
	}
	return Color{c: c}, nil
}

// MustParseColor is ParseColor for constants.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns "#rrggbb" or "transparent".
func (c Color) String() string {
	if c.transparent {
		return "transparent"
	}
	return c.c.Hex()
}

// Transparent reports whether the colour is fully transparent.
func (c Color) Transparent() bool { return c.transparent }

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	if c.transparent {
		return color.Transparent.RGBA()
	}
	return c.c.RGBA()
}

var _ color.Color = Color{}
