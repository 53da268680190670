package export

import (
	"math"
	"testing"
)

func TestDimensions(t *testing.T) {
	tests := []struct {
		name    string
		svg     string
		w, h    float64
		wantErr bool
	}{
		{"viewBox", `<svg viewBox="0 0 62 116" width="1" height="1"/>`, 62, 116, false},
		{"viewBox commas", `<svg viewBox="-4,-4, 30.5,10"/>`, 30.5, 10, false},
		{"prolog", `<?xml version="1.0"?><!-- c --><svg viewBox="0 0 5 6"/>`, 5, 6, false},
		{"width height px", `<svg width="100px" height="50"/>`, 100, 50, false},
		{"width height pt", `<svg width="72pt" height="36pt"/>`, 96, 48, false},
		{"width height in", `<svg width="1in" height="0.5in"/>`, 96, 48, false},
		{"degenerate viewBox falls back", `<svg viewBox="0 0 0 0" width="10" height="20"/>`, 10, 20, false},
		{"infinite viewBox", `<svg viewBox="0 0 Inf Inf"/>`, 0, 0, true},
		{"NaN viewBox falls back", `<svg viewBox="0 0 NaN NaN" width="8" height="4"/>`, 8, 4, false},
		{"out of range length", `<svg width="1e400" height="10"/>`, 0, 0, true},
		{"percent", `<svg width="100%" height="100%"/>`, 0, 0, true},
		{"missing", `<svg/>`, 0, 0, true},
		{"not svg", `<div/>`, 0, 0, true},
		{"empty", ``, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := Dimensions([]byte(tt.svg))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Dimensions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if math.Abs(w-tt.w) > 1e-9 || math.Abs(h-tt.h) > 1e-9 {
				t.Errorf("Dimensions() = %v x %v, want %v x %v", w, h, tt.w, tt.h)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"#ffffff", "#ffffff", false},
		{"#FFF", "#ffffff", false},
		{" #1e90ff ", "#1e90ff", false},
		{"black", "#000000", false},
		{"Transparent", "transparent", false},
		{"ffffff", "", true},
		{"#12345", "", true},
		{"chartreuse-ish", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v", tt.in, err)
			}
			if err == nil && c.String() != tt.want {
				t.Errorf("ParseColor(%q) = %s, want %s", tt.in, c, tt.want)
			}
		})
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	svg := []byte(`<svg><text>日本語 🎉</text></svg>`)
	mt, data, err := ParseDataURI(SVGDataURI(svg))
	if err != nil {
		t.Fatalf("ParseDataURI() error: %v", err)
	}
	if mt != MediaSVG || string(data) != string(svg) {
		t.Errorf("round trip = %s %q", mt, data)
	}

	for _, bad := range []string{"", "http://x", "data:image/png,raw", "data:image/png;base64,!!"} {
		if _, _, err := ParseDataURI(bad); err == nil {
			t.Errorf("ParseDataURI(%q) should fail", bad)
		}
	}
}
