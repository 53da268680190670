package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dotlive/pkg/cache"
	"github.com/matzehuels/dotlive/pkg/errors"
)

const sampleSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 40 20" width="40" height="20">` +
	`<rect x="0" y="0" width="20" height="20" fill="#ff0000"/><text>café ✓</text></svg>`

// halfRasterizer fills the left half opaque red and leaves the rest
// transparent, recording what it was asked to draw.
type halfRasterizer struct {
	gotSVG  []byte
	gotW    int
	gotH    int
	failErr error
	calls   int
}

func (r *halfRasterizer) Name() string { return "half" }

func (r *halfRasterizer) Rasterize(_ context.Context, svg []byte, w, h int) (image.Image, error) {
	r.calls++
	r.gotSVG, r.gotW, r.gotH = svg, w, h
	if r.failErr != nil {
		return nil, r.failErr
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	return img, nil
}

func newTestExporter(r Rasterizer, c cache.Cache) *Exporter {
	return New(Options{Rasterizer: r, Cache: c, Logger: log.New(io.Discard)})
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error: %v", err)
	}
	return img
}

func TestExportDoublesSizeOverBackground(t *testing.T) {
	r := &halfRasterizer{}
	res, err := newTestExporter(r, nil).Export(context.Background(), []byte(sampleSVG), White)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	if res.Width != 80 || res.Height != 40 {
		t.Errorf("size = %dx%d, want 80x40", res.Width, res.Height)
	}
	if res.Filename != "diagram.png" {
		t.Errorf("Filename = %q", res.Filename)
	}
	if !bytes.Equal(r.gotSVG, []byte(sampleSVG)) {
		t.Error("rasterizer should receive the document loaded back from the data URI")
	}

	img := decodePNG(t, res.PNG)
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 40 {
		t.Fatalf("PNG bounds = %v", b)
	}
	assertPixel(t, img, 10, 10, 255, 0, 0)
	// transparent diagram regions take the background colour
	assertPixel(t, img, 70, 10, 255, 255, 255)
}

func TestExportTransparentBackground(t *testing.T) {
	bg, _ := ParseColor("transparent")
	res, err := newTestExporter(&halfRasterizer{}, nil).Export(context.Background(), []byte(sampleSVG), bg)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	img := decodePNG(t, res.PNG)
	if _, _, _, a := img.At(70, 10).RGBA(); a != 0 {
		t.Errorf("alpha = %d, want 0 over a transparent background", a)
	}
}

func assertPixel(t *testing.T, img image.Image, x, y int, wr, wg, wb uint8) {
	t.Helper()
	r, g, b, _ := img.At(x, y).RGBA()
	if uint8(r>>8) != wr || uint8(g>>8) != wg || uint8(b>>8) != wb {
		t.Errorf("pixel (%d,%d) = %d,%d,%d want %d,%d,%d", x, y, r>>8, g>>8, b>>8, wr, wg, wb)
	}
}

func TestExportFailures(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		ras  *halfRasterizer
		code errors.Code
	}{
		{"no document", "  ", &halfRasterizer{}, errors.ErrCodeNoDiagram},
		{"not svg", "<html></html>", &halfRasterizer{}, errors.ErrCodeExportFailed},
		{"malformed", "<svg viewBox=", &halfRasterizer{}, errors.ErrCodeExportFailed},
		{"no size", "<svg></svg>", &halfRasterizer{}, errors.ErrCodeExportFailed},
		{"rasterizer fails", sampleSVG, &halfRasterizer{failErr: io.ErrUnexpectedEOF}, errors.ErrCodeExportFailed},
		{"infinite viewBox", `<svg viewBox="0 0 Inf Inf"></svg>`, &halfRasterizer{}, errors.ErrCodeExportFailed},
		{"NaN viewBox", `<svg viewBox="0 0 NaN NaN"></svg>`, &halfRasterizer{}, errors.ErrCodeExportFailed},
		{"out of range viewBox", `<svg viewBox="0 0 1e400 10"></svg>`, &halfRasterizer{}, errors.ErrCodeExportFailed},
		{"huge viewBox", `<svg viewBox="0 0 1e19 1e19"></svg>`, &halfRasterizer{}, errors.ErrCodeExportFailed},
		{"huge width and height", `<svg width="1e19px" height="1e19px"></svg>`, &halfRasterizer{}, errors.ErrCodeExportFailed},
		{"too many pixels", `<svg viewBox="0 0 100000 100000"></svg>`, &halfRasterizer{}, errors.ErrCodeExportFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestExporter(tt.ras, nil).Export(context.Background(), []byte(tt.svg), White)
			if !errors.Is(err, tt.code) {
				t.Errorf("Export() error = %v, want %s", err, tt.code)
			}
			if res != nil {
				t.Error("failed export must not produce output")
			}
			if tt.ras.failErr == nil && tt.ras.calls != 0 {
				t.Errorf("rasterizer called %d times for an unusable document", tt.ras.calls)
			}
		})
	}
}

func TestExportCache(t *testing.T) {
	r := &halfRasterizer{}
	x := newTestExporter(r, cache.NewMemoryCache())
	ctx := context.Background()

	first, err := x.Export(ctx, []byte(sampleSVG), White)
	if err != nil {
		t.Fatal(err)
	}
	second, err := x.Export(ctx, []byte(sampleSVG), White)
	if err != nil {
		t.Fatal(err)
	}
	if r.calls != 1 {
		t.Errorf("rasterizer called %d times, want 1", r.calls)
	}
	if !bytes.Equal(first.PNG, second.PNG) {
		t.Error("cached export differs")
	}

	black, _ := ParseColor("black")
	if _, err := x.Export(ctx, []byte(sampleSVG), black); err != nil {
		t.Fatal(err)
	}
	if r.calls != 2 {
		t.Error("a different background must not hit the cache")
	}
}

func TestOKSVGRasterizer(t *testing.T) {
	res, err := newTestExporter(OKSVG{}, nil).Export(context.Background(), []byte(sampleSVG), White)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	img := decodePNG(t, res.PNG)
	assertPixel(t, img, 10, 10, 255, 0, 0)
	assertPixel(t, img, 70, 30, 255, 255, 255)
}

func TestFileDownloader(t *testing.T) {
	dir := t.TempDir()
	var saved []string
	d := FileDownloader{Dir: dir, Saved: func(p string) { saved = append(saved, p) }}
	uri := DataURI(MediaPNG, []byte("png-bytes"))

	for range 2 {
		if err := d.Download(context.Background(), Filename, uri); err != nil {
			t.Fatalf("Download() error: %v", err)
		}
	}

	want := []string{filepath.Join(dir, "diagram.png"), filepath.Join(dir, "diagram (1).png")}
	if len(saved) != 2 || saved[0] != want[0] || saved[1] != want[1] {
		t.Errorf("saved = %v, want %v", saved, want)
	}
	data, err := os.ReadFile(want[1])
	if err != nil || string(data) != "png-bytes" {
		t.Errorf("ReadFile() = %q, %v", data, err)
	}
}

func TestFileDownloaderRejectsBadURI(t *testing.T) {
	err := FileDownloader{Dir: t.TempDir()}.Download(context.Background(), Filename, "not-a-uri")
	if !errors.Is(err, errors.ErrCodeExportFailed) {
		t.Errorf("Download() error = %v, want EXPORT_FAILED", err)
	}
}
