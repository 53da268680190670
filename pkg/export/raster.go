package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Rasterizer draws a vector document into a bitmap of exactly
// width x height pixels.
type Rasterizer interface {
	Name() string
	Rasterize(ctx context.Context, svg []byte, width, height int) (image.Image, error)
}

// Auto returns RSVG when rsvg-convert is installed and OKSVG otherwise.
func Auto() Rasterizer {
	if _, err := exec.LookPath(rsvgBinary); err == nil {
		return RSVG{}
	}
	return OKSVG{}
}

// ByName returns the rasterizer called name: "rsvg", "oksvg" or "auto".
func ByName(name string) (Rasterizer, error) {
	switch name {
	case "", "auto":
		return Auto(), nil
	case "rsvg":
		return RSVG{}, nil
	case "oksvg":
		return OKSVG{}, nil
	}
	return nil, fmt.Errorf("unknown rasterizer %q (must be one of: auto, rsvg, oksvg)", name)
}

const rsvgBinary = "rsvg-convert"

// RSVG shells out to rsvg-convert from librsvg. It renders text and
// markers faithfully.
type RSVG struct{}

func (RSVG) Name() string { return "rsvg" }

func (RSVG) Rasterize(ctx context.Context, svg []byte, width, height int) (image.Image, error) {
	if _, err := exec.LookPath(rsvgBinary); err != nil {
		return nil, fmt.Errorf("PNG export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin")
	}

	cmd := exec.CommandContext(ctx, rsvgBinary, "-f", "png",
		"-w", strconv.Itoa(width), "-h", strconv.Itoa(height))
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, errBuf.String())
	}
	img, err := png.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("decode rsvg output: %w", err)
	}
	return img, nil
}

// OKSVG rasterizes in process with srwiley/oksvg. Text elements are not
// drawn.
type OKSVG struct{}

func (OKSVG) Name() string { return "oksvg" }

func (OKSVG) Rasterize(ctx context.Context, svg []byte, width, height int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)
	return img, nil
}

var (
	_ Rasterizer = RSVG{}
	_ Rasterizer = OKSVG{}
)
