// Package export turns a rendered vector diagram into a PNG download.
//
// [Exporter.Export] reads the document's intrinsic size, embeds it in an SVG
// data URI, loads it back, rasterizes it at twice that size, paints it over
// the background colour on a fogleman/gg surface and encodes the result as
// PNG. The output is always named "diagram.png".
//
//	x := export.New(export.Options{})
//	res, err := x.Export(ctx, doc.SVG, export.White)
//	err = export.FileDownloader{Dir: "."}.Download(ctx, res.Filename, res.DataURI())
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"

	"github.com/matzehuels/dotlive/pkg/cache"
	"github.com/matzehuels/dotlive/pkg/errors"
	"github.com/matzehuels/dotlive/pkg/observability"
)

// Filename is the name every export is downloaded under.
const Filename = "diagram.png"

// DefaultScale is the pixel density of exports.
const DefaultScale = 2.0

// maxPixels bounds the raster surface.
const maxPixels = 64 << 20

// Result is an encoded export.
type Result struct {
	PNG      []byte
	Width    int
	Height   int
	Filename string
}

// DataURI returns the PNG as a data URI.
func (r *Result) DataURI() string {
	return DataURI(MediaPNG, r.PNG)
}

// Options configures an Exporter.
type Options struct {
	Rasterizer Rasterizer
	Scale      float64
	Cache      cache.Cache
	Keyer      cache.Keyer
	Logger     *log.Logger
}

// SetDefaults fills unset options.
func (o *Options) SetDefaults() {
	if o.Rasterizer == nil {
		o.Rasterizer = Auto()
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// Exporter rasterizes vector documents. It is safe for concurrent use.
type Exporter struct {
	opts Options
}

// New returns an exporter.
func New(opts Options) *Exporter {
	opts.SetDefaults()
	return &Exporter{opts: opts}
}

// Rasterizer returns the rasterizer in use.
func (x *Exporter) Rasterizer() Rasterizer { return x.opts.Rasterizer }

// Export converts svg to a PNG over bg. An empty document fails with
// NO_DIAGRAM; anything that cannot be drawn fails with EXPORT_FAILED and
// produces no output.
func (x *Exporter) Export(ctx context.Context, svg []byte, bg Color) (res *Result, err error) {
	start := time.Now()
	defer func() {
		w, h := 0, 0
		if res != nil {
			w, h = res.Width, res.Height
		}
		observability.Export().OnExportComplete(ctx, w, h, time.Since(start), err)
	}()

	if len(bytes.TrimSpace(svg)) == 0 {
		return nil, errors.New(errors.ErrCodeNoDiagram, "no diagram to export")
	}

	key := x.opts.Keyer.ExportKey(cache.Hash(svg), cache.ExportKeyOpts{Background: bg.String(), Scale: x.opts.Scale})
	if res := x.cached(ctx, key); res != nil {
		return res, nil
	}

	w, h, err := Dimensions(svg)
	if err != nil {
		return nil, err
	}
	// checked in float64 so oversized documents cannot overflow int
	fw, fh := math.Ceil(w*x.opts.Scale), math.Ceil(h*x.opts.Scale)
	if !positive(fw) || !positive(fh) || fw*fh > maxPixels {
		return nil, errors.New(errors.ErrCodeExportFailed, "diagram too large to export (%gx%g)", fw, fh)
	}
	pw, ph := int(fw), int(fh)

	// round-trip through the data URI so that what is drawn is exactly
	// what a browser would load
	_, loaded, err := ParseDataURI(SVGDataURI(svg))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "load diagram")
	}

	img, err := x.opts.Rasterizer.Rasterize(ctx, loaded, pw, ph)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "rasterize with %s", x.opts.Rasterizer.Name())
	}

	data, err := composite(img, pw, ph, bg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "encode PNG")
	}

	res = &Result{PNG: data, Width: pw, Height: ph, Filename: Filename}
	x.store(ctx, key, res)
	x.opts.Logger.Debug("exported", "width", pw, "height", ph, "bytes", len(data), "rasterizer", x.opts.Rasterizer.Name())
	return res, nil
}

// composite paints img over bg on a w x h surface.
func composite(img image.Image, w, h int, bg Color) ([]byte, error) {
	dc := gg.NewContext(w, h)
	dc.SetColor(bg)
	dc.Clear()

	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		dc.Scale(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	}
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type cachedExport struct {
	PNG    []byte `json:"png"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (x *Exporter) cached(ctx context.Context, key string) *Result {
	data, ok, err := x.opts.Cache.Get(ctx, key)
	if err != nil {
		x.opts.Logger.Warn("export cache read failed", "err", err)
		return nil
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, cache.KindExport)
		return nil
	}
	var ce cachedExport
	if err := json.Unmarshal(data, &ce); err != nil {
		return nil
	}
	observability.Cache().OnCacheHit(ctx, cache.KindExport)
	return &Result{PNG: ce.PNG, Width: ce.Width, Height: ce.Height, Filename: Filename}
}

func (x *Exporter) store(ctx context.Context, key string, res *Result) {
	data, err := json.Marshal(cachedExport{PNG: res.PNG, Width: res.Width, Height: res.Height})
	if err != nil {
		return
	}
	if err := x.opts.Cache.Set(ctx, key, data, cache.TTLExport); err != nil {
		x.opts.Logger.Warn("export cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cache.KindExport, len(data))
}
