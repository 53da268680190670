package export

import (
	"bytes"
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/dotlive/pkg/errors"
)

// units converts SVG length units to CSS pixels.
var units = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96.0 / 72.0,
	"pc": 16,
	"in": 96,
	"cm": 96 / 2.54,
	"mm": 96 / 25.4,
}

// Dimensions returns the intrinsic size of an SVG document from the root
// element's viewBox, falling back to its width and height attributes.
func Dimensions(svg []byte) (width, height float64, err error) {
	root, err := rootElement(svg)
	if err != nil {
		return 0, 0, err
	}

	var vb, ws, hs string
	for _, a := range root.Attr {
		switch a.Name.Local {
		case "viewBox":
			vb = a.Value
		case "width":
			ws = a.Value
		case "height":
			hs = a.Value
		}
	}

	if w, h, ok := parseViewBox(vb); ok {
		return w, h, nil
	}
	w, okW := parseLength(ws)
	h, okH := parseLength(hs)
	if okW && okH {
		return w, h, nil
	}
	return 0, 0, errors.New(errors.ErrCodeExportFailed, "diagram has no usable size")
}

func rootElement(svg []byte) (xml.StartElement, error) {
	dec := xml.NewDecoder(bytes.NewReader(svg))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, errors.New(errors.ErrCodeExportFailed, "no <svg> element in document")
		}
		if err != nil {
			return xml.StartElement{}, errors.Wrap(errors.ErrCodeExportFailed, err, "malformed vector document")
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != "svg" {
				return xml.StartElement{}, errors.New(errors.ErrCodeExportFailed, "root element is <%s>, not <svg>", se.Name.Local)
			}
			return se, nil
		}
	}
}

func parseViewBox(s string) (w, h float64, ok bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return 0, 0, false
	}
	w, errW := strconv.ParseFloat(fields[2], 64)
	h, errH := strconv.ParseFloat(fields[3], 64)
	if errW != nil || errH != nil || !positive(w) || !positive(h) {
		return 0, 0, false
	}
	return w, h, true
}

// positive reports whether v is a finite length above zero.
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	i := len(s)
	for i > 0 && (s[i-1] < '0' || s[i-1] > '9') && s[i-1] != '.' {
		i--
	}
	factor, ok := units[strings.ToLower(s[i:])]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil || !positive(v) || !positive(v*factor) {
		return 0, false
	}
	return v * factor, true
}
