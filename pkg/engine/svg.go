package engine

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
)

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="(-?[0-9.]+)[\s,]+(-?[0-9.]+)[\s,]+([0-9.]+)[\s,]+([0-9.]+)"`)
	rootIDRe  = regexp.MustCompile(`^<svg id="[^"]*"`)
)

// normalizeSVG drops everything before the root element (XML prolog,
// doctype, generator comments) and rewrites the root tag with an explicit
// viewBox and pixel size. It returns the intrinsic width and height.
func normalizeSVG(svg []byte) ([]byte, float64, float64) {
	if i := bytes.Index(svg, []byte("<svg")); i > 0 {
		svg = svg[i:]
	}

	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg, 0, 0
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg, 0, 0
	}

	root := fmt.Sprintf(`<svg id="" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	loc := svgTagRe.FindIndex(svg)
	if loc == nil {
		return svg, w, h
	}
	out := make([]byte, 0, len(svg)+len(root))
	out = append(out, svg[:loc[0]]...)
	out = append(out, root...)
	out = append(out, svg[loc[1]:]...)
	return out, w, h
}

// withID sets the id attribute of a normalized root element.
func withID(svg []byte, id string) []byte {
	if !rootIDRe.Match(svg) {
		return svg
	}
	return rootIDRe.ReplaceAllLiteral(svg, []byte(fmt.Sprintf(`<svg id="%s"`, id)))
}
