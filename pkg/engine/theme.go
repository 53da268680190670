package engine

import (
	"fmt"
	"strings"
)

// palette holds the colours a theme applies to nodes and edges.
type palette struct {
	nodeFill, nodeBorder, font, edge, cluster string
}

var palettes = map[string]palette{
	ThemeDefault: {nodeFill: "#ECECFF", nodeBorder: "#9370DB", font: "#333333", edge: "#333333", cluster: "#ffffde"},
	ThemeDark:    {nodeFill: "#1f2020", nodeBorder: "#81B1DB", font: "#e0dfdf", edge: "#d3d3d3", cluster: "#333333"},
	ThemeForest:  {nodeFill: "#cde498", nodeBorder: "#13540c", font: "#000000", edge: "#008000", cluster: "#cdffb2"},
	ThemeNeutral: {nodeFill: "#eeeeee", nodeBorder: "#999999", font: "#333333", edge: "#666666", cluster: "#f4f4f4"},
	ThemeBase:    {nodeFill: "#fff4dd", nodeBorder: "#9b7c38", font: "#333333", edge: "#333333", cluster: "#fffaf0"},
}

const defaultFont = "Helvetica"

// themePreamble returns DOT default-attribute statements for cfg.
// Statements placed at the top of a graph body only set defaults, so
// attributes written by the user later in the body still win.
func themePreamble(cfg Config) string {
	p, ok := palettes[cfg.Theme]
	if !ok {
		p = palettes[ThemeDefault]
	}
	font := cfg.FontFamily
	if font == "" {
		font = defaultFont
	}

	graphAttrs := []string{
		`bgcolor="transparent"`,
		fmt.Sprintf("fontname=%q", font),
		fmt.Sprintf("fontcolor=%q", p.font),
		fmt.Sprintf("color=%q", p.nodeBorder),
		fmt.Sprintf("fillcolor=%q", p.cluster),
	}
	if cfg.Layout != "" {
		graphAttrs = append(graphAttrs, fmt.Sprintf("layout=%q", cfg.Layout))
	}
	if cfg.RankDir != "" {
		graphAttrs = append(graphAttrs, fmt.Sprintf("rankdir=%q", cfg.RankDir))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "graph [%s];", strings.Join(graphAttrs, ", "))
	fmt.Fprintf(&b, " node [style=\"rounded,filled\", shape=box, fillcolor=%q, color=%q, fontname=%q, fontcolor=%q];",
		p.nodeFill, p.nodeBorder, font, p.font)
	fmt.Fprintf(&b, " edge [color=%q, fontname=%q, fontcolor=%q];", p.edge, font, p.font)
	return b.String()
}

// applyTheme inserts the theme preamble right after the opening brace of
// the first graph. Source without a graph body is returned unchanged so the
// layout engine reports the syntax error.
func applyTheme(source string, cfg Config) string {
	i := bodyStart(source)
	if i < 0 {
		return source
	}
	return source[:i+1] + " " + themePreamble(cfg) + source[i+1:]
}

// bodyStart returns the index of the first '{' outside of quoted IDs,
// HTML-like labels and comments, or -1.
func bodyStart(src string) int {
	lineStart := true
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\n':
			lineStart = true
			continue
		case c == '#' && lineStart:
			// preprocessor-style line, skipped by Graphviz
			i = skipTo(src, i, "\n") - 1
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			i = skipTo(src, i, "\n") - 1
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return -1
			}
			i += end + 3
		case c == '"':
			i = skipQuoted(src, i)
			if i < 0 {
				return -1
			}
		case c == '<':
			i = skipHTML(src, i)
			if i < 0 {
				return -1
			}
		case c == '{':
			return i
		}
		if c != ' ' && c != '\t' && c != '\r' {
			lineStart = false
		}
	}
	return -1
}

// skipTo returns the index of the next occurrence of sep at or after i, or len(src).
func skipTo(src string, i int, sep string) int {
	j := strings.Index(src[i:], sep)
	if j < 0 {
		return len(src)
	}
	return i + j
}

// skipQuoted returns the index of the closing quote of the string opened at i.
func skipQuoted(src string, i int) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '"':
			return j
		}
	}
	return -1
}

// skipHTML returns the index of the '>' closing the HTML string opened at i.
func skipHTML(src string, i int) int {
	depth := 0
	for j := i; j < len(src); j++ {
		switch src[j] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}
