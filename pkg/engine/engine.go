// Package engine turns diagram source into SVG documents.
//
// [Engine] is the seam between the editor and the layout library: it holds
// one applied [Config] and renders source text under a caller-chosen render
// ID. The production implementation is [Graphviz], which renders DOT through
// goccy/go-graphviz; [Cached] decorates any engine with a [cache.Cache].
//
// Malformed source yields an error coded [errors.ErrCodeSyntax]; an invalid
// configuration is rejected by [Engine.SetConfig] without touching the
// configuration already applied.
//
//	eng, err := engine.NewGraphviz(ctx)
//	doc, err := eng.Render(ctx, "diagram-1", "digraph { a -> b }")
//	os.WriteFile("out.svg", doc.SVG, 0o644)
//
// [cache.Cache]: github.com/matzehuels/dotlive/pkg/cache
package engine

import (
	"context"

	"github.com/matzehuels/dotlive/pkg/errors"
)

// Engine renders diagram source under an applied configuration.
// Implementations must be safe for concurrent use.
type Engine interface {
	// SetConfig validates and applies cfg. On error the previous
	// configuration stays in effect.
	SetConfig(cfg Config) error

	// Config returns the applied configuration.
	Config() Config

	// Render lays out source and returns an SVG document whose root
	// element carries id. Malformed source returns a syntax error.
	Render(ctx context.Context, id, source string) (*Document, error)
}

// Document is a rendered vector diagram.
type Document struct {
	// ID is the unique render-target identifier, also set on the root <svg>.
	ID string
	// SVG is the serialized document, starting at the <svg> element.
	SVG []byte
	// Width and Height are the intrinsic size from the view box.
	Width, Height float64
	// Cached reports whether the document came from a cache.
	Cached bool
}

// IsSyntax reports whether err is a diagram syntax error.
func IsSyntax(err error) bool {
	return errors.Is(err, errors.ErrCodeSyntax)
}

func syntaxError(cause error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeSyntax, cause, format, args...)
}
