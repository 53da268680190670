package render

import "time"

// ErrorPlaceholder is shown in place of a diagram that failed to render.
const ErrorPlaceholder = `<div class="diagram-error">Failed to render diagram</div>`

// Result is the outcome of one render attempt.
type Result struct {
	ID       string
	Seq      uint64
	Source   string
	SVG      []byte
	Width    float64
	Height   float64
	Err      error
	Duration time.Duration
	Cached   bool
}

// OK reports whether the attempt produced a document.
func (r *Result) OK() bool {
	return r != nil && r.Err == nil && len(r.SVG) > 0
}

// Content returns what a display shows for the result: the SVG document or
// the error placeholder.
func (r *Result) Content() []byte {
	if r.OK() {
		return r.SVG
	}
	return []byte(ErrorPlaceholder)
}
