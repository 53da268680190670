// Package transform holds the display-only pan/zoom state of a diagram view.
//
// The transform is applied over rendered output and never touches the vector
// document itself, so it survives re-renders unchanged. Zoom saturates at
// [MinZoom, MaxZoom] in steps of [ZoomStep]. Panning tracks the primary
// pointer 1:1 between press and release; leaving the surface releases it.
//
//	var s transform.State = transform.Default()
//	s.ZoomIn()
//	s.PointerDown(transform.ButtonPrimary, transform.Point{X: 10, Y: 10})
//	s.PointerMove(transform.Point{X: 30, Y: 25})
//	s.PointerUp()
//	css := s.CSS() // "translate(20px, 15px) scale(1.1)"
package transform

import (
	"fmt"
	"math"
	"strconv"
)

// Zoom bounds and step.
const (
	MinZoom     = 0.5
	MaxZoom     = 2.0
	ZoomStep    = 0.1
	DefaultZoom = 1.0
)

// Transition values for the CSS transition property.
const (
	TransitionAnimated = "transform 0.2s ease-out"
	TransitionNone     = "none"
)

// Button identifies a pointer button, numbered like DOM MouseEvent.button.
type Button int

// Pointer buttons.
const (
	ButtonPrimary   Button = 0
	ButtonAuxiliary Button = 1
	ButtonSecondary Button = 2
)

// Point is a position in surface pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// State is the zoom level and pan offset of one view.
// The zero value is not the default view; use Default.
type State struct {
	Zoom float64 `json:"zoom"`
	Pan  Point   `json:"pan"`

	panning bool
	// anchor is press position minus the pan offset at press time.
	anchor Point
}

// Default returns zoom 1 and no offset.
func Default() State {
	return State{Zoom: DefaultZoom}
}

// Reset restores the default view and ends any drag.
func (s *State) Reset() {
	*s = Default()
}

// ZoomIn raises the zoom by one step, saturating at MaxZoom.
func (s *State) ZoomIn() {
	s.setZoom(s.Zoom + ZoomStep)
}

// ZoomOut lowers the zoom by one step, saturating at MinZoom.
func (s *State) ZoomOut() {
	s.setZoom(s.Zoom - ZoomStep)
}

// SetZoom sets an arbitrary zoom, clamped to the allowed range.
func (s *State) SetZoom(z float64) {
	s.setZoom(z)
}

func (s *State) setZoom(z float64) {
	if math.IsNaN(z) {
		return
	}
	// one decimal keeps repeated 0.1 steps from drifting past the bounds
	z = math.Round(z*10) / 10
	s.Zoom = Clamp(z)
}

// Clamp limits z to [MinZoom, MaxZoom].
func Clamp(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// PointerDown starts a drag at p. Only the primary button pans.
func (s *State) PointerDown(b Button, p Point) {
	if b != ButtonPrimary {
		return
	}
	s.panning = true
	s.anchor = p.Sub(s.Pan)
}

// PointerMove updates the offset while a drag is active and is ignored otherwise.
func (s *State) PointerMove(p Point) {
	if !s.panning {
		return
	}
	s.Pan = p.Sub(s.anchor)
}

// PointerUp ends the drag.
func (s *State) PointerUp() {
	s.panning = false
}

// PointerLeave ends the drag exactly like PointerUp.
func (s *State) PointerLeave() {
	s.PointerUp()
}

// Panning reports whether a drag is active.
func (s State) Panning() bool {
	return s.panning
}

// Nudge shifts the offset by (dx, dy), for keyboard panning.
func (s *State) Nudge(dx, dy float64) {
	s.Pan.X += dx
	s.Pan.Y += dy
}

// Transition returns the CSS transition for the current interaction:
// animated for zoom controls, none while dragging.
func (s State) Transition() string {
	if s.panning {
		return TransitionNone
	}
	return TransitionAnimated
}

// CSS returns the transform as a CSS transform value.
func (s State) CSS() string {
	return fmt.Sprintf("translate(%spx, %spx) scale(%s)", num(s.Pan.X), num(s.Pan.Y), num(s.Zoom))
}

// Percent returns the zoom as a whole percentage, e.g. 110.
func (s State) Percent() int {
	return int(math.Round(s.Zoom * 100))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
