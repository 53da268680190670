// Package render runs the debounced render pipeline of an editor session.
//
// # Overview
//
// A [Pipeline] sits between the text being edited and a [Display]. Edits go
// through [Pipeline.Schedule], which restarts a 300ms quiet-period timer; only
// the source seen last when the timer fires is rendered. Configuration changes
// use [Pipeline.RenderNow] to skip the timer.
//
// Every attempt gets a fresh render ID ("diagram-" plus a UUID), clears the
// display, and cancels the attempt still in flight. When an attempt finishes
// after a newer one has started its result is dropped, so completions that
// arrive out of order never overwrite a newer diagram.
//
// # Errors
//
// Engine failures never escape the pipeline. They are logged and shown in
// place of the diagram as [ErrorPlaceholder]; the next edit renders again.
//
//	p := render.New(ctx, eng, render.Options{Display: render.NewMemoryDisplay()})
//	defer p.Close()
//	p.Schedule("digraph { a -> b }")
package render
