// Package pkg provides the core libraries of dotlive, a live editor for
// Graphviz diagrams.
//
// # Overview
//
// dotlive re-renders DOT source shortly after the user stops typing, shows
// the result next to the text, and turns it into PNG exports and share
// links. The pkg directory is organized into three areas:
//
//  1. Rendering - [engine], [render], [transform]
//  2. Output - [export], [sharelink]
//  3. Infrastructure - [session], [cache], [errors], [observability], [httputil], [buildinfo]
//
// # Architecture
//
// The data flow of one editor session:
//
//	keystrokes
//	     ↓
//	[session] Controller (Code / Config buffers, background, view)
//	     ↓
//	[render] Pipeline (300ms debounce, fresh render ID, drop superseded results)
//	     ↓
//	[engine] Engine (theme injection, Graphviz layout, SVG sanitizing)
//	     ↓
//	Display ──→ [export] PNG at 2x   ──→ Downloader
//	        └─→ [sharelink] ?code=… ──→ Clipboard
//
// # Quick Start
//
//	gv, _ := engine.NewGraphviz(ctx)
//	defer gv.Close()
//
//	sess, _ := session.New(ctx, session.Options{Engine: gv})
//	defer sess.Close()
//
//	sess.Load(nil)                        // renders the sample diagram
//	sess.EditSource("digraph { a -> b }") // renders 300ms later
//	link, _ := sess.Share(ctx)
//
// # Main Packages
//
// [engine] - The [engine.Engine] interface, the Graphviz implementation, a
// cache decorator and per-session configuration scoping.
//
// [render] - Debounced pipeline with render IDs, cancellation of stale
// attempts and the [render.Display] seam.
//
// [transform] - Display-only zoom and pan state with saturating bounds.
//
// [export] - SVG intrinsic size, data URIs, rasterization with rsvg-convert
// or oksvg, compositing over a background colour with fogleman/gg.
//
// [sharelink] - Base64 share tokens in the "code" query parameter and
// clipboard access.
//
// [session] - The editor session controller tying all of the above together.
//
// [cache] - Memory, file and Redis caches for rendered documents and exports.
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test -short ./pkg/...   # Skip tests that start the Graphviz runtime
//
// [engine]: https://pkg.go.dev/github.com/matzehuels/dotlive/pkg/engine
// [render]: https://pkg.go.dev/github.com/matzehuels/dotlive/pkg/render
// [transform]: https://pkg.go.dev/github.com/matzehuels/dotlive/pkg/transform
// [export]: https://pkg.go.dev/github.com/matzehuels/dotlive/pkg/export
// [sharelink]: https://pkg.go.dev/github.com/matzehuels/dotlive/pkg/sharelink
// [session]: https://pkg.go.dev/github.com/matzehuels/dotlive/pkg/session
// [cache]: https://pkg.go.dev/github.com/matzehuels/dotlive/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/dotlive/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/dotlive/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/matzehuels/dotlive/pkg/httputil
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/dotlive/pkg/buildinfo
package pkg
