// Package session implements the editor session controller.
//
// A [Controller] owns everything one open editor has: the diagram source,
// the configuration text, which of the two is bound to the editing widget,
// the pan/zoom view and the export background colour. It wires edits to a
// [render.Pipeline] and serves the share and export actions.
//
// # Tabs
//
// The editing widget shows one buffer at a time. [TabCode] binds the source
// (language "markdown"), [TabConfig] binds the configuration JSON (language
// "json"). Switching tabs changes nothing else.
//
// # Edits
//
// Source edits feed the pipeline's debounce timer. Configuration edits are
// parsed and applied to the engine at once and followed by an immediate
// render; text that does not parse is kept in the buffer but the engine keeps
// its last valid configuration.
//
// # Errors
//
// No failure escapes as a panic. Render failures are shown by the display,
// configuration failures are logged and returned, a bad share token falls back
// to [DefaultSource], and share or export failures produce an error toast.
//
//	c, err := session.New(ctx, session.Options{Engine: eng})
//	c.Load(r.URL.Query())
//	c.EditSource("digraph { a -> b }")
//	link, err := c.Share(ctx)
package session

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateID creates a cryptographically secure random session ID.
func GenerateID() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DefaultSource is the sample diagram a new session starts with.
const DefaultSource = `digraph Purchase {
    rankdir=LR
    User   [label="iOS App"]
    SK     [label="StoreKit"]
    Worker [label="CF Worker"]

    User -> SK     [label="purchase"]
    SK -> User     [label="transaction"]
    User -> Worker [label="verify receipt"]
}
`
