// Package cache stores derived render artifacts.
//
// Only outputs that can be recomputed from their inputs are cached: SVG
// documents keyed by the hash of source text plus applied configuration, and
// PNG exports keyed by the hash of the SVG plus the background colour. Editor
// state itself is never written here.
//
// Four backends implement [Cache]:
//   - [NullCache]: caching disabled
//   - [MemoryCache]: process-local, for a single live server
//   - [FileCache]: JSON entry files under the user cache directory (CLI),
//     tagged with their artifact kind so they can be counted and pruned
//   - [RedisCache]: shared cache for several live-server instances
package cache

import (
	"context"
	"strings"
	"time"
)

// Default time-to-live values per artifact kind.
const (
	TTLRender = 7 * 24 * time.Hour
	TTLExport = 24 * time.Hour
)

// Artifact kinds, the segment before the hash in every key.
const (
	KindRender  = "render"
	KindExport  = "export"
	KindUnknown = "unknown"
)

// KindOf returns the artifact kind of a key produced by a Keyer, ignoring
// any scope prefix: "dotlive:v1:render:ab12" is a render key.
func KindOf(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return KindUnknown
	}
	switch k := parts[len(parts)-2]; k {
	case KindRender, KindExport:
		return k
	}
	return KindUnknown
}

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys for render artifacts.
type Keyer interface {
	// RenderKey keys an SVG document by its source and configuration hashes.
	RenderKey(sourceHash, configHash string) string

	// ExportKey keys a PNG export by its SVG hash, background and scale.
	ExportKey(documentHash string, opts ExportKeyOpts) string
}

// ExportKeyOpts holds the export parameters that change the PNG bytes.
type ExportKeyOpts struct {
	Background string  `json:"background"`
	Scale      float64 `json:"scale"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// RenderKey returns "render:<hash>".
func (DefaultKeyer) RenderKey(sourceHash, configHash string) string {
	return hashKey(KindRender, sourceHash, configHash)
}

// ExportKey returns "export:<hash>".
func (DefaultKeyer) ExportKey(documentHash string, opts ExportKeyOpts) string {
	return hashKey(KindExport, documentHash, opts)
}
