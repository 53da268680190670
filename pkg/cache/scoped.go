package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments or
// engine versions can share one Redis without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "dotlive:v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RenderKey generates a prefixed render key.
func (k *ScopedKeyer) RenderKey(sourceHash, configHash string) string {
	return k.prefix + k.inner.RenderKey(sourceHash, configHash)
}

// ExportKey generates a prefixed export key.
func (k *ScopedKeyer) ExportKey(documentHash string, opts ExportKeyOpts) string {
	return k.prefix + k.inner.ExportKey(documentHash, opts)
}
