package engine

import (
	"context"
	"sync"
)

// ConfigRenderer renders with an explicit configuration. It lets many
// sessions share one layout runtime while each keeps its own settings.
type ConfigRenderer interface {
	RenderWith(ctx context.Context, cfg Config, id, source string) (*Document, error)
}

// Scoped is an Engine with its own configuration over a shared renderer.
type Scoped struct {
	r   ConfigRenderer
	mu  sync.RWMutex
	cfg Config
}

// NewScoped returns an engine starting at DefaultConfig.
func NewScoped(r ConfigRenderer) *Scoped {
	return &Scoped{r: r, cfg: DefaultConfig()}
}

func (s *Scoped) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

func (s *Scoped) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Scoped) Render(ctx context.Context, id, source string) (*Document, error) {
	return s.r.RenderWith(ctx, s.Config(), id, source)
}

var _ Engine = (*Scoped)(nil)
