package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dotlive/pkg/cache"
	"github.com/matzehuels/dotlive/pkg/observability"
)

// Cached decorates an Engine with a render cache keyed by source and
// configuration. Cache failures are logged and never fail a render.
type Cached struct {
	Engine
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger
}

// cachedDocument is the stored form of a Document. The render ID is not
// part of it; hits are retagged with the caller's ID.
type cachedDocument struct {
	SVG    []byte  `json:"svg"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewCached wraps inner. A nil keyer uses cache.DefaultKeyer.
func NewCached(inner Engine, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{Engine: inner, cache: c, keyer: keyer, ttl: cache.TTLRender, logger: logger}
}

// Render serves from the cache when possible and stores fresh results.
// Failed renders are not cached.
func (e *Cached) Render(ctx context.Context, id, source string) (*Document, error) {
	key := e.keyer.RenderKey(cache.Hash([]byte(source)), e.Config().Hash())

	if data, ok, err := e.cache.Get(ctx, key); err != nil {
		e.logger.Warn("render cache read failed", "err", err)
	} else if ok {
		var cd cachedDocument
		if err := json.Unmarshal(data, &cd); err == nil {
			observability.Cache().OnCacheHit(ctx, cache.KindRender)
			return &Document{
				ID:     id,
				SVG:    withID(cd.SVG, id),
				Width:  cd.Width,
				Height: cd.Height,
				Cached: true,
			}, nil
		}
		e.logger.Debug("discarding corrupt render cache entry", "key", key)
	}
	observability.Cache().OnCacheMiss(ctx, cache.KindRender)

	doc, err := e.Engine.Render(ctx, id, source)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(cachedDocument{SVG: doc.SVG, Width: doc.Width, Height: doc.Height})
	if err == nil {
		if err := e.cache.Set(ctx, key, data, e.ttl); err != nil {
			e.logger.Warn("render cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cache.KindRender, len(data))
		}
	}
	return doc, nil
}

var _ Engine = (*Cached)(nil)
