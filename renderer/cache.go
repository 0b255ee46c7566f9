package renderer

import (
	"context"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached memoizes successful renders by source text. Failures are not cached.
type Cached struct {
	next  Engine
	cache *lru.Cache[string, string]
}

func NewCached(next Engine, size int) (*Cached, error) {
	if next == nil {
		return nil, errors.New("renderer engine required")
	}
	if size <= 0 {
		size = 64
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Render(ctx context.Context, source string) (string, error) {
	if svg, ok := c.cache.Get(source); ok {
		return svg, nil
	}
	svg, err := c.next.Render(ctx, source)
	if err != nil {
		return "", err
	}
	c.cache.Add(source, svg)
	return svg, nil
}

// Rasterize delegates to the wrapped engine when it supports PNG output.
func (c *Cached) Rasterize(ctx context.Context, source string) ([]byte, error) {
	r, ok := c.next.(Rasterizer)
	if !ok {
		return nil, errors.New("renderer does not support raster export")
	}
	return r.Rasterize(ctx, source)
}
