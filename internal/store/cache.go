package store

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// Cached is a read-through ARC cache in front of another Settings backend.
type Cached struct {
	next  Settings
	cache *lru.ARCCache
}

var _ Settings = (*Cached)(nil)

// NewCached wraps next with a cache holding up to size keys.
func NewCached(next Settings, size int) (*Cached, error) {
	c, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("lru new instance of lru arc cache: %w", err)
	}
	return &Cached{next: next, cache: c}, nil
}

// Save writes through to the backend and refreshes the cached copy.
func (c *Cached) Save(ctx context.Context, key string, blob []byte) error {
	if err := c.next.Save(ctx, key, blob); err != nil {
		c.cache.Remove(key)
		return err
	}
	c.cache.Add(key, clone(blob))
	return nil
}

// Load serves from the cache and falls back to the backend.
func (c *Cached) Load(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.cache.Get(key); ok {
		return clone(v.([]byte)), nil
	}
	blob, err := c.next.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.cache.Remove(key)
		}
		return nil, err
	}
	c.cache.Add(key, clone(blob))
	return blob, nil
}

// Clear removes key from the backend and the cache.
func (c *Cached) Clear(ctx context.Context, key string) error {
	c.cache.Remove(key)
	return c.next.Clear(ctx, key)
}

// Close closes the backend.
func (c *Cached) Close() error {
	c.cache.Purge()
	return c.next.Close()
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
