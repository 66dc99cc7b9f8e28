package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process cache for single-instance deployments.
type Memory struct {
	cache *gocache.Cache
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an in-process cache that purges expired entries every
// cleanupInterval.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{cache: gocache.New(defaultTTL, cleanupInterval)}
}

// Get decodes a cached value. Values are stored encoded so callers never
// share mutable state through the cache.
func (m *Memory) Get(_ context.Context, key string, dest any) (err error) {
	defer func() { observe("memory", err) }()

	v, found := m.cache.Get(key)
	if !found {
		return ErrMiss
	}
	data, ok := v.([]byte)
	if !ok {
		return ErrMiss
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal cached %s: %w", key, err)
	}
	return nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s for cache: %w", key, err)
	}
	m.cache.Set(key, data, ttl)
	return nil
}

// Purge removes every entry.
func (m *Memory) Purge(context.Context) error {
	m.cache.Flush()
	return nil
}

// Len returns the number of entries, expired ones included until cleanup.
func (m *Memory) Len() int {
	return m.cache.ItemCount()
}
