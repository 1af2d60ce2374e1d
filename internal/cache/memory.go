// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCacheOptions configures the memory cache.
type MemoryCacheOptions struct {
	DefaultTTL      time.Duration
	MaxSize         int           // entry cap, 0 = unlimited
	CleanupInterval time.Duration // 0 disables the background sweep
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache keeps entries in a map guarded by a mutex. Expired entries
// are dropped on access and by an optional periodic sweep.
type MemoryCache struct {
	counters

	mu      sync.Mutex
	entries map[string]memoryEntry
	bytes   int64
	closed  bool

	opts MemoryCacheOptions
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// NewMemoryCache creates a memory cache and starts its sweep when
// opts.CleanupInterval is set.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		opts:    opts,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if opts.CleanupInterval > 0 {
		go c.sweepEvery(opts.CleanupInterval)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrCacheClosed
	}

	e, ok := c.entries[key]
	if ok && !c.now().Before(e.expiresAt) {
		c.removeLocked(key)
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	c.hits.Add(1)
	return append([]byte(nil), e.value...), nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	if ttl <= 0 {
		ttl = c.opts.DefaultTTL
	}

	now := c.now()
	if _, exists := c.entries[key]; !exists && c.opts.MaxSize > 0 && len(c.entries) >= c.opts.MaxSize {
		c.sweepLocked(now)
		if len(c.entries) >= c.opts.MaxSize {
			c.removeLocked(c.soonestLocked())
		}
	}

	c.removeLocked(key)
	c.entries[key] = memoryEntry{value: append([]byte(nil), value...), expiresAt: now.Add(ttl)}
	c.bytes += int64(len(value))
	c.sets.Add(1)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	c.removeLocked(key)
	return nil
}

func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.removeLocked(key)
		}
	}
	return nil
}

// Close stops the sweep. Further calls return ErrCacheClosed.
func (c *MemoryCache) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		clear(c.entries)
		c.bytes = 0
		c.mu.Unlock()
		close(c.stop)
	})
	return nil
}

func (c *MemoryCache) Stats() Stats {
	s := c.snapshot()
	c.mu.Lock()
	s.Items = len(c.entries)
	s.Size = c.bytes
	c.mu.Unlock()
	return s
}

func (c *MemoryCache) removeLocked(key string) {
	if e, ok := c.entries[key]; ok {
		c.bytes -= int64(len(e.value))
		delete(c.entries, key)
	}
}

func (c *MemoryCache) sweepLocked(now time.Time) {
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			c.removeLocked(key)
		}
	}
}

// soonestLocked returns the key closest to expiry.
func (c *MemoryCache) soonestLocked() string {
	var (
		victim string
		at     time.Time
	)
	for key, e := range c.entries {
		if victim == "" || e.expiresAt.Before(at) {
			victim, at = key, e.expiresAt
		}
	}
	return victim
}

func (c *MemoryCache) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.sweepLocked(c.now())
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

var (
	_ Cache         = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)
