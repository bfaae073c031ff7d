// Package cachestore is a time-bounded result cache for upstream Xtream API
// calls. Callers hand it a key and a producer; it hands back the cached
// payload while the entry is fresh, and re-runs the producer once the entry is
// older than the TTL. A failed producer never overwrites a stored entry.
package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a cached upstream result is considered fresh.
const DefaultTTL = 24 * time.Hour

// Cache wraps a Store with staleness checks and per-key request coalescing.
type Cache struct {
	store      Store
	ttl        time.Duration
	serveStale bool
	now        func() time.Time

	sf singleflight.Group
}

type Option func(*Cache)

// WithTTL overrides the default freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithServeStale makes Fetch fall back to the previously stored value when
// the producer fails and a stale entry exists. Without it, producer failures
// always propagate to the caller.
func WithServeStale() Option {
	return func(c *Cache) {
		c.serveStale = true
	}
}

func withClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store: store,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Meta describes where a fetched value came from.
type Meta struct {
	FetchedAt time.Time
	ExpiresAt time.Time
	// Stale is set when the value was served past its TTL because the
	// upstream refresh failed.
	Stale bool
}

// FetchOpts adjust a single Fetch call.
type FetchOpts struct {
	// TTL overrides the cache-wide TTL when positive.
	TTL time.Duration
	// ForceRefresh skips the freshness check and always runs the producer.
	ForceRefresh bool
}

// Purge drops the entry for a key, if any.
func (c *Cache) Purge(ctx context.Context, key string) error {
	return c.store.Purge(ctx, key)
}

// Fetch returns the cached value for key, refreshing it through producer when
// the entry is missing or stale. Values round-trip through JSON, so T must be
// JSON-serializable.
func Fetch[T any](ctx context.Context, c *Cache, key string, opts FetchOpts, producer func(context.Context) (T, error)) (T, Meta, error) {
	var zero T
	raw, meta, err := c.fetch(ctx, key, opts, func(ctx context.Context) (json.RawMessage, error) {
		val, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		enc, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", key, err)
		}
		return enc, nil
	})
	if err != nil {
		return zero, meta, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, meta, fmt.Errorf("decoding cached %q: %w", key, err)
	}
	return out, meta, nil
}

func (c *Cache) fetch(ctx context.Context, key string, opts FetchOpts, producer func(context.Context) (json.RawMessage, error)) (json.RawMessage, Meta, error) {
	ttl := c.ttl
	if opts.TTL > 0 {
		ttl = opts.TTL
	}

	var prev *Entry
	ent, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		if !opts.ForceRefresh && !ent.Stale(c.now(), ttl) {
			cacheHits.Inc()
			return ent.Value, c.meta(ent, ttl, false), nil
		}
		prev = ent
	case !errors.Is(err, ErrNotFound):
		return nil, Meta{}, err
	}
	cacheMisses.Inc()

	// Coalesce concurrent refreshes of the same key into one upstream call.
	v, err, _ := c.sf.Do(key, func() (any, error) {
		if !opts.ForceRefresh {
			// another waiter may have refreshed while we queued
			if ent, err := c.store.Get(ctx, key); err == nil && !ent.Stale(c.now(), ttl) {
				return ent, nil
			}
		}
		val, err := producer(ctx)
		if err != nil {
			cacheRefreshErrors.Inc()
			return nil, err
		}
		fresh := &Entry{Key: key, Value: val, FetchedAt: c.now()}
		if err := c.store.Put(ctx, fresh); err != nil {
			return nil, fmt.Errorf("storing %q: %w", key, err)
		}
		cacheRefreshes.Inc()
		return fresh, nil
	})
	if err != nil {
		if c.serveStale && prev != nil {
			cacheStaleServed.Inc()
			return prev.Value, c.meta(prev, ttl, true), nil
		}
		return nil, Meta{}, err
	}

	fresh := v.(*Entry)
	return fresh.Value, c.meta(fresh, ttl, false), nil
}

func (c *Cache) meta(ent *Entry, ttl time.Duration, stale bool) Meta {
	return Meta{
		FetchedAt: ent.FetchedAt,
		ExpiresAt: ent.FetchedAt.Add(ttl),
		Stale:     stale,
	}
}
