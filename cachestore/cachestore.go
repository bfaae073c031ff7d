package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when no entry exists for a key.
var ErrNotFound = errors.New("cachestore: entry not found")

// Entry is a single cached upstream result. Value holds the JSON-encoded
// payload as it came back from the producer; FetchedAt drives staleness.
type Entry struct {
	Key       string
	Value     json.RawMessage
	FetchedAt time.Time
}

// Stale reports whether the entry was fetched more than ttl ago.
func (e *Entry) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) > ttl
}

// Store persists cache entries. Put replaces the whole entry for a key
// atomically; readers never observe a half-written entry.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, entry *Entry) error
	Purge(ctx context.Context, key string) error
}
