package cachestore

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemStore keeps entries in process memory. Data lives for the lifetime of
// the process; there is no capacity bound, entries only ever go away via
// Purge or restart.
type MemStore struct {
	data *xsync.MapOf[string, Entry]
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		data: xsync.NewMapOf[string, Entry](),
	}
}

func (s *MemStore) Get(ctx context.Context, key string) (*Entry, error) {
	ent, ok := s.data.Load(key)
	if !ok {
		return nil, ErrNotFound
	}
	// return a copy so callers can't mutate the stored entry
	return &ent, nil
}

func (s *MemStore) Put(ctx context.Context, entry *Entry) error {
	s.data.Store(entry.Key, *entry)
	return nil
}

func (s *MemStore) Purge(ctx context.Context, key string) error {
	s.data.Delete(key)
	return nil
}
