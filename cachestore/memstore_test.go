package cachestore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	fetched := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Put(ctx, &Entry{Key: "a", Value: json.RawMessage(`{"x":1}`), FetchedAt: fetched}))

	ent, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", ent.Key)
	assert.JSONEq(t, `{"x":1}`, string(ent.Value))
	assert.Equal(t, fetched, ent.FetchedAt)
}

func TestMemStoreOverwriteReplacesWholeEntry(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	t1 := time.Now().Add(-time.Hour)
	t2 := time.Now()
	require.NoError(t, s.Put(ctx, &Entry{Key: "a", Value: json.RawMessage(`"old"`), FetchedAt: t1}))
	require.NoError(t, s.Put(ctx, &Entry{Key: "a", Value: json.RawMessage(`"new"`), FetchedAt: t2}))

	ent, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.JSONEq(t, `"new"`, string(ent.Value))
	assert.Equal(t, t2, ent.FetchedAt)
}

func TestMemStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	require.NoError(t, s.Put(ctx, &Entry{Key: "a", Value: json.RawMessage(`"v"`), FetchedAt: time.Now()}))

	ent, err := s.Get(ctx, "a")
	require.NoError(t, err)
	ent.Key = "mutated"

	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Key)
}

func TestMemStorePurge(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	require.NoError(t, s.Put(ctx, &Entry{Key: "a", Value: json.RawMessage(`1`), FetchedAt: time.Now()}))
	require.NoError(t, s.Purge(ctx, "a"))

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	// purging an absent key is not an error
	assert.NoError(t, s.Purge(ctx, "b"))
}
