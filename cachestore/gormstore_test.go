package cachestore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	s, err := NewGormStore(db)
	require.NoError(t, err)
	return s
}

func TestGormStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := testGormStore(t)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	fetched := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Put(ctx, &Entry{Key: "live_categories", Value: json.RawMessage(`[{"category_id":"1"}]`), FetchedAt: fetched}))

	ent, err := s.Get(ctx, "live_categories")
	require.NoError(t, err)
	assert.Equal(t, "live_categories", ent.Key)
	assert.JSONEq(t, `[{"category_id":"1"}]`, string(ent.Value))
	assert.WithinDuration(t, fetched, ent.FetchedAt, time.Second)
}

func TestGormStoreUpsert(t *testing.T) {
	ctx := context.Background()
	s := testGormStore(t)

	require.NoError(t, s.Put(ctx, &Entry{Key: "k", Value: json.RawMessage(`"old"`), FetchedAt: time.Now().Add(-25 * time.Hour)}))
	require.NoError(t, s.Put(ctx, &Entry{Key: "k", Value: json.RawMessage(`"new"`), FetchedAt: time.Now()}))

	ent, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `"new"`, string(ent.Value))
	assert.WithinDuration(t, time.Now(), ent.FetchedAt, time.Minute)
}

func TestGormStorePurge(t *testing.T) {
	ctx := context.Background()
	s := testGormStore(t)

	require.NoError(t, s.Put(ctx, &Entry{Key: "k", Value: json.RawMessage(`1`), FetchedAt: time.Now()}))
	require.NoError(t, s.Purge(ctx, "k"))

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Purge(ctx, "never-existed"))
}

func TestCacheWithGormStore(t *testing.T) {
	ctx := context.Background()
	c := New(testGormStore(t))

	var calls int
	producer := func(ctx context.Context) ([]int, error) {
		calls++
		return []int{1, 2, 3}, nil
	}

	first, _, err := Fetch(ctx, c, "k", FetchOpts{}, producer)
	require.NoError(t, err)
	second, _, err := Fetch(ctx, c, "k", FetchOpts{}, producer)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}
