package cachestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cachedResult struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     []byte
	FetchedAt time.Time
}

func (cachedResult) TableName() string {
	return "cached_results"
}

// GormStore persists entries to a database, so a restart doesn't force a
// re-poll of the upstream for every key.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&cachedResult{}); err != nil {
		return nil, fmt.Errorf("migrating cache table: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, key string) (*Entry, error) {
	var row cachedResult
	if err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Entry{
		Key:       row.Key,
		Value:     row.Value,
		FetchedAt: row.FetchedAt,
	}, nil
}

func (s *GormStore) Put(ctx context.Context, entry *Entry) error {
	row := cachedResult{
		Key:       entry.Key,
		Value:     entry.Value,
		FetchedAt: entry.FetchedAt,
	}
	// single-row upsert; the replacement is atomic at the row level
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (s *GormStore) Purge(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&cachedResult{}, "key = ?", key).Error
}
