package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskflow/internal/model"
)

// EntryRepository is a string key-value store on top of SQLite.
type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Put inserts or replaces the value stored under key.
func (r *EntryRepository) Put(ctx context.Context, key, value string) error {
	entry := model.Entry{Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("put entry %q: %w", key, err)
	}
	return nil
}

// Get returns the value under key and whether it exists.
func (r *EntryRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var entry model.Entry
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	switch {
	case err == nil:
		return entry.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("get entry %q: %w", key, err)
	}
}

// Collection binds an EntryRepository to the single key that holds the
// serialized task collection.
type Collection struct {
	repo *EntryRepository
	key  string
}

func NewCollection(repo *EntryRepository, key string) *Collection {
	return &Collection{repo: repo, key: key}
}

func (c *Collection) Save(ctx context.Context, data string) error {
	return c.repo.Put(ctx, c.key, data)
}

func (c *Collection) Load(ctx context.Context) (string, bool, error) {
	return c.repo.Get(ctx, c.key)
}
