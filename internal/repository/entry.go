package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// entryModel maps to the kv_entries table. One row per storage key.
type entryModel struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:255"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (entryModel) TableName() string {
	return "kv_entries"
}

// EntryRepo reads and writes single-slot string entries.
type EntryRepo struct {
	db *gorm.DB
}

// NewEntryRepo returns an EntryRepo.
func NewEntryRepo(db *gorm.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

// Get returns the value stored under key. ok is false when there is none.
func (r *EntryRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var model entryModel
	err := r.db.WithContext(ctx).Where("entry_key = ?", key).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get entry %q: %w", key, err)
	}
	return model.Value, true, nil
}

// Set overwrites the value under key.
func (r *EntryRepo) Set(ctx context.Context, key, value string) error {
	model := entryModel{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to set entry %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *EntryRepo) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&entryModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete entry %q: %w", key, err)
	}
	return nil
}
