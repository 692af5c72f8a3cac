package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskboard/internal/model"
)

// KVRepository stores string values by (scope, key).
type KVRepository struct {
	db *gorm.DB
}

func NewKVRepository(db *gorm.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get returns the stored value or an empty string when the key is missing.
func (r *KVRepository) Get(ctx context.Context, scope, key string) (string, error) {
	var entry model.KVEntry
	err := r.db.WithContext(ctx).Where(map[string]interface{}{"scope": scope, "key": key}).First(&entry).Error
	switch {
	case err == nil:
		return entry.Value, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", nil
	default:
		return "", fmt.Errorf("find kv %s/%s: %w", scope, key, err)
	}
}

// Set writes value, replacing any previous one.
func (r *KVRepository) Set(ctx context.Context, scope, key, value string) error {
	entry := model.KVEntry{Scope: scope, Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save kv %s/%s: %w", scope, key, err)
	}
	return nil
}

// Scope binds the repository to one scope.
func (r *KVRepository) Scope(scope string) *ScopedKV {
	return &ScopedKV{repo: r, scope: scope}
}

// ScopedKV is a KVRepository view limited to one scope.
type ScopedKV struct {
	repo  *KVRepository
	scope string
}

func (s *ScopedKV) Get(ctx context.Context, key string) (string, error) {
	return s.repo.Get(ctx, s.scope, key)
}

func (s *ScopedKV) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, s.scope, key, value)
}
