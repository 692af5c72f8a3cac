package category

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"taskboard/internal/model"
)

// StorageKey is the fixed key the category list is stored under.
const StorageKey = "categories"

// Uncategorized is the label shown for tasks without a resolvable category.
const Uncategorized = "Без категории"

// KV is a string key-value store scoped to one session.
// Get returns an empty string for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Registry keeps the list of categories of one session.
type Registry struct {
	mu sync.Mutex
	kv KV
}

func NewRegistry(kv KV) *Registry {
	return &Registry{kv: kv}
}

// Add appends a category. Names are not de-duplicated; blank names are ignored.
func (r *Registry) Add(ctx context.Context, name string) (model.Category, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	categories, err := r.load(ctx)
	if err != nil {
		return model.Category{}, false, err
	}
	cat := model.NewCategory(name)
	categories = append(categories, cat)

	raw, err := json.Marshal(categories)
	if err != nil {
		return model.Category{}, false, fmt.Errorf("encode categories: %w", err)
	}
	if err := r.kv.Set(ctx, StorageKey, string(raw)); err != nil {
		return model.Category{}, false, fmt.Errorf("save categories: %w", err)
	}
	return cat, true, nil
}

// List returns all categories in insertion order.
func (r *Registry) List(ctx context.Context) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Resolve looks a category up by id. A missing id is reported with ok=false, not an error.
func (r *Registry) Resolve(ctx context.Context, id string) (model.Category, bool, error) {
	categories, err := r.List(ctx)
	if err != nil {
		return model.Category{}, false, err
	}
	for _, cat := range categories {
		if cat.ID == id {
			return cat, true, nil
		}
	}
	return model.Category{}, false, nil
}

// Names maps category ids to display names.
func (r *Registry) Names(ctx context.Context) (map[string]string, error) {
	categories, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}
	return names, nil
}

// Label turns a task's category reference into a display name.
func Label(categoryID *string, names map[string]string) string {
	if categoryID == nil {
		return Uncategorized
	}
	name := strings.TrimSpace(names[*categoryID])
	if name == "" {
		return Uncategorized
	}
	return name
}

func (r *Registry) load(ctx context.Context) ([]model.Category, error) {
	raw, err := r.kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return []model.Category{}, nil
	}
	var categories []model.Category
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}
