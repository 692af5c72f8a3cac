package category_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"taskboard/internal/category"
)

type failingKV struct {
	err error
}

func (f failingKV) Get(context.Context, string) (string, error) { return "", f.err }
func (f failingKV) Set(context.Context, string, string) error   { return f.err }

func TestAdd_AppendsInOrder(t *testing.T) {
	ctx := context.Background()
	r := category.NewRegistry(category.NewMemoryKV())

	work, ok, err := r.Add(ctx, "Work")
	if err != nil || !ok {
		t.Fatalf("add work: ok=%v err=%v", ok, err)
	}
	home, _, _ := r.Add(ctx, "Home")

	list, err := r.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != work.ID || list[1].ID != home.ID {
		t.Errorf("expected [work home], got %+v", list)
	}
}

func TestAdd_AllowsDuplicateNames(t *testing.T) {
	ctx := context.Background()
	r := category.NewRegistry(category.NewMemoryKV())

	a, _, _ := r.Add(ctx, "Work")
	b, _, _ := r.Add(ctx, "Work")

	if a.ID == b.ID {
		t.Error("expected distinct ids for duplicate names")
	}
	list, _ := r.List(ctx)
	if len(list) != 2 {
		t.Errorf("expected 2 categories, got %d", len(list))
	}
}

func TestAdd_IgnoresBlankName(t *testing.T) {
	ctx := context.Background()
	r := category.NewRegistry(category.NewMemoryKV())

	if _, ok, err := r.Add(ctx, "  "); ok || err != nil {
		t.Errorf("expected silent no-op, got ok=%v err=%v", ok, err)
	}
	list, _ := r.List(ctx)
	if len(list) != 0 {
		t.Errorf("expected no categories, got %d", len(list))
	}
}

func TestAdd_PersistsUnderFixedKey(t *testing.T) {
	ctx := context.Background()
	kv := category.NewMemoryKV()
	r := category.NewRegistry(kv)

	r.Add(ctx, "Work")

	raw, _ := kv.Get(ctx, category.StorageKey)
	if !strings.Contains(raw, `"name":"Work"`) {
		t.Errorf("expected serialized category under %q, got %q", category.StorageKey, raw)
	}

	reopened := category.NewRegistry(kv)
	list, err := reopened.List(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("expected category to survive a new registry, got %+v err=%v", list, err)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	r := category.NewRegistry(category.NewMemoryKV())
	work, _, _ := r.Add(ctx, "Work")

	got, ok, err := r.Resolve(ctx, work.ID)
	if err != nil || !ok || got.Name != "Work" {
		t.Errorf("expected Work, got %+v ok=%v err=%v", got, ok, err)
	}

	if _, ok, err := r.Resolve(ctx, "dangling"); ok || err != nil {
		t.Errorf("expected not found without error, got ok=%v err=%v", ok, err)
	}
}

func TestLabel(t *testing.T) {
	names := map[string]string{"w": "Work", "blank": " "}
	w, dangling, blank := "w", "gone", "blank"

	tests := []struct {
		name string
		id   *string
		want string
	}{
		{name: "nil", id: nil, want: category.Uncategorized},
		{name: "known", id: &w, want: "Work"},
		{name: "dangling", id: &dangling, want: category.Uncategorized},
		{name: "blank name", id: &blank, want: category.Uncategorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := category.Label(tt.id, names); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStorageErrorsSurface(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	r := category.NewRegistry(failingKV{err: boom})

	if _, _, err := r.Add(ctx, "Work"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped storage error, got %v", err)
	}
	if _, err := r.List(ctx); !errors.Is(err, boom) {
		t.Errorf("expected wrapped storage error, got %v", err)
	}
}

func TestList_CorruptValue(t *testing.T) {
	ctx := context.Background()
	kv := category.NewMemoryKV()
	kv.Set(ctx, category.StorageKey, "{not json")

	if _, err := category.NewRegistry(kv).List(ctx); err == nil {
		t.Error("expected decode error")
	}
}
