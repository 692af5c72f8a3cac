package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"taskboard/internal/category"
)

func newTestRepo(t *testing.T) *KVRepository {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		t.Cleanup(func() { sqlDB.Close() })
	}
	return NewKVRepository(db)
}

func TestKVRepository_GetMissing(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.Get(context.Background(), "42", "categories")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty value, got %q", got)
	}
}

func TestKVRepository_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.Set(ctx, "42", "categories", "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(ctx, "42", "categories", "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := repo.Get(ctx, "42", "categories")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "second" {
		t.Errorf("expected %q, got %q", "second", got)
	}
}

func TestKVRepository_ScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	repo.Scope("1").Set(ctx, "categories", "one")
	repo.Scope("2").Set(ctx, "categories", "two")

	if got, _ := repo.Scope("1").Get(ctx, "categories"); got != "one" {
		t.Errorf("scope 1: expected %q, got %q", "one", got)
	}
	if got, _ := repo.Scope("2").Get(ctx, "categories"); got != "two" {
		t.Errorf("scope 2: expected %q, got %q", "two", got)
	}
}

func TestScopedKV_BacksCategoryRegistry(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	reg := category.NewRegistry(repo.Scope("7"))
	work, _, err := reg.Add(ctx, "Work")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	reopened := category.NewRegistry(repo.Scope("7"))
	got, ok, err := reopened.Resolve(ctx, work.ID)
	if err != nil || !ok || got.Name != "Work" {
		t.Errorf("expected Work after reopen, got %+v ok=%v err=%v", got, ok, err)
	}
}

func TestEnsureDirForSQLite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	if err := ensureDirForSQLite("file:" + filepath.Join(dir, "x.db") + "?cache=shared"); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected %s to exist: %v", dir, err)
	}
	if err := ensureDirForSQLite(":memory:"); err != nil {
		t.Errorf("memory dsn: %v", err)
	}
}

func TestWithSQLiteDefaults(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{dsn: "taskboard.db", want: "taskboard.db?_busy_timeout=5000"},
		{dsn: "file:x.db?cache=shared", want: "file:x.db?cache=shared&_busy_timeout=5000"},
		{dsn: "x.db?_busy_timeout=100", want: "x.db?_busy_timeout=100"},
		{dsn: ":memory:", want: ":memory:"},
	}
	for _, tt := range tests {
		if got := withSQLiteDefaults(tt.dsn); got != tt.want {
			t.Errorf("withSQLiteDefaults(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}
