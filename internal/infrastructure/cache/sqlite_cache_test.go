package cache

import (
	"context"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"sentinela/internal/infrastructure/persistence/sqlite/model"
)

func setupSQLiteCache(t *testing.T) *SQLiteCache {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(&model.SnapshotKV{}); err != nil {
		t.Fatalf("auto migrate snapshot_kv: %v", err)
	}

	return NewSQLiteCache(db)
}

func TestSQLiteCacheSetGetDelete(t *testing.T) {
	cache := setupSQLiteCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "snapshot:deviations", `[{"ID":1}]`, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, found, err := cache.Get(ctx, "snapshot:deviations")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatalf("Get() expected found=true")
	}
	if value != `[{"ID":1}]` {
		t.Fatalf("Get() value = %q", value)
	}

	if err := cache.Set(ctx, "snapshot:deviations", `[{"ID":2}]`, 0); err != nil {
		t.Fatalf("Set(update) error = %v", err)
	}
	value, _, _ = cache.Get(ctx, "snapshot:deviations")
	if value != `[{"ID":2}]` {
		t.Fatalf("Get(after update) value = %q", value)
	}

	if err := cache.Delete(ctx, "snapshot:deviations"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := cache.Get(ctx, "snapshot:deviations"); found {
		t.Fatalf("Get(after delete) expected found=false")
	}
}

func TestSQLiteCacheTTLExpiry(t *testing.T) {
	cache := setupSQLiteCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "snapshot:users", "[]", -time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, found, err := cache.Get(ctx, "snapshot:users"); err != nil || found {
		t.Fatalf("Get(expired) found = %v, err = %v", found, err)
	}
}

func TestSQLiteCacheBlankKeyRejected(t *testing.T) {
	cache := setupSQLiteCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "  ", "v", 0); err == nil {
		t.Fatalf("Set(blank key) error = nil")
	}
	if _, _, err := cache.Get(ctx, ""); err == nil {
		t.Fatalf("Get(blank key) error = nil")
	}
}
