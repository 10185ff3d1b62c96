package database

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:", fixedClock{time.Date(2026, 2, 20, 5, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := s.Get(ctx, "nope")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok || v != "" {
			t.Errorf("Get() = (%q, %v), want absent", v, ok)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		if err := s.Set(ctx, "salat_2026-02-20", `{"fajr":true}`); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		v, ok, err := s.Get(ctx, "salat_2026-02-20")
		if err != nil || !ok {
			t.Fatalf("Get() = (%q, %v, %v)", v, ok, err)
		}
		if v != `{"fajr":true}` {
			t.Errorf("Get() = %q", v)
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		if err := s.Set(ctx, "k", "one"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := s.Set(ctx, "k", "two"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		v, _, _ := s.Get(ctx, "k")
		if v != "two" {
			t.Errorf("Get() = %q, want %q", v, "two")
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := s.Set(ctx, "gone", "x"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := s.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, ok, _ := s.Get(ctx, "gone"); ok {
			t.Error("key still present after Delete()")
		}
		if err := s.Delete(ctx, "gone"); err != nil {
			t.Errorf("Delete() of absent key error = %v", err)
		}
	})
}

func TestSQLiteStore_Keys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, k := range []string{"salat_2026-02-21", "salat_2026-02-20", "salatX2026", "prayer_cache_1", "salat_pending_sync"} {
		if err := s.Set(ctx, k, "v"); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}

	got, err := s.Keys(ctx, "salat_")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	want := []string{"salat_2026-02-20", "salat_2026-02-21", "salat_pending_sync"}
	if !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "device.db")

	s, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := s.Set(ctx, "salat_last_sync", "2026-02-20T05:00:00Z"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	s.Close()

	reopened, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "salat_last_sync")
	if err != nil || !ok || v != "2026-02-20T05:00:00Z" {
		t.Errorf("Get() after reopen = (%q, %v, %v)", v, ok, err)
	}
}

func TestSQLiteStore_BackupTo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.Set(ctx, "salat_2026-02-20", `{"fajr":true}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "backup.db")
	if err := s.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}
	if err := s.BackupTo(dest); err == nil {
		t.Error("BackupTo() expected error when destination exists")
	}

	restored, err := NewSQLiteStore(dest, nil)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer restored.Close()
	if _, ok, _ := restored.Get(ctx, "salat_2026-02-20"); !ok {
		t.Error("backup is missing the stored key")
	}
}
