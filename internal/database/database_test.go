package database

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	pool, err := NewPostgresPool(url)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	defer pool.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for i := 0; i < 2; i++ {
		if err := RunMigrations(context.Background(), pool, "../../migrations", logger); err != nil {
			t.Fatalf("RunMigrations() run %d error = %v", i+1, err)
		}
	}

	var exists bool
	err = pool.QueryRow(context.Background(), "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = 1)").Scan(&exists)
	if err != nil || !exists {
		t.Fatalf("expected migration 1 to be recorded, exists=%v err=%v", exists, err)
	}
}

func TestRunMigrations_MissingDir(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	pool, err := NewPostgresPool(url)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	defer pool.Close()

	if err := RunMigrations(context.Background(), pool, t.TempDir()+"/missing", nil); err == nil {
		t.Fatalf("expected error for missing migrations directory")
	}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	if _, err := NewRedisClient("not-a-redis-url"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name   string
		want   int
		wantOK bool
	}{
		{"001_usage_counts.sql", 1, true},
		{"012_add_index.sql", 12, true},
		{"1000_big.sql", 1000, true},
		{"000_zero.sql", 0, false},
		{"readme.sql", 0, false},
		{"abc_name.sql", 0, false},
	}
	for _, tc := range tests {
		got, ok := migrationVersion(tc.name)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("migrationVersion(%q) = %d, %v; want %d, %v", tc.name, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestListMigrations_SortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"010_later.sql", "002_second.sql", "notes.txt", "draft.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	got, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("listMigrations() error = %v", err)
	}
	if len(got) != 2 || got[0].version != 2 || got[1].version != 10 {
		t.Fatalf("unexpected migrations %+v", got)
	}
	if got[0].path != filepath.Join(dir, "002_second.sql") {
		t.Fatalf("unexpected path %q", got[0].path)
	}
}

func TestListMigrations_RepositoryDir(t *testing.T) {
	got, err := listMigrations("../../migrations")
	if err != nil {
		t.Fatalf("listMigrations() error = %v", err)
	}
	if len(got) == 0 || got[0].version != 1 {
		t.Fatalf("expected 001 migration first, got %+v", got)
	}
}
