package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/radar/internal/config"
)

func writeBytes(t *testing.T, path string, n int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, n), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStorageUsage_sqliteCountsSideFiles(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "radar.db")
	index := filepath.Join(dir, "bleve")
	writeBytes(t, db, 100)
	writeBytes(t, db+"-wal", 20)
	writeBytes(t, db+"-shm", 3)
	writeBytes(t, filepath.Join(index, "store", "root.bolt"), 7)
	writeBytes(t, filepath.Join(index, "index_meta.json"), 5)

	u, err := StorageUsage(config.StorageConfig{Driver: "sqlite", DatabasePath: db, BleveIndexPath: index})
	if err != nil {
		t.Fatal(err)
	}
	want := Usage{DatabaseBytes: 123, IndexBytes: 12, TotalBytes: 135}
	if u != want {
		t.Errorf("usage = %+v, want %+v", u, want)
	}
}

func TestStorageUsage_missingPathsCountZero(t *testing.T) {
	dir := t.TempDir()
	u, err := StorageUsage(config.StorageConfig{
		DatabasePath:   filepath.Join(dir, "none.db"),
		BleveIndexPath: filepath.Join(dir, "no-index"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if u != (Usage{}) {
		t.Errorf("usage = %+v, want zero", u)
	}
}

func TestStorageUsage_postgresSkipsDatabasePath(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "stale.db")
	writeBytes(t, db, 50)
	index := filepath.Join(dir, "bleve")
	writeBytes(t, filepath.Join(index, "seg"), 9)

	u, err := StorageUsage(config.StorageConfig{Driver: "postgres", DatabasePath: db, BleveIndexPath: index})
	if err != nil {
		t.Fatal(err)
	}
	if u.DatabaseBytes != 0 || u.IndexBytes != 9 || u.TotalBytes != 9 {
		t.Errorf("usage = %+v", u)
	}
}

func TestStorageUsage_liveDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "radar.db")
	store, err := NewSQLiteStorage(db)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	u, err := StorageUsage(config.StorageConfig{DatabasePath: db})
	if err != nil {
		t.Fatal(err)
	}
	if u.DatabaseBytes == 0 || u.TotalBytes != u.DatabaseBytes {
		t.Errorf("usage = %+v", u)
	}
}
