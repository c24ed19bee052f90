package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperjump/radar/internal/config"
)

// sqliteSideFiles are written next to the database file in WAL mode.
var sqliteSideFiles = []string{"-wal", "-shm"}

// Usage is the on-disk footprint of the radar store and the report index.
type Usage struct {
	DatabaseBytes int64 `json:"databaseBytes"`
	IndexBytes    int64 `json:"indexBytes"`
	TotalBytes    int64 `json:"totalBytes"`
}

// StorageUsage measures the sqlite database (with its WAL and shared-memory files)
// and the bleve index directory. A postgres database lives on its server and counts
// as zero. Paths that do not exist yet count as zero.
func StorageUsage(cfg config.StorageConfig) (Usage, error) {
	var u Usage
	if cfg.Driver == "" || cfg.Driver == "sqlite" {
		n, err := sqliteBytes(cfg.DatabasePath)
		if err != nil {
			return Usage{}, fmt.Errorf("failed to measure database: %w", err)
		}
		u.DatabaseBytes = n
	}
	n, err := treeBytes(cfg.BleveIndexPath)
	if err != nil {
		return Usage{}, fmt.Errorf("failed to measure index: %w", err)
	}
	u.IndexBytes = n
	u.TotalBytes = u.DatabaseBytes + u.IndexBytes
	return u, nil
}

func sqliteBytes(dbPath string) (int64, error) {
	if dbPath == "" {
		return 0, nil
	}
	var total int64
	for _, p := range append([]string{dbPath}, sideFiles(dbPath)...) {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

func sideFiles(dbPath string) []string {
	out := make([]string, len(sqliteSideFiles))
	for i, suffix := range sqliteSideFiles {
		out[i] = dbPath + suffix
	}
	return out
}

// treeBytes sums the regular files under root.
func treeBytes(root string) (int64, error) {
	if root == "" {
		return 0, nil
	}
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return total, err
}
