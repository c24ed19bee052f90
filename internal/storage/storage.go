// Package storage persists radars and their report history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/radar/internal/config"
	"github.com/hyperjump/radar/internal/models"
)

// ErrNotFound is returned when a radar or report does not exist.
var ErrNotFound = errors.New("not found")

// ReportRecord is a report as stored: its identity plus the sanitized JSON body.
type ReportRecord struct {
	ID        string
	RadarID   string
	Kind      models.ReportKind
	CreatedAt time.Time
	Data      []byte
}

// Storage defines radar and report persistence operations.
type Storage interface {
	// Radar operations
	CreateRadar(ctx context.Context, radar *models.Radar) error
	GetRadar(ctx context.Context, id string) (*models.Radar, error)
	UpdateRadar(ctx context.Context, radar *models.Radar) error
	ListRadars(ctx context.Context, ownerID string, limit int) ([]*models.Radar, error)

	// Report history; reports are append-only
	InsertReport(ctx context.Context, rec *ReportRecord) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	LatestReport(ctx context.Context, radarID string) (*models.Report, error)
	ListReports(ctx context.Context, radarID string, limit int) ([]*models.Report, error)

	// Stats
	CountRadars(ctx context.Context) (int64, error)
	CountReports(ctx context.Context) (int64, error)

	Close() error
}

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteStorage(cfg.DatabasePath)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("storage driver postgres requires postgres_dsn or DATABASE_URL")
		}
		return NewPostgresStorage(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
