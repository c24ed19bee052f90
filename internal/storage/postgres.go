package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/radar/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Storage = (*PostgresStorage)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS radars (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	profile JSONB NOT NULL,
	mermaid_diagram TEXT NOT NULL DEFAULT '',
	query_plan JSONB,
	settings JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_radars_owner ON radars(owner_id, created_at);

CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	radar_id TEXT NOT NULL REFERENCES radars(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	data JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_radar_created ON reports(radar_id, created_at DESC);
`

// PostgresStorage implements Storage on a pgx connection pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects to dsn, pings it and applies the schema.
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresStorage{pool: pool}, nil
}

const radarColumnsSQL = `id, owner_id, title, profile, mermaid_diagram, query_plan, settings, created_at, updated_at`

// CreateRadar inserts a radar. CreatedAt and UpdatedAt are set to now.
func (s *PostgresStorage) CreateRadar(ctx context.Context, radar *models.Radar) error {
	cols, err := marshalRadar(radar)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	radar.CreatedAt = now
	radar.UpdatedAt = now

	_, err = s.pool.Exec(ctx,
		`INSERT INTO radars (`+radarColumnsSQL+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		radar.ID, radar.OwnerID, radar.Title, cols.profile, radar.MermaidDiagram,
		cols.plan, cols.settings, radar.CreatedAt, radar.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert radar: %w", err)
	}
	return nil
}

// GetRadar returns a radar by ID.
func (s *PostgresStorage) GetRadar(ctx context.Context, id string) (*models.Radar, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+radarColumnsSQL+` FROM radars WHERE id = $1`, id)
	radar, err := scanPgRadar(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("radar %s: %w", id, ErrNotFound)
	}
	return radar, err
}

// UpdateRadar rewrites a radar's mutable fields and bumps UpdatedAt.
func (s *PostgresStorage) UpdateRadar(ctx context.Context, radar *models.Radar) error {
	cols, err := marshalRadar(radar)
	if err != nil {
		return err
	}
	radar.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE radars SET title = $1, profile = $2, mermaid_diagram = $3, query_plan = $4, settings = $5, updated_at = $6
		 WHERE id = $7`,
		radar.Title, cols.profile, radar.MermaidDiagram, cols.plan, cols.settings, radar.UpdatedAt, radar.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update radar: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("radar %s: %w", radar.ID, ErrNotFound)
	}
	return nil
}

// ListRadars returns radars newest first. An empty ownerID lists every owner.
func (s *PostgresStorage) ListRadars(ctx context.Context, ownerID string, limit int) ([]*models.Radar, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+radarColumnsSQL+` FROM radars WHERE ($1 = '' OR owner_id = $1) ORDER BY created_at DESC LIMIT $2`,
		ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list radars: %w", err)
	}
	defer rows.Close()

	var radars []*models.Radar
	for rows.Next() {
		radar, err := scanPgRadar(rows)
		if err != nil {
			return nil, err
		}
		radars = append(radars, radar)
	}
	return radars, rows.Err()
}

// InsertReport appends a report record.
func (s *PostgresStorage) InsertReport(ctx context.Context, rec *ReportRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reports (id, radar_id, kind, data, created_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.RadarID, string(rec.Kind), rec.Data, rec.CreatedAt,
	)
	return err
}

// GetReport returns a report by ID.
func (s *PostgresStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM reports WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeReport(data)
}

// LatestReport returns the newest report of a radar, or ErrNotFound when it has none.
func (s *PostgresStorage) LatestReport(ctx context.Context, radarID string) (*models.Report, error) {
	reports, err := s.ListReports(ctx, radarID, 1)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("reports for radar %s: %w", radarID, ErrNotFound)
	}
	return reports[0], nil
}

// ListReports returns a radar's reports newest first.
func (s *PostgresStorage) ListReports(ctx context.Context, radarID string, limit int) ([]*models.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM reports WHERE radar_id = $1 ORDER BY created_at DESC LIMIT $2`, radarID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		r, err := decodeReport(data)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// CountRadars returns the total number of radars.
func (s *PostgresStorage) CountRadars(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM radars`).Scan(&count)
	return count, err
}

// CountReports returns the total number of reports.
func (s *PostgresStorage) CountReports(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports`).Scan(&count)
	return count, err
}

// Close releases the pool.
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

func scanPgRadar(row pgx.Row) (*models.Radar, error) {
	var (
		radar                   models.Radar
		profile, plan, settings []byte
	)
	if err := row.Scan(&radar.ID, &radar.OwnerID, &radar.Title, &profile, &radar.MermaidDiagram,
		&plan, &settings, &radar.CreatedAt, &radar.UpdatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalRadar(&radar, profile, plan, settings); err != nil {
		return nil, err
	}
	return &radar, nil
}
