package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/radar/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS radars (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT,
		profile TEXT NOT NULL,
		mermaid_diagram TEXT,
		query_plan TEXT,
		settings TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_radars_owner ON radars(owner_id, created_at);

	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		radar_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (radar_id) REFERENCES radars(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_reports_radar_created ON reports(radar_id, created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateRadar inserts a radar. CreatedAt and UpdatedAt are set to now.
func (s *SQLiteStorage) CreateRadar(ctx context.Context, radar *models.Radar) error {
	cols, err := marshalRadar(radar)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	radar.CreatedAt = now
	radar.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO radars (id, owner_id, title, profile, mermaid_diagram, query_plan, settings, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		radar.ID, radar.OwnerID, radar.Title, string(cols.profile), radar.MermaidDiagram,
		string(cols.plan), string(cols.settings), radar.CreatedAt, radar.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert radar: %w", err)
	}
	return nil
}

// GetRadar returns a radar by ID.
func (s *SQLiteStorage) GetRadar(ctx context.Context, id string) (*models.Radar, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, profile, mermaid_diagram, query_plan, settings, created_at, updated_at
		 FROM radars WHERE id = ?`, id)
	radar, err := scanRadar(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("radar %s: %w", id, ErrNotFound)
	}
	return radar, err
}

// UpdateRadar rewrites a radar's mutable fields and bumps UpdatedAt.
func (s *SQLiteStorage) UpdateRadar(ctx context.Context, radar *models.Radar) error {
	cols, err := marshalRadar(radar)
	if err != nil {
		return err
	}

	radar.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		`UPDATE radars SET title = ?, profile = ?, mermaid_diagram = ?, query_plan = ?, settings = ?, updated_at = ?
		 WHERE id = ?`,
		radar.Title, string(cols.profile), radar.MermaidDiagram, string(cols.plan), string(cols.settings),
		radar.UpdatedAt, radar.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update radar: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("radar %s: %w", radar.ID, ErrNotFound)
	}
	return nil
}

// ListRadars returns radars newest first. An empty ownerID lists every owner.
func (s *SQLiteStorage) ListRadars(ctx context.Context, ownerID string, limit int) ([]*models.Radar, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, title, profile, mermaid_diagram, query_plan, settings, created_at, updated_at
		 FROM radars WHERE (? = '' OR owner_id = ?) ORDER BY created_at DESC LIMIT ?`,
		ownerID, ownerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var radars []*models.Radar
	for rows.Next() {
		radar, err := scanRadar(rows)
		if err != nil {
			return nil, err
		}
		radars = append(radars, radar)
	}
	return radars, rows.Err()
}

// InsertReport appends a report record.
func (s *SQLiteStorage) InsertReport(ctx context.Context, rec *ReportRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, radar_id, kind, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.RadarID, string(rec.Kind), string(rec.Data), rec.CreatedAt,
	)
	return err
}

// GetReport returns a report by ID.
func (s *SQLiteStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM reports WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeReport([]byte(data))
}

// LatestReport returns the newest report of a radar, or ErrNotFound when it has none.
func (s *SQLiteStorage) LatestReport(ctx context.Context, radarID string) (*models.Report, error) {
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
func (s *SQLiteStorage) ListReports(ctx context.Context, radarID string, limit int) ([]*models.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM reports WHERE radar_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		radarID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		r, err := decodeReport([]byte(data))
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// CountRadars returns the total number of radars.
func (s *SQLiteStorage) CountRadars(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM radars`).Scan(&count)
	return count, err
}

// CountReports returns the total number of reports.
func (s *SQLiteStorage) CountReports(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type radarColumns struct {
	profile, plan, settings []byte
}

func marshalRadar(radar *models.Radar) (radarColumns, error) {
	var cols radarColumns
	var err error
	if cols.profile, err = json.Marshal(radar.Profile); err != nil {
		return cols, fmt.Errorf("failed to marshal profile: %w", err)
	}
	if cols.plan, err = json.Marshal(radar.QueryPlan); err != nil {
		return cols, fmt.Errorf("failed to marshal query plan: %w", err)
	}
	if cols.settings, err = json.Marshal(radar.Settings); err != nil {
		return cols, fmt.Errorf("failed to marshal settings: %w", err)
	}
	return cols, nil
}

func unmarshalRadar(radar *models.Radar, profile, plan, settings []byte) error {
	if err := json.Unmarshal(profile, &radar.Profile); err != nil {
		return fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	if len(plan) > 0 {
		if err := json.Unmarshal(plan, &radar.QueryPlan); err != nil {
			return fmt.Errorf("failed to unmarshal query plan: %w", err)
		}
	}
	radar.Settings = models.DefaultRadarSettings()
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &radar.Settings); err != nil {
			return fmt.Errorf("failed to unmarshal settings: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRadar(row rowScanner) (*models.Radar, error) {
	var (
		radar                   models.Radar
		title, mermaid          sql.NullString
		profile, plan, settings sql.NullString
	)
	if err := row.Scan(&radar.ID, &radar.OwnerID, &title, &profile, &mermaid, &plan, &settings,
		&radar.CreatedAt, &radar.UpdatedAt); err != nil {
		return nil, err
	}
	radar.Title = title.String
	radar.MermaidDiagram = mermaid.String
	if err := unmarshalRadar(&radar, []byte(profile.String), []byte(plan.String), []byte(settings.String)); err != nil {
		return nil, err
	}
	return &radar, nil
}
