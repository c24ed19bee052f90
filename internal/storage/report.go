package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/radar/internal/models"
)

// AppendReport assigns an id to a copy of r, sanitizes it and appends it to the
// radar's history. A zero CreatedAt is set to now. The stored form is returned.
func AppendReport(ctx context.Context, s Storage, radarID string, r *models.Report) (*models.Report, error) {
	if radarID == "" {
		return nil, fmt.Errorf("radar id is required")
	}
	stored := *r
	stored.ID = uuid.New().String()
	stored.RadarID = radarID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	data, err := encodeReport(&stored)
	if err != nil {
		return nil, err
	}
	rec := &ReportRecord{
		ID:        stored.ID,
		RadarID:   radarID,
		Kind:      stored.Kind,
		CreatedAt: stored.CreatedAt,
		Data:      data,
	}
	if err := s.InsertReport(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	return decodeReport(data)
}

func encodeReport(r *models.Report) ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	data, err := json.Marshal(Sanitize(generic))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sanitized report: %w", err)
	}
	return data, nil
}

func decodeReport(data []byte) (*models.Report, error) {
	var r models.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &r, nil
}
