// Package models defines core data structures for radars, query plans, search items, and reports.
package models

import (
	"fmt"
	"strings"
	"time"
)

// RadarProfile describes who the radar is for.
type RadarProfile struct {
	Role         string   `json:"role"`
	Industry     string   `json:"industry"`
	ProductFocus string   `json:"productFocus,omitempty"`
	Audience     string   `json:"audience,omitempty"`
	Geography    []string `json:"geography,omitempty"`
	Priorities   []string `json:"priorities"`
	Avoid        []string `json:"avoid,omitempty"`
}

// Validate returns an error naming the first missing required field.
func (p *RadarProfile) Validate() error {
	if strings.TrimSpace(p.Role) == "" {
		return fmt.Errorf("profile.role is required")
	}
	if strings.TrimSpace(p.Industry) == "" {
		return fmt.Errorf("profile.industry is required")
	}
	for _, pr := range p.Priorities {
		if strings.TrimSpace(pr) != "" {
			return nil
		}
	}
	return fmt.Errorf("profile.priorities requires at least one entry")
}

// DefaultTitle is "<industry> - <role>", trimmed.
func (p *RadarProfile) DefaultTitle() string {
	return strings.TrimSpace(p.Industry + " - " + p.Role)
}

// RadarSettings holds per-radar run preferences.
type RadarSettings struct {
	DefaultFreshRun    bool `json:"defaultFreshRun"`
	MaxResultsPerQuery int  `json:"maxResultsPerQuery"`
}

// DefaultRadarSettings returns the settings new radars start with.
func DefaultRadarSettings() RadarSettings {
	return RadarSettings{DefaultFreshRun: false, MaxResultsPerQuery: 10}
}

// Radar is a saved profile plus its generated plan. Reports hang off it.
type Radar struct {
	ID             string             `json:"id"`
	OwnerID        string             `json:"ownerId"`
	Title          string             `json:"title"`
	Profile        RadarProfile       `json:"profile"`
	MermaidDiagram string             `json:"mermaidDiagram"`
	QueryPlan      PlanRepresentation `json:"queryPlan"`
	Settings       RadarSettings      `json:"settings"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}
