// Package storage persists analysis results keyed by owner and report name.
package storage

import (
	"time"

	"github.com/pkg/errors"

	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

// ErrNotFound is returned when no report exists for an owner and name.
var ErrNotFound = errors.New("storage: report not found")

// StoredReport is a saved AnalysisResult with its identity.
type StoredReport struct {
	ID        string                 `json:"id"`
	Owner     string                 `json:"owner"`
	Name      string                 `json:"name"`
	CreatedAt time.Time              `json:"created_at"`
	Result    *models.AnalysisResult `json:"result"`
}

// ReportStore defines the persistence collaborator of the analysis engine.
// Implementations can use any backend: in-memory, Redis, PostgreSQL, etc.
//
// Saving under an existing owner and name replaces the earlier report.
type ReportStore interface {
	Save(owner, name string, result *models.AnalysisResult) (*StoredReport, error)

	// Get returns ErrNotFound when the report does not exist.
	Get(owner, name string) (*StoredReport, error)

	// List returns the owner's reports ordered by name. An unknown owner
	// yields an empty list.
	List(owner string) ([]*StoredReport, error)
}
