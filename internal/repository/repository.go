// Package repository defines durable storage for reports and store
// reference data.
//
// Reports are persisted whole and mutated exclusively through a
// compare-and-swap on their version, so the approval engine never needs a
// lock of its own. Two implementations exist: an in-memory reference used
// by tests, and a PostgreSQL implementation for production.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mfauzirahman/rawatoko/internal/domain"
)

// =============================================================================
// Interfaces
// =============================================================================

// ReportRepository stores reports, queried by role-scoped filters.
type ReportRepository interface {
	// Create inserts a new report.
	// Returns domain.ECONFLICT if a report with the same ID already exists.
	Create(ctx context.Context, report *domain.Report) error

	// Get retrieves a report by ID.
	// Returns domain.ENOTFOUND if no report exists.
	Get(ctx context.Context, id uuid.UUID) (*domain.Report, error)

	// Save persists a mutated report if and only if the stored version still
	// equals expectedVersion (compare-and-swap). The report's own Version
	// must already be bumped past expectedVersion by the caller.
	// Returns domain.ECONFLICT on a stale expectedVersion and
	// domain.ENOTFOUND if the report does not exist.
	Save(ctx context.Context, report *domain.Report, expectedVersion int64) error

	// List returns report summaries matching the filter, ordered by
	// StatusChangedAt descending. Each call re-issues the query from the
	// start; no cursor state is retained.
	List(ctx context.Context, filter ReportFilter) ([]domain.ReportSummary, error)
}

// StoreRepository provides read access to store reference data.
type StoreRepository interface {
	// Get retrieves a store by its external code.
	// Returns domain.ENOTFOUND if no store exists.
	Get(ctx context.Context, id string) (*domain.Store, error)

	// List returns all known stores.
	List(ctx context.Context) ([]domain.Store, error)
}

// =============================================================================
// Filters
// =============================================================================

// DateRange bounds a query by StatusChangedAt. Zero bounds are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ReportFilter narrows a List query. Zero-valued fields are ignored.
type ReportFilter struct {
	Status     domain.ReportStatus // Match exact status
	StoreID    string              // Match exact store
	ReporterID uuid.UUID           // Match reports filed by this actor
	SearchText string              // Case-insensitive match on area labels and notes
	DateRange  *DateRange          // Bound StatusChangedAt
}
