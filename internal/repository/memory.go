package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mfauzirahman/rawatoko/internal/domain"
)

// =============================================================================
// In-Memory Report Repository
// =============================================================================

// MemoryReportRepository is the reference ReportRepository implementation.
// It keeps deep copies of every report behind a mutex, so callers can never
// mutate stored state except through Save's compare-and-swap.
type MemoryReportRepository struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*domain.Report
}

// NewMemoryReportRepository creates an empty in-memory repository.
func NewMemoryReportRepository() *MemoryReportRepository {
	return &MemoryReportRepository{
		reports: make(map[uuid.UUID]*domain.Report),
	}
}

// Create inserts a new report.
func (r *MemoryReportRepository) Create(ctx context.Context, report *domain.Report) error {
	const op = "repository.create"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reports[report.ID]; exists {
		return domain.Conflict(op, "report already exists")
	}
	r.reports[report.ID] = report.Clone()
	return nil
}

// Get retrieves a report by ID.
func (r *MemoryReportRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	const op = "repository.get"

	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[id]
	if !ok {
		return nil, domain.NotFound(op, "report", id.String())
	}
	return report.Clone(), nil
}

// Save persists a mutated report via compare-and-swap on version.
func (r *MemoryReportRepository) Save(ctx context.Context, report *domain.Report, expectedVersion int64) error {
	const op = "repository.save"

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.reports[report.ID]
	if !ok {
		return domain.NotFound(op, "report", report.ID.String())
	}
	if stored.Version != expectedVersion {
		return domain.Conflict(op, "report was modified concurrently")
	}
	r.reports[report.ID] = report.Clone()
	return nil
}

// List returns summaries matching the filter, newest status change first.
func (r *MemoryReportRepository) List(ctx context.Context, filter ReportFilter) ([]domain.ReportSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]domain.ReportSummary, 0, len(r.reports))
	for _, report := range r.reports {
		if !matches(report, filter) {
			continue
		}
		summaries = append(summaries, report.Summarize())
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StatusChangedAt.After(summaries[j].StatusChangedAt)
	})
	return summaries, nil
}

// matches applies all set filter fields to a report.
func matches(report *domain.Report, filter ReportFilter) bool {
	if filter.Status != "" && report.Status != filter.Status {
		return false
	}
	if filter.StoreID != "" && report.StoreID != filter.StoreID {
		return false
	}
	if filter.ReporterID != uuid.Nil && report.ReporterID != filter.ReporterID {
		return false
	}
	if filter.DateRange != nil {
		if !filter.DateRange.From.IsZero() && report.StatusChangedAt.Before(filter.DateRange.From) {
			return false
		}
		if !filter.DateRange.To.IsZero() && report.StatusChangedAt.After(filter.DateRange.To) {
			return false
		}
	}
	if filter.SearchText != "" && !matchesSearch(report, filter.SearchText) {
		return false
	}
	return true
}

// matchesSearch does a case-insensitive substring match against area labels
// and notes.
func matchesSearch(report *domain.Report, text string) bool {
	needle := strings.ToLower(text)
	for _, entry := range report.Checklist {
		if strings.Contains(strings.ToLower(entry.Area), needle) {
			return true
		}
		if strings.Contains(strings.ToLower(entry.Note), needle) {
			return true
		}
	}
	return false
}

// =============================================================================
// In-Memory Store Repository
// =============================================================================

// MemoryStoreRepository holds store reference data in memory.
type MemoryStoreRepository struct {
	mu     sync.RWMutex
	stores map[string]domain.Store
}

// NewMemoryStoreRepository creates a store repository seeded with the given
// stores.
func NewMemoryStoreRepository(stores ...domain.Store) *MemoryStoreRepository {
	m := make(map[string]domain.Store, len(stores))
	for _, s := range stores {
		m[s.ID] = s
	}
	return &MemoryStoreRepository{stores: m}
}

// Get retrieves a store by its external code.
func (r *MemoryStoreRepository) Get(ctx context.Context, id string) (*domain.Store, error) {
	const op = "repository.store_get"

	r.mu.RLock()
	defer r.mu.RUnlock()

	store, ok := r.stores[id]
	if !ok {
		return nil, domain.NotFound(op, "store", id)
	}
	return &store, nil
}

// List returns all known stores sorted by ID.
func (r *MemoryStoreRepository) List(ctx context.Context) ([]domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Store, 0, len(r.stores))
	for _, s := range r.stores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
