// Package service contains the business logic layer.
//
// This file implements the report service: the library/service boundary
// callers use to file reports, edit checklists, drive lifecycle
// transitions, and read role-scoped listings.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mfauzirahman/rawatoko/internal/domain"
	"github.com/mfauzirahman/rawatoko/internal/email"
	"github.com/mfauzirahman/rawatoko/internal/engine"
	"github.com/mfauzirahman/rawatoko/internal/metrics"
	"github.com/mfauzirahman/rawatoko/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ReportService defines the contract surface for report operations.
//
// This interface enables:
// - Mocking in unit tests
// - Clear contract definition for handlers
// - Potential future implementations with different backends
type ReportService interface {
	// Create files a new Draft report for a store.
	// Returns domain.EFORBIDDEN unless the actor is a field reporter.
	// Returns domain.ENOTFOUND if the store is unknown.
	Create(ctx context.Context, actor domain.Actor, storeID string, checklist domain.Checklist) (*domain.Report, error)

	// Get retrieves a report, scoped by role: a field reporter sees only
	// reports they filed. Returns domain.ENOTFOUND otherwise.
	Get(ctx context.Context, id uuid.UUID, actor domain.Actor) (*domain.Report, error)

	// List returns report summaries narrowed by the actor's role: a field
	// reporter sees only own reports; approvers and administrators see all,
	// optionally scoped by the filter.
	List(ctx context.Context, filter repository.ReportFilter, actor domain.Actor) ([]domain.ReportSummary, error)

	// UpdateChecklist replaces the checklist on an editable report and
	// recomputes its total.
	// Returns domain.ELOCKED outside Draft/Rejected and domain.ECONFLICT
	// when a concurrent write committed first.
	UpdateChecklist(ctx context.Context, id uuid.UUID, actor domain.Actor, checklist domain.Checklist) (*domain.Report, error)

	// PreviewTotals computes per-area subtotals and the grand total for a
	// checklist without touching any report. Read-only, usable before
	// submission.
	PreviewTotals(checklist domain.Checklist) (map[string]domain.Money, domain.Money, error)

	// Transition applies a lifecycle action to a report. The engine decides;
	// errors pass through as typed results. Retry on domain.ECONFLICT is the
	// caller's decision.
	Transition(ctx context.Context, id uuid.UUID, action domain.Action, actor domain.Actor, input engine.TransitionInput) (*domain.Report, error)

	// CountByStatus returns the number of reports in each lifecycle status.
	// Used by the metrics gauge worker.
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// =============================================================================
// Implementation
// =============================================================================

// timeNow is swapped out in tests for deterministic timestamps.
var timeNow = time.Now

// reportService implements the ReportService interface.
type reportService struct {
	reports  repository.ReportRepository
	stores   repository.StoreRepository
	engine   *engine.Engine
	notifier email.Notifier
	logger   *slog.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(
	reports repository.ReportRepository,
	stores repository.StoreRepository,
	eng *engine.Engine,
	notifier email.Notifier,
	logger *slog.Logger,
) ReportService {
	return &reportService{
		reports:  reports,
		stores:   stores,
		engine:   eng,
		notifier: notifier,
		logger:   logger,
	}
}

// =============================================================================
// Create
// =============================================================================

// Create files a new Draft report.
func (s *reportService) Create(ctx context.Context, actor domain.Actor, storeID string, checklist domain.Checklist) (*domain.Report, error) {
	const op = "report.create"

	if actor.Role != domain.RoleFieldReporter {
		return nil, domain.Errorf(domain.EFORBIDDEN, op, "only a field reporter can file a report")
	}

	// Verify the store exists before binding the report to it
	store, err := s.stores.Get(ctx, storeID)
	if err != nil {
		return nil, err
	}

	report, err := domain.NewReport(store.ID, actor.ID, checklist, timeNow())
	if err != nil {
		return nil, err
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info("report created",
		"report_id", report.ID,
		"store_id", report.StoreID,
		"reporter_id", actor.ID,
		"total_cost", int64(report.TotalCost),
	)
	metrics.ReportsCreated.Inc()

	return report, nil
}

// =============================================================================
// Get
// =============================================================================

// Get retrieves a report with role scoping.
func (s *reportService) Get(ctx context.Context, id uuid.UUID, actor domain.Actor) (*domain.Report, error) {
	const op = "report.get"

	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// A field reporter only sees own reports. Report not-found rather than
	// forbidden so existence is not leaked.
	if actor.Role == domain.RoleFieldReporter && report.ReporterID != actor.ID {
		return nil, domain.NotFound(op, "report", id.String())
	}

	return report, nil
}

// =============================================================================
// List
// =============================================================================

// List returns role-scoped report summaries.
func (s *reportService) List(ctx context.Context, filter repository.ReportFilter, actor domain.Actor) ([]domain.ReportSummary, error) {
	// Field reporters are always narrowed to their own reports, whatever
	// the filter says.
	if actor.Role == domain.RoleFieldReporter {
		filter.ReporterID = actor.ID
	}

	summaries, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.fillStoreNames(ctx, summaries)
	return summaries, nil
}

// fillStoreNames resolves store display names for summaries that lack one
// (the in-memory repository has no join to pull them from).
func (s *reportService) fillStoreNames(ctx context.Context, summaries []domain.ReportSummary) {
	names := make(map[string]string)
	for i := range summaries {
		if summaries[i].StoreName != "" {
			continue
		}
		name, ok := names[summaries[i].StoreID]
		if !ok {
			store, err := s.stores.Get(ctx, summaries[i].StoreID)
			if err != nil {
				continue
			}
			name = store.Name
			names[store.ID] = name
		}
		summaries[i].StoreName = name
	}
}

// =============================================================================
// UpdateChecklist
// =============================================================================

// UpdateChecklist replaces the checklist on an editable report.
func (s *reportService) UpdateChecklist(ctx context.Context, id uuid.UUID, actor domain.Actor, checklist domain.Checklist) (*domain.Report, error) {
	const op = "report.update_checklist"

	if actor.Role != domain.RoleFieldReporter {
		return nil, domain.Errorf(domain.EFORBIDDEN, op, "only a field reporter can edit a checklist")
	}

	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.ReporterID != actor.ID {
		return nil, domain.NotFound(op, "report", id.String())
	}

	loadedVersion := report.Version
	if err := report.SetChecklist(checklist); err != nil {
		return nil, err
	}
	report.Version = loadedVersion + 1

	if err := s.reports.Save(ctx, report, loadedVersion); err != nil {
		return nil, err
	}

	s.logger.Info("checklist updated",
		"report_id", report.ID,
		"reporter_id", actor.ID,
		"areas", len(report.Checklist),
		"total_cost", int64(report.TotalCost),
	)
	metrics.ChecklistUpdates.Inc()

	return report, nil
}

// =============================================================================
// PreviewTotals
// =============================================================================

// PreviewTotals computes totals for an unsaved checklist.
func (s *reportService) PreviewTotals(checklist domain.Checklist) (map[string]domain.Money, domain.Money, error) {
	if err := checklist.Validate(); err != nil {
		return nil, 0, err
	}
	perArea, total := domain.ComputeTotals(checklist)
	return perArea, total, nil
}

// =============================================================================
// Transition
// =============================================================================

// Transition applies a lifecycle action through the approval engine.
func (s *reportService) Transition(ctx context.Context, id uuid.UUID, action domain.Action, actor domain.Actor, input engine.TransitionInput) (*domain.Report, error) {
	report, err := s.engine.Transition(ctx, id, action, actor, input)
	if err != nil {
		metrics.TransitionFailed(action.String(), domain.ErrorCode(err))
		return nil, err
	}

	s.logger.Info("report transitioned",
		"report_id", report.ID,
		"action", action,
		"actor_id", actor.ID,
		"role", actor.Role,
		"new_status", report.Status,
	)
	metrics.TransitionSucceeded(action.String())
	s.notify(ctx, action, report)

	return report, nil
}

// notify fires the workflow notice matching the action, if any. A lost
// notice never fails the transition that triggered it.
func (s *reportService) notify(ctx context.Context, action domain.Action, report *domain.Report) {
	var notice func(context.Context, *domain.Report, *domain.Store) error
	switch action {
	case domain.ActionSubmit, domain.ActionResubmit:
		notice = s.notifier.SubmissionNotice
	case domain.ActionReject:
		notice = s.notifier.RejectionNotice
	case domain.ActionClose:
		notice = s.notifier.ClosureNotice
	default:
		return
	}

	store, err := s.stores.Get(ctx, report.StoreID)
	if err != nil {
		s.logger.Error("failed to resolve store for notice",
			"report_id", report.ID,
			"store_id", report.StoreID,
			"error", err,
		)
		return
	}
	if err := notice(ctx, report, store); err != nil {
		s.logger.Error("failed to deliver workflow notice",
			"report_id", report.ID,
			"action", action,
			"error", err,
		)
	}
}

// =============================================================================
// CountByStatus
// =============================================================================

// CountByStatus tallies reports per lifecycle status.
func (s *reportService) CountByStatus(ctx context.Context) (map[string]int, error) {
	summaries, err := s.reports.List(ctx, repository.ReportFilter{})
	if err != nil {
		return nil, err
	}

	counts := map[string]int{
		string(domain.StatusDraft):           0,
		string(domain.StatusPendingApproval): 0,
		string(domain.StatusApproved):        0,
		string(domain.StatusRejected):        0,
		string(domain.StatusInProgress):      0,
		string(domain.StatusSolved):          0,
		string(domain.StatusClosed):          0,
	}
	for _, summary := range summaries {
		counts[string(summary.Status)]++
	}
	return counts, nil
}
