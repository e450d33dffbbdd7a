// Package handler contains the JSON HTTP handlers for the maintenance
// report API.
//
// This file implements report endpoints: filing, role-scoped reads,
// checklist edits, cost previews, and lifecycle transitions.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mfauzirahman/rawatoko/internal/auth"
	"github.com/mfauzirahman/rawatoko/internal/domain"
	"github.com/mfauzirahman/rawatoko/internal/engine"
	"github.com/mfauzirahman/rawatoko/internal/export"
	"github.com/mfauzirahman/rawatoko/internal/repository"
	"github.com/mfauzirahman/rawatoko/internal/service"
)

// =============================================================================
// Request / Response Types
// =============================================================================

// RepairItemPayload is the wire form of one costed repair line.
type RepairItemPayload struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal,omitempty"`
}

// ChecklistEntryPayload is the wire form of one inspected area.
type ChecklistEntryPayload struct {
	Area      string              `json:"area"`
	Condition string              `json:"condition"`
	Severity  string              `json:"severity,omitempty"`
	Note      string              `json:"note,omitempty"`
	Photos    []string            `json:"photos,omitempty"`
	Items     []RepairItemPayload `json:"items,omitempty"`
}

// CreateReportRequest is the body for POST /api/reports.
type CreateReportRequest struct {
	StoreID   string                  `json:"store_id"`
	Checklist []ChecklistEntryPayload `json:"checklist"`
}

// UpdateChecklistRequest is the body for PUT /api/reports/{id}/checklist.
type UpdateChecklistRequest struct {
	Checklist []ChecklistEntryPayload `json:"checklist"`
}

// TransitionRequest is the body for POST /api/reports/{id}/transition.
type TransitionRequest struct {
	Action      string `json:"action"`
	Reason      string `json:"reason,omitempty"`
	EvidenceRef string `json:"evidence_ref,omitempty"`
}

// PreviewTotalsRequest is the body for POST /api/reports/preview-totals.
type PreviewTotalsRequest struct {
	Checklist []ChecklistEntryPayload `json:"checklist"`
}

// PreviewTotalsResponse carries computed cost roll-ups for an unsaved
// checklist.
type PreviewTotalsResponse struct {
	PerArea      map[string]int64 `json:"per_area"`
	Total        int64            `json:"total"`
	TotalDisplay string           `json:"total_display"`
}

// ReportResponse is the full wire form of a report.
type ReportResponse struct {
	ID               uuid.UUID               `json:"id"`
	StoreID          string                  `json:"store_id"`
	ReporterID       uuid.UUID               `json:"reporter_id"`
	Status           string                  `json:"status"`
	Checklist        []ChecklistEntryPayload `json:"checklist"`
	TotalCost        int64                   `json:"total_cost"`
	TotalCostDisplay string                  `json:"total_cost_display"`
	RejectionReason  string                  `json:"rejection_reason,omitempty"`
	EvidenceRef      string                  `json:"evidence_ref,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	StatusChangedAt  time.Time               `json:"status_changed_at"`
	Version          int64                   `json:"version"`
}

// ReportSummaryResponse is the list-view wire form of a report.
type ReportSummaryResponse struct {
	ID               uuid.UUID `json:"id"`
	StoreID          string    `json:"store_id"`
	StoreName        string    `json:"store_name,omitempty"`
	ReporterID       uuid.UUID `json:"reporter_id"`
	Status           string    `json:"status"`
	AreaCount        int       `json:"area_count"`
	TotalCost        int64     `json:"total_cost"`
	TotalCostDisplay string    `json:"total_cost_display"`
	StatusChangedAt  time.Time `json:"status_changed_at"`
}

// =============================================================================
// Payload Conversion
// =============================================================================

func checklistFromPayload(entries []ChecklistEntryPayload) domain.Checklist {
	checklist := make(domain.Checklist, 0, len(entries))
	for _, e := range entries {
		items := make([]domain.RepairItem, 0, len(e.Items))
		for _, item := range e.Items {
			items = append(items, domain.RepairItem{
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: domain.Money(item.UnitPrice),
			})
		}
		checklist = append(checklist, domain.ChecklistAreaEntry{
			Area:      e.Area,
			Condition: domain.Condition(e.Condition),
			Severity:  domain.Severity(e.Severity),
			Note:      e.Note,
			Photos:    e.Photos,
			Items:     items,
		})
	}
	return checklist
}

func checklistToPayload(checklist domain.Checklist) []ChecklistEntryPayload {
	entries := make([]ChecklistEntryPayload, 0, len(checklist))
	for _, e := range checklist {
		items := make([]RepairItemPayload, 0, len(e.Items))
		for _, item := range e.Items {
			items = append(items, RepairItemPayload{
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: int64(item.UnitPrice),
				Subtotal:  int64(item.Subtotal()),
			})
		}
		entries = append(entries, ChecklistEntryPayload{
			Area:      e.Area,
			Condition: e.Condition.String(),
			Severity:  e.Severity.String(),
			Note:      e.Note,
			Photos:    e.Photos,
			Items:     items,
		})
	}
	return entries
}

func reportToResponse(report *domain.Report) ReportResponse {
	return ReportResponse{
		ID:               report.ID,
		StoreID:          report.StoreID,
		ReporterID:       report.ReporterID,
		Status:           report.Status.String(),
		Checklist:        checklistToPayload(report.Checklist),
		TotalCost:        int64(report.TotalCost),
		TotalCostDisplay: report.TotalCost.Format(),
		RejectionReason:  report.RejectionReason,
		EvidenceRef:      report.EvidenceRef,
		CreatedAt:        report.CreatedAt,
		StatusChangedAt:  report.StatusChangedAt,
		Version:          report.Version,
	}
}

func summaryToResponse(summary domain.ReportSummary) ReportSummaryResponse {
	return ReportSummaryResponse{
		ID:               summary.ID,
		StoreID:          summary.StoreID,
		StoreName:        summary.StoreName,
		ReporterID:       summary.ReporterID,
		Status:           summary.Status.String(),
		AreaCount:        summary.AreaCount,
		TotalCost:        int64(summary.TotalCost),
		TotalCostDisplay: summary.TotalCost.Format(),
		StatusChangedAt:  summary.StatusChangedAt,
	}
}

// =============================================================================
// Handler Configuration
// =============================================================================

// ReportHandler handles report-related HTTP requests.
type ReportHandler struct {
	reportService service.ReportService
	stores        repository.StoreRepository
	exporter      export.Generator
	logger        *slog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(
	reportService service.ReportService,
	stores repository.StoreRepository,
	exporter export.Generator,
	logger *slog.Logger,
) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		stores:        stores,
		exporter:      exporter,
		logger:        logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers all report routes with the provided mux.
//
// All routes require authentication via the requireActor middleware.
//
// Routes:
// - POST /api/reports                    -> Create
// - GET  /api/reports                    -> Index (role-scoped list)
// - GET  /api/reports/{id}               -> Show
// - PUT  /api/reports/{id}/checklist     -> UpdateChecklist
// - POST /api/reports/{id}/transition    -> Transition
// - POST /api/reports/preview-totals     -> PreviewTotals
// - GET  /api/reports/{id}/export.pdf    -> ExportPDF
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux, requireActor func(http.Handler) http.Handler) {
	mux.Handle("POST /api/reports", requireActor(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/reports", requireActor(http.HandlerFunc(h.Index)))
	mux.Handle("GET /api/reports/{id}", requireActor(http.HandlerFunc(h.Show)))
	mux.Handle("PUT /api/reports/{id}/checklist", requireActor(http.HandlerFunc(h.UpdateChecklist)))
	mux.Handle("POST /api/reports/{id}/transition", requireActor(http.HandlerFunc(h.Transition)))
	mux.Handle("POST /api/reports/preview-totals", requireActor(http.HandlerFunc(h.PreviewTotals)))
	mux.Handle("GET /api/reports/{id}/export.pdf", requireActor(http.HandlerFunc(h.ExportPDF)))
}

// =============================================================================
// POST /api/reports - Create Report
// =============================================================================

// Create files a new draft report.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("report.create", "invalid request body"))
		return
	}

	report, err := h.reportService.Create(r.Context(), *actor, req.StoreID, checklistFromPayload(req.Checklist))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, reportToResponse(report))
}

// =============================================================================
// GET /api/reports - List Reports
// =============================================================================

// Index returns role-scoped report summaries. Supported query parameters:
// status, store_id, q (search text), from, to (RFC 3339 date bounds on the
// last status change).
func (h *ReportHandler) Index(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	summaries, err := h.reportService.List(r.Context(), filter, *actor)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]ReportSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, summaryToResponse(s))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": out})
}

// filterFromQuery parses list query parameters into a repository filter.
func filterFromQuery(r *http.Request) (repository.ReportFilter, error) {
	const op = "report.list"

	var filter repository.ReportFilter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status := domain.ReportStatus(raw)
		if !status.IsValid() {
			return filter, domain.Invalid(op, "unknown status: "+raw)
		}
		filter.Status = status
	}
	filter.StoreID = q.Get("store_id")
	filter.SearchText = q.Get("q")

	var bounds repository.DateRange
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, domain.Invalid(op, "invalid from date: "+raw)
		}
		bounds.From = from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, domain.Invalid(op, "invalid to date: "+raw)
		}
		bounds.To = to
	}
	if !bounds.From.IsZero() || !bounds.To.IsZero() {
		filter.DateRange = &bounds
	}

	return filter, nil
}

// =============================================================================
// GET /api/reports/{id} - Show Report
// =============================================================================

// Show returns one report with its full checklist.
func (h *ReportHandler) Show(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	report, err := h.reportService.Get(r.Context(), id, *actor)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// =============================================================================
// PUT /api/reports/{id}/checklist - Update Checklist
// =============================================================================

// UpdateChecklist replaces the checklist on an editable report.
func (h *ReportHandler) UpdateChecklist(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	var req UpdateChecklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("report.update_checklist", "invalid request body"))
		return
	}

	report, err := h.reportService.UpdateChecklist(r.Context(), id, *actor, checklistFromPayload(req.Checklist))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// =============================================================================
// POST /api/reports/{id}/transition - Lifecycle Transition
// =============================================================================

// Transition applies a lifecycle action to a report.
func (h *ReportHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("report.transition", "invalid request body"))
		return
	}

	report, err := h.reportService.Transition(r.Context(), id, domain.Action(req.Action), *actor, engine.TransitionInput{
		Reason:      req.Reason,
		EvidenceRef: req.EvidenceRef,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// =============================================================================
// POST /api/reports/preview-totals - Preview Totals
// =============================================================================

// PreviewTotals computes cost roll-ups for a checklist without saving.
func (h *ReportHandler) PreviewTotals(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req PreviewTotalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("report.preview_totals", "invalid request body"))
		return
	}

	perArea, total, err := h.reportService.PreviewTotals(checklistFromPayload(req.Checklist))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make(map[string]int64, len(perArea))
	for area, amount := range perArea {
		out[area] = int64(amount)
	}
	writeJSON(w, http.StatusOK, PreviewTotalsResponse{
		PerArea:      out,
		Total:        int64(total),
		TotalDisplay: total.Format(),
	})
}

// =============================================================================
// GET /api/reports/{id}/export.pdf - Export Report
// =============================================================================

// ExportPDF renders a report as a PDF document for archiving. Role scoping
// follows Show: whoever may read the report may export it.
func (h *ReportHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	report, err := h.reportService.Get(r.Context(), id, *actor)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	store, err := h.stores.Get(r.Context(), report.StoreID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "report-"+report.ID.String()+".pdf"))

	n, err := h.exporter.Generate(r.Context(), &export.Data{
		Report:      report,
		Store:       store,
		GeneratedAt: time.Now(),
	}, w)
	if err != nil {
		// Headers are already committed; log rather than rewrite the response
		h.logger.Error("pdf export failed", "error", err, "report_id", report.ID)
		return
	}

	h.logger.Info("report exported",
		"report_id", report.ID,
		"actor_id", actor.ID,
		"bytes", n,
	)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
