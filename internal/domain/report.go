// Package domain contains core business types and interfaces.
//
// This file defines the Report aggregate and its lifecycle vocabulary.
// Status never changes outside the approval engine; the reporter owns the
// checklist contents while the report is editable.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Report Status
// =============================================================================

// ReportStatus represents the lifecycle state of a damage report.
type ReportStatus string

const (
	// StatusDraft indicates the report is being filled in by the reporter.
	StatusDraft ReportStatus = "draft"

	// StatusPendingApproval indicates the report is queued for approver review.
	StatusPendingApproval ReportStatus = "pending_approval"

	// StatusApproved indicates the approver accepted the report and its cost.
	StatusApproved ReportStatus = "approved"

	// StatusRejected indicates the approver sent the report back for rework.
	// The checklist becomes editable again.
	StatusRejected ReportStatus = "rejected"

	// StatusInProgress indicates repair work has started.
	StatusInProgress ReportStatus = "in_progress"

	// StatusSolved indicates the reporter marked the repair complete with
	// verified evidence.
	StatusSolved ReportStatus = "solved"

	// StatusClosed is terminal: the administrator archived the report.
	StatusClosed ReportStatus = "closed"
)

// String returns the string representation of the status.
func (s ReportStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s ReportStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected,
		StatusInProgress, StatusSolved, StatusClosed:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions exist from this status.
func (s ReportStatus) IsTerminal() bool {
	return s == StatusClosed
}

// IsEditable returns true if the checklist may be modified in this status.
// Only Draft and Rejected reports accept checklist changes.
func (s ReportStatus) IsEditable() bool {
	return s == StatusDraft || s == StatusRejected
}

// =============================================================================
// Action
// =============================================================================

// Action is a requested lifecycle transition on a report.
type Action string

const (
	ActionSubmit     Action = "submit"
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionResubmit   Action = "resubmit"
	ActionStartWork  Action = "start_work"
	ActionMarkSolved Action = "mark_solved"
	ActionClose      Action = "close"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// IsValid returns true if the action is a recognized value.
func (a Action) IsValid() bool {
	switch a {
	case ActionSubmit, ActionApprove, ActionReject, ActionResubmit,
		ActionStartWork, ActionMarkSolved, ActionClose:
		return true
	}
	return false
}

// =============================================================================
// Report Aggregate
// =============================================================================

// Report is the aggregate root binding store identity, reporter identity,
// the checklist assessment, derived cost, and lifecycle status.
//
// TotalCost is derived from the checklist; it is never set directly.
// Version increases monotonically on every persisted mutation and backs the
// repository's compare-and-swap.
type Report struct {
	ID              uuid.UUID    // Assigned at creation, immutable
	StoreID         string       // Immutable reference to the store
	ReporterID      uuid.UUID    // Immutable reference to the filing actor
	Checklist       Checklist    // Mutable only while status is editable
	Status          ReportStatus // Current lifecycle state
	TotalCost       Money        // Derived by ComputeTotals on checklist change
	RejectionReason string       // Present iff status is rejected
	EvidenceRef     string       // Repair evidence reference, set by MarkSolved
	CreatedAt       time.Time    // When the report was filed
	StatusChangedAt time.Time    // Updated on every transition
	Version         int64        // Optimistic concurrency token
}

// NewReport creates a Draft report for the given store, filed by the given
// reporter. The checklist may be empty at creation and filled in later.
func NewReport(storeID string, reporterID uuid.UUID, checklist Checklist, now time.Time) (*Report, error) {
	const op = "report.new"

	if storeID == "" {
		return nil, Invalid(op, "store ID is required")
	}
	if reporterID == uuid.Nil {
		return nil, Invalid(op, "reporter ID is required")
	}
	if err := checklist.Validate(); err != nil {
		return nil, err
	}

	_, total := ComputeTotals(checklist)
	return &Report{
		ID:              uuid.New(),
		StoreID:         storeID,
		ReporterID:      reporterID,
		Checklist:       checklist.Clone(),
		Status:          StatusDraft,
		TotalCost:       total,
		CreatedAt:       now,
		StatusChangedAt: now,
		Version:         1,
	}, nil
}

// SetChecklist replaces the checklist and recomputes the total.
// Returns ELOCKED when the report is not in an editable status.
func (r *Report) SetChecklist(checklist Checklist) error {
	const op = "report.set_checklist"

	if !r.Status.IsEditable() {
		return Locked(op, r.Status)
	}
	if err := checklist.Validate(); err != nil {
		return err
	}

	r.Checklist = checklist.Clone()
	_, r.TotalCost = ComputeTotals(r.Checklist)
	return nil
}

// Clone returns a deep copy suitable for repository snapshots.
func (r *Report) Clone() *Report {
	cp := *r
	cp.Checklist = r.Checklist.Clone()
	return &cp
}

// =============================================================================
// Report Summary
// =============================================================================

// ReportSummary is the list-view projection of a report.
type ReportSummary struct {
	ID              uuid.UUID
	StoreID         string
	StoreName       string // Populated by queries when store data is joined
	ReporterID      uuid.UUID
	Status          ReportStatus
	TotalCost       Money
	AreaCount       int // Number of checklist entries
	CreatedAt       time.Time
	StatusChangedAt time.Time
}

// Summarize projects a report into its list-view form.
func (r *Report) Summarize() ReportSummary {
	return ReportSummary{
		ID:              r.ID,
		StoreID:         r.StoreID,
		ReporterID:      r.ReporterID,
		Status:          r.Status,
		TotalCost:       r.TotalCost,
		AreaCount:       len(r.Checklist),
		CreatedAt:       r.CreatedAt,
		StatusChangedAt: r.StatusChangedAt,
	}
}
