// Package engine implements the report approval state machine.
//
// Every legal lifecycle path is one row in an explicit transition table
// keyed by (status, action): the precondition and the resulting status.
// Role requirements hang off the action itself. Anything not in the table
// is an illegal transition.
//
// The engine is a deterministic decision function: it never logs, retries,
// or swallows an error, holds no background goroutines, and serializes
// concurrent transitions on one report through the repository's
// compare-and-swap. Retry-on-conflict is the caller's policy.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mfauzirahman/rawatoko/internal/domain"
	"github.com/mfauzirahman/rawatoko/internal/repository"
	"github.com/mfauzirahman/rawatoko/internal/storage"
)

// =============================================================================
// Engine
// =============================================================================

// Engine drives report lifecycle transitions.
type Engine struct {
	reports repository.ReportRepository
	photos  storage.PhotoStore
	now     func() time.Time
}

// New creates an approval engine on top of the given repository and photo
// store.
func New(reports repository.ReportRepository, photos storage.PhotoStore) *Engine {
	return &Engine{
		reports: reports,
		photos:  photos,
		now:     time.Now,
	}
}

// TransitionInput carries action-specific data: the rejection reason for
// Reject, the evidence reference for MarkSolved. Unused fields are ignored.
type TransitionInput struct {
	Reason      string
	EvidenceRef string
}

// =============================================================================
// Authorization
// =============================================================================

// actionRoles maps every action to the single role allowed to perform it,
// independent of state. Checked before the transition table so an
// unauthorized actor never learns which states or preconditions apply.
var actionRoles = map[domain.Action]domain.Role{
	domain.ActionSubmit:     domain.RoleFieldReporter,
	domain.ActionResubmit:   domain.RoleFieldReporter,
	domain.ActionStartWork:  domain.RoleFieldReporter,
	domain.ActionMarkSolved: domain.RoleFieldReporter,
	domain.ActionApprove:    domain.RoleApprover,
	domain.ActionReject:     domain.RoleApprover,
	domain.ActionClose:      domain.RoleAdministrator,
}

// =============================================================================
// Transition Table
// =============================================================================

type transitionKey struct {
	from   domain.ReportStatus
	action domain.Action
}

// rule is one legal lifecycle path: what must hold first and where it
// leads. apply mutates the report after all checks pass.
type rule struct {
	to           domain.ReportStatus
	precondition func(ctx context.Context, e *Engine, r *domain.Report, in TransitionInput) error
	apply        func(r *domain.Report, in TransitionInput)
}

var transitions = map[transitionKey]rule{
	{domain.StatusDraft, domain.ActionSubmit}: {
		to:           domain.StatusPendingApproval,
		precondition: submissionReady,
		apply:        freezeTotal,
	},
	{domain.StatusPendingApproval, domain.ActionApprove}: {
		to: domain.StatusApproved,
	},
	{domain.StatusPendingApproval, domain.ActionReject}: {
		to:           domain.StatusRejected,
		precondition: reasonPresent,
		apply: func(r *domain.Report, in TransitionInput) {
			r.RejectionReason = in.Reason
			freezeTotal(r, in)
		},
	},
	{domain.StatusRejected, domain.ActionResubmit}: {
		to:           domain.StatusPendingApproval,
		precondition: submissionReady,
		apply:        freezeTotal,
	},
	{domain.StatusApproved, domain.ActionStartWork}: {
		to: domain.StatusInProgress,
	},
	{domain.StatusInProgress, domain.ActionMarkSolved}: {
		to:           domain.StatusSolved,
		precondition: evidenceVerified,
		apply: func(r *domain.Report, in TransitionInput) {
			r.EvidenceRef = in.EvidenceRef
		},
	},
	{domain.StatusSolved, domain.ActionClose}: {
		to: domain.StatusClosed,
	},
}

// =============================================================================
// Preconditions
// =============================================================================

func submissionReady(ctx context.Context, e *Engine, r *domain.Report, in TransitionInput) error {
	return r.Checklist.ValidateForSubmission()
}

func reasonPresent(ctx context.Context, e *Engine, r *domain.Report, in TransitionInput) error {
	const op = "engine.transition"
	if in.Reason == "" {
		return domain.Invalid(op, "a rejection reason is required")
	}
	return nil
}

func evidenceVerified(ctx context.Context, e *Engine, r *domain.Report, in TransitionInput) error {
	const op = "engine.transition"
	if in.EvidenceRef == "" {
		return domain.Invalid(op, "an evidence reference is required")
	}
	exists, err := e.photos.Exists(ctx, in.EvidenceRef)
	if err != nil {
		return domain.Internal(err, op, "failed to verify evidence reference")
	}
	if !exists {
		return domain.Invalid(op, "evidence reference does not resolve to a stored object")
	}
	return nil
}

// freezeTotal recomputes the total from the checklist as of this instant,
// so the figure entering the approval queue is the one reviewed.
func freezeTotal(r *domain.Report, _ TransitionInput) {
	_, r.TotalCost = domain.ComputeTotals(r.Checklist)
}

// =============================================================================
// Transition
// =============================================================================

// Transition applies an action to the report and persists the result.
//
// Authorization is checked before state and precondition checks, so an
// unauthorized actor never learns which preconditions were unmet. The
// persisted write is a compare-and-swap on the version observed at load:
// when a concurrent transition commits first, this call fails with
// domain.ECONFLICT and has no effect.
func (e *Engine) Transition(ctx context.Context, reportID uuid.UUID, action domain.Action, actor domain.Actor, input TransitionInput) (*domain.Report, error) {
	const op = "engine.transition"

	report, err := e.reports.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	loadedVersion := report.Version

	requiredRole, known := actionRoles[action]
	if !known {
		return nil, domain.IllegalTransition(op, report.Status, action, actor.Role)
	}
	if actor.Role != requiredRole {
		return nil, domain.Unauthorized(op, action, actor.Role)
	}
	// A field reporter may only drive reports they filed.
	if requiredRole == domain.RoleFieldReporter && report.ReporterID != actor.ID {
		return nil, domain.Unauthorized(op, action, actor.Role)
	}

	r, ok := transitions[transitionKey{report.Status, action}]
	if !ok {
		return nil, domain.IllegalTransition(op, report.Status, action, actor.Role)
	}

	if r.precondition != nil {
		if err := r.precondition(ctx, e, report, input); err != nil {
			return nil, err
		}
	}

	if report.Status == domain.StatusRejected {
		report.RejectionReason = ""
	}
	if r.apply != nil {
		r.apply(report, input)
	}
	report.Status = r.to
	report.StatusChangedAt = e.now()
	report.Version = loadedVersion + 1

	if err := e.reports.Save(ctx, report, loadedVersion); err != nil {
		return nil, err
	}
	return report, nil
}
