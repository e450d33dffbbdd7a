// Package email sends workflow notifications to the shared maintenance
// inbox.
//
// Small deployments route all notices to one operations mailbox; the
// service never manages per-actor addresses.
package email

import (
	"context"

	"github.com/mfauzirahman/rawatoko/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Notifier sends workflow notifications.
//
// Implementations:
// - SMTPNotifier: delivers via SMTP (Mailhog for dev, any standard server)
// - NoopNotifier: discards notices when no inbox is configured
//
// All methods are context-aware for timeout and cancellation support.
// Delivery failures are the implementation's to report; callers log and
// move on, a lost notice never blocks a transition.
type Notifier interface {
	// SubmissionNotice announces a report entering the approval queue.
	SubmissionNotice(ctx context.Context, report *domain.Report, store *domain.Store) error

	// RejectionNotice announces a report being sent back for rework.
	RejectionNotice(ctx context.Context, report *domain.Report, store *domain.Store) error

	// ClosureNotice announces a report reaching its terminal state.
	ClosureNotice(ctx context.Context, report *domain.Report, store *domain.Store) error
}

// =============================================================================
// Configuration
// =============================================================================

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string // Empty for servers without authentication (Mailhog)
	Password string
	From     string
	FromName string
}

// Email represents one outgoing message.
type Email struct {
	To       string
	Subject  string
	TextBody string
}

// =============================================================================
// Noop Implementation
// =============================================================================

// NoopNotifier discards all notices. Used when no maintenance inbox is
// configured.
type NoopNotifier struct{}

// NewNoopNotifier creates a notifier that does nothing.
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

func (n *NoopNotifier) SubmissionNotice(ctx context.Context, report *domain.Report, store *domain.Store) error {
	return nil
}

func (n *NoopNotifier) RejectionNotice(ctx context.Context, report *domain.Report, store *domain.Store) error {
	return nil
}

func (n *NoopNotifier) ClosureNotice(ctx context.Context, report *domain.Report, store *domain.Store) error {
	return nil
}

var _ Notifier = (*NoopNotifier)(nil)
