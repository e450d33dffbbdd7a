package email

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/mfauzirahman/rawatoko/internal/domain"
)

// =============================================================================
// SMTP Notifier Implementation
// =============================================================================

// SMTPNotifier sends notices via SMTP.
//
// This implementation works with:
// - Mailhog (development): No authentication required
// - Any standard SMTP server with username/password authentication
type SMTPNotifier struct {
	config SMTPConfig
	inbox  string // Shared maintenance inbox receiving all notices
	logger *slog.Logger
}

// NewSMTPNotifier creates an SMTP-backed notifier delivering to the given
// maintenance inbox.
func NewSMTPNotifier(config SMTPConfig, inbox string, logger *slog.Logger) *SMTPNotifier {
	if config.FromName == "" {
		config.FromName = "Rawatoko"
	}
	return &SMTPNotifier{
		config: config,
		inbox:  inbox,
		logger: logger,
	}
}

// =============================================================================
// Notifier Interface Implementation
// =============================================================================

// SubmissionNotice announces a report entering the approval queue.
func (s *SMTPNotifier) SubmissionNotice(ctx context.Context, report *domain.Report, store *domain.Store) error {
	body := fmt.Sprintf(`A maintenance report is waiting for approval.

Store:      %s (%s)
Report:     %s
Total cost: %s
Areas:      %d

Please review it in the maintenance dashboard.
`, store.Name, store.ID, report.ID, report.TotalCost.Format(), len(report.Checklist))

	return s.send(ctx, Email{
		To:       s.inbox,
		Subject:  fmt.Sprintf("Report pending approval: %s", store.Name),
		TextBody: body,
	})
}

// RejectionNotice announces a report being sent back for rework.
func (s *SMTPNotifier) RejectionNotice(ctx context.Context, report *domain.Report, store *domain.Store) error {
	body := fmt.Sprintf(`A maintenance report was rejected and needs rework.

Store:   %s (%s)
Report:  %s
Reason:  %s

The reporter can revise the checklist and resubmit.
`, store.Name, store.ID, report.ID, report.RejectionReason)

	return s.send(ctx, Email{
		To:       s.inbox,
		Subject:  fmt.Sprintf("Report rejected: %s", store.Name),
		TextBody: body,
	})
}

// ClosureNotice announces a report reaching its terminal state.
func (s *SMTPNotifier) ClosureNotice(ctx context.Context, report *domain.Report, store *domain.Store) error {
	body := fmt.Sprintf(`A maintenance report has been closed and archived.

Store:      %s (%s)
Report:     %s
Total cost: %s
Evidence:   %s
`, store.Name, store.ID, report.ID, report.TotalCost.Format(), report.EvidenceRef)

	return s.send(ctx, Email{
		To:       s.inbox,
		Subject:  fmt.Sprintf("Report closed: %s", store.Name),
		TextBody: body,
	})
}

// =============================================================================
// Internal Methods
// =============================================================================

// send delivers an email via SMTP.
func (s *SMTPNotifier) send(ctx context.Context, email Email) error {
	msg := s.buildMessage(email)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Auth only when credentials are provided (not needed for Mailhog)
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.From, []string{email.To}, msg); err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
	)
	return nil
}

// buildMessage constructs the raw email message with headers.
func (s *SMTPNotifier) buildMessage(email Email) []byte {
	var buf bytes.Buffer

	fromHeader := fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)

	buf.WriteString(fmt.Sprintf("From: %s\r\n", fromHeader))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.TextBody)
	buf.WriteString("\r\n")

	return buf.Bytes()
}

// =============================================================================
// Compile-time interface check
// =============================================================================

var _ Notifier = (*SMTPNotifier)(nil)
