// Package export provides PDF generation for archived maintenance reports.
//
// Administrators export a closed report as a PDF document for the store's
// maintenance archive. The generator renders the full checklist with per-area
// findings, repair line items, and cost roll-ups.
package export

import (
	"context"
	"io"
	"time"

	"github.com/mfauzirahman/rawatoko/internal/domain"
)

// =============================================================================
// Generator Interface
// =============================================================================

// Generator defines the interface for report document generators.
type Generator interface {
	// Generate creates a document and writes it to the provided writer.
	// Returns the number of bytes written and any error.
	Generate(ctx context.Context, data *Data, w io.Writer) (int64, error)
}

// Data is everything a generator needs to render one report document.
// The caller assembles it; generators never reach back into repositories.
type Data struct {
	Report      *domain.Report
	Store       *domain.Store
	GeneratedAt time.Time
}

// =============================================================================
// Palette
// =============================================================================

// Palette defines the color scheme for exported documents.
var Palette = struct {
	Header    string // Document header bar
	TextDark  string // Primary text
	TextMuted string // Secondary text
	Border    string // Borders and dividers
	TableFill string // Table header background
}{
	Header:    "#1E3A5F",
	TextDark:  "#1F2937",
	TextMuted: "#6B7280",
	Border:    "#E5E7EB",
	TableFill: "#F5F5F5",
}

// severityColors maps damage severity to a display color.
var severityColors = map[domain.Severity]string{
	domain.SeveritySevere:   "#DC2626",
	domain.SeverityModerate: "#F59E0B",
	domain.SeverityLight:    "#3B82F6",
}

// SeverityColor returns the display color for a severity level.
func SeverityColor(severity domain.Severity) string {
	if color, ok := severityColors[severity]; ok {
		return color
	}
	return Palette.TextMuted
}

// ConditionLabel returns a human-readable label for an area condition.
func ConditionLabel(condition domain.Condition) string {
	switch condition {
	case domain.ConditionGood:
		return "Good"
	case domain.ConditionDamaged:
		return "Damaged"
	case domain.ConditionNotApplicable:
		return "Not Applicable"
	default:
		return string(condition)
	}
}

// SeverityLabel returns a human-readable label for a damage severity.
func SeverityLabel(severity domain.Severity) string {
	switch severity {
	case domain.SeveritySevere:
		return "Severe"
	case domain.SeverityModerate:
		return "Moderate"
	case domain.SeverityLight:
		return "Light"
	default:
		return string(severity)
	}
}

// StatusLabel returns a human-readable label for a report status.
func StatusLabel(status domain.ReportStatus) string {
	switch status {
	case domain.StatusDraft:
		return "Draft"
	case domain.StatusPendingApproval:
		return "Pending Approval"
	case domain.StatusApproved:
		return "Approved"
	case domain.StatusRejected:
		return "Rejected"
	case domain.StatusInProgress:
		return "In Progress"
	case domain.StatusSolved:
		return "Solved"
	case domain.StatusClosed:
		return "Closed"
	default:
		return string(status)
	}
}

// =============================================================================
// Color Conversion Helpers
// =============================================================================

// HexToRGB converts a hex color string to RGB values.
// Input format: "#RRGGBB" or "RRGGBB"
func HexToRGB(hex string) (r, g, b int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}

	r = hexToDec(hex[0:2])
	g = hexToDec(hex[2:4])
	b = hexToDec(hex[4:6])
	return
}

// hexToDec converts a 2-character hex string to decimal.
func hexToDec(hex string) int {
	val := 0
	for _, c := range hex {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

// =============================================================================
// Text Formatting Helpers
// =============================================================================

// FormatDate formats a date for display in documents.
func FormatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// FormatDateTime formats a datetime for display in documents.
func FormatDateTime(t time.Time) string {
	return t.Format("January 2, 2006 at 15:04")
}
