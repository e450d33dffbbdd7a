// Package domain contains core business types and interfaces.
//
// This file defines the checklist types recorded during a facility
// inspection: per-area condition ratings, notes, photo references, and
// costed repair items.
package domain

import "fmt"

// =============================================================================
// Condition
// =============================================================================

// Condition rates the state of one inspected area.
type Condition string

const (
	// ConditionGood indicates no damage was found.
	ConditionGood Condition = "good"

	// ConditionDamaged indicates damage requiring repair. Damaged entries
	// carry a severity qualifier and costed repair items.
	ConditionDamaged Condition = "damaged"

	// ConditionNotApplicable indicates the area was not inspectable
	// (e.g. under renovation).
	ConditionNotApplicable Condition = "not_applicable"
)

// String returns the string representation of the condition.
func (c Condition) String() string {
	return string(c)
}

// IsValid returns true if the condition is a recognized value.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionGood, ConditionDamaged, ConditionNotApplicable:
		return true
	}
	return false
}

// =============================================================================
// Severity
// =============================================================================

// Severity qualifies how bad the damage is. Only meaningful when the
// entry's condition is ConditionDamaged.
type Severity string

const (
	SeverityLight    Severity = "light"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// IsValid returns true if the severity is a recognized value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLight, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

// =============================================================================
// ChecklistAreaEntry
// =============================================================================

// ChecklistAreaEntry records the inspection of one area within a report.
type ChecklistAreaEntry struct {
	Area      string       // Location label (e.g. "Area Kasir"); unique within a report
	Condition Condition    // Rating for the area
	Severity  Severity     // Required when Condition is damaged
	Note      string       // Required when Condition != good
	Photos    []string     // Ordered opaque photo references, collaborator-owned
	Items     []RepairItem // Ordered costed repair lines; only when damaged
}

// Validate checks the entry's internal invariants.
func (e ChecklistAreaEntry) Validate() error {
	const op = "checklist.validate"

	if e.Area == "" {
		return Invalid(op, "area label is required")
	}
	if !e.Condition.IsValid() {
		return Invalid(op, fmt.Sprintf("invalid condition: %s", e.Condition))
	}
	if e.Condition == ConditionDamaged && !e.Severity.IsValid() {
		return Invalid(op, fmt.Sprintf("damaged area %q requires a severity", e.Area))
	}
	if e.Condition != ConditionGood && e.Note == "" {
		return Invalid(op, fmt.Sprintf("area %q requires a note when condition is not good", e.Area))
	}
	if len(e.Items) > 0 && e.Condition != ConditionDamaged {
		return Invalid(op, fmt.Sprintf("area %q has repair items but is not damaged", e.Area))
	}
	for _, item := range e.Items {
		if _, err := NewRepairItem(item.Name, item.Quantity, item.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Checklist
// =============================================================================

// Checklist is the ordered list of inspected areas on a report.
type Checklist []ChecklistAreaEntry

// Validate checks every entry and the area-uniqueness invariant.
func (c Checklist) Validate() error {
	const op = "checklist.validate"

	seen := make(map[string]struct{}, len(c))
	for _, entry := range c {
		if err := entry.Validate(); err != nil {
			return err
		}
		if _, dup := seen[entry.Area]; dup {
			return Invalid(op, fmt.Sprintf("duplicate area %q", entry.Area))
		}
		seen[entry.Area] = struct{}{}
	}
	return nil
}

// ValidateForSubmission checks the stricter invariants required before a
// report may enter the approval queue: at least one entry, and every
// damaged entry backed by photo evidence and at least one costed item.
func (c Checklist) ValidateForSubmission() error {
	const op = "checklist.validate_submission"

	if err := c.Validate(); err != nil {
		return err
	}
	if len(c) == 0 {
		return Invalid(op, "at least one checklist entry is required")
	}
	for _, entry := range c {
		if entry.Condition != ConditionDamaged {
			continue
		}
		if len(entry.Photos) == 0 {
			return Invalid(op, fmt.Sprintf("damaged area %q requires at least one photo", entry.Area))
		}
		if len(entry.Items) == 0 {
			return Invalid(op, fmt.Sprintf("damaged area %q requires at least one repair item", entry.Area))
		}
	}
	return nil
}

// Clone returns a deep copy so repository snapshots never share slices
// with caller-held reports.
func (c Checklist) Clone() Checklist {
	if c == nil {
		return nil
	}
	out := make(Checklist, len(c))
	for i, entry := range c {
		cp := entry
		cp.Photos = append([]string(nil), entry.Photos...)
		cp.Items = append([]RepairItem(nil), entry.Items...)
		out[i] = cp
	}
	return out
}
