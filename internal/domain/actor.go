// Package domain contains core business types and interfaces.
//
// This file defines the Actor and Role types used for authorization
// decisions, and the Store reference data a report is filed against.
package domain

import "github.com/google/uuid"

// =============================================================================
// Role
// =============================================================================

// Role identifies what an actor is allowed to do in the approval workflow.
// An actor holds exactly one role.
type Role string

const (
	// RoleFieldReporter files damage reports and drives them through
	// submission, rework, and repair execution.
	RoleFieldReporter Role = "field_reporter"

	// RoleApprover reviews pending reports and approves or rejects them.
	RoleApprover Role = "approver"

	// RoleAdministrator closes solved reports and archives documents.
	RoleAdministrator Role = "administrator"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is a recognized value.
func (r Role) IsValid() bool {
	switch r {
	case RoleFieldReporter, RoleApprover, RoleAdministrator:
		return true
	}
	return false
}

// =============================================================================
// Actor
// =============================================================================

// Actor is the authenticated identity behind a request. Supplied by the
// session layer on every call; the core never mutates it.
type Actor struct {
	ID       uuid.UUID // Unique identifier
	Name     string    // Display name
	Role     Role      // Exactly one role per actor
	BranchID string    // Optional branch affiliation
}

// =============================================================================
// Store
// =============================================================================

// Store is immutable reference data for the facility a report is filed
// against. Owned externally, referenced by ID from a Report.
type Store struct {
	ID      string // External store code (e.g. "T001")
	Name    string // Display name
	Address string // Street address
}
