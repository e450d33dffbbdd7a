// Package domain contains core business types and interfaces.
//
// This file defines Money and RepairItem. All monetary arithmetic uses
// integer minor units so cost roll-ups never accumulate rounding drift.
package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is a monetary amount in integer minor units (e.g. whole rupiah).
type Money int64

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return m + other
}

// idPrinter formats amounts for Indonesian locale display.
var idPrinter = message.NewPrinter(language.Indonesian)

// Format renders the amount for display, e.g. "Rp 150.000".
// Presentation convenience only; persistence and arithmetic stay in
// minor units.
func (m Money) Format() string {
	return idPrinter.Sprintf("Rp %d", int64(m))
}

// RepairItem is one costed replacement line on a checklist entry.
type RepairItem struct {
	Name      string // Item description (e.g. "Lampu LED")
	Quantity  int    // Always >= 1
	UnitPrice Money  // Always >= 0
}

// NewRepairItem validates and constructs a repair item.
// Returns EINVALID when the name is empty, quantity < 1, or price < 0.
func NewRepairItem(name string, quantity int, unitPrice Money) (RepairItem, error) {
	const op = "repair_item.new"

	if name == "" {
		return RepairItem{}, Invalid(op, "item name is required")
	}
	if quantity < 1 {
		return RepairItem{}, Invalid(op, "quantity must be at least 1")
	}
	if unitPrice < 0 {
		return RepairItem{}, Invalid(op, "unit price cannot be negative")
	}

	return RepairItem{
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}, nil
}

// Subtotal returns quantity * unit price for this line.
func (i RepairItem) Subtotal() Money {
	return Money(int64(i.Quantity)) * i.UnitPrice
}
