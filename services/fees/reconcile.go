package fees

import (
	"time"

	"schoolpay/models"

	"github.com/shopspring/decimal"
)

// Derived is the recomputed portion of a ledger row: everything that is a
// function of (totalFees, amountPaid, now, dueDate) and nothing else.
type Derived struct {
	Balance     decimal.Decimal
	Status      models.FeeStatusState
	IsOverdue   bool
	DaysOverdue int
}

// DeriveStatus is the ledger status state machine:
//
//	paid     balance <= 0
//	partial  balance > 0 and amountPaid > 0
//	unpaid   amountPaid <= 0
//
// with overdue overlaid on unpaid or partial when the due date has passed
// and a balance remains. The Mongo repository applies the same rules
// server-side; this function is the reference definition and serves
// in-memory implementations and tests.
func DeriveStatus(totalFees, amountPaid decimal.Decimal, now, dueDate time.Time) Derived {
	balance := totalFees.Sub(amountPaid)

	var status models.FeeStatusState
	switch {
	case balance.LessThanOrEqual(decimal.Zero):
		status = models.FeeStatusPaid
	case amountPaid.GreaterThan(decimal.Zero):
		status = models.FeeStatusPartial
	default:
		status = models.FeeStatusUnpaid
	}

	overdue := now.After(dueDate) && balance.GreaterThan(decimal.Zero)
	days := 0
	if overdue {
		status = models.FeeStatusOverdue
		days = int(now.Sub(dueDate).Hours() / 24)
		if days < 0 {
			days = 0
		}
	}

	return Derived{
		Balance:     balance,
		Status:      status,
		IsOverdue:   overdue,
		DaysOverdue: days,
	}
}

// ClampPaid keeps cumulative amountPaid from going below zero when a
// cancellation is applied, guarding against double reversal.
func ClampPaid(amountPaid decimal.Decimal) decimal.Decimal {
	if amountPaid.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return amountPaid
}
