package feestatusRepo

import (
	"context"
	"time"

	"schoolpay/models"

	"github.com/shopspring/decimal"
)

// InitRow is one student's target state for a ledger initialization batch.
type InitRow struct {
	Key          string
	StudentID    string
	StudentName  string
	ClassID      string
	Term         string
	Session      string
	AcademicYear string
	TotalFees    decimal.Decimal
	DueDate      time.Time
}

// StudentFeeStatusRepository persists the per-student ledger rows. All
// monetary mutations run server-side as single atomic updates so two
// concurrent reconciliations of the same row can never base themselves on
// the same stale amountPaid.
type StudentFeeStatusRepository interface {
	// InitializeBatch upserts one ledger row per student. New rows start
	// unpaid with a zero amountPaid; existing rows keep their amountPaid
	// and payment history and have totalFees, dueDate, balance and status
	// recomputed against the new structure. Upserts are idempotent, so a
	// failed batch is safe to retry wholesale.
	InitializeBatch(ctx context.Context, rows []InitRow) error

	GetByKey(ctx context.Context, key string) (*models.StudentFeeStatus, error)

	// ApplyPayment adds amount to the row's amountPaid and records the
	// payment ID, then rederives balance and status, all in one update.
	// It is a no-op (ErrNoDocuments surfaces as nil, nil) when the payment
	// ID is already present on the row.
	ApplyPayment(ctx context.Context, key, paymentID string, amount decimal.Decimal, paidAt time.Time) (*models.StudentFeeStatus, error)

	// ReversePayment subtracts amount and removes the payment ID, clamping
	// amountPaid at zero. Returns nil, nil when the payment ID is not on
	// the row (double reversal guard).
	ReversePayment(ctx context.Context, key, paymentID string, amount decimal.Decimal) (*models.StudentFeeStatus, error)

	ListByClass(ctx context.Context, classID, term, session string) ([]models.StudentFeeStatus, error)
	ListDefaulters(ctx context.Context, term, session, classID string) ([]models.StudentFeeStatus, error)
	EnsureIndexes() error
}
