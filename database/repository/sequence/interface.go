package sequenceRepo

import (
	"context"

	"schoolpay/models"
)

// CounterName is the fixed key of the receipt counter document in
// the system_config collection.
const CounterName = "receipt_number"

// ReceiptSequenceRepository hands out strictly increasing receipt numbers
// scoped to a calendar year.
type ReceiptSequenceRepository interface {
	// Next atomically advances the counter for the given year and returns
	// the new value. When the stored year differs from the requested one
	// the counter restarts at 1. Two concurrent calls can never observe
	// the same value.
	Next(ctx context.Context, year string) (int64, error)

	// Current returns the last issued number for the year, zero if the
	// counter has not been used this year.
	Current(ctx context.Context, year string) (int64, error)

	// Get returns the raw counter document, nil if absent.
	Get(ctx context.Context) (*models.ReceiptSequence, error)
}
