package paymentRepo

import (
	"context"
	"time"

	"schoolpay/models"
)

// FeePaymentRepository persists payment event documents. Payments are
// immutable after insert apart from the verified -> cancelled transition.
type FeePaymentRepository interface {
	Create(ctx context.Context, payment models.FeePayment) (string, error)
	GetByID(ctx context.Context, id string) (*models.FeePayment, error)

	// ListByStudent returns a student's payments sorted newest first.
	// Empty term or session leaves that filter off.
	ListByStudent(ctx context.Context, studentID, term, session string) ([]models.FeePayment, error)

	// MarkCancelled transitions a verified payment to cancelled. Returns
	// false when the payment was not in the verified state, so a second
	// cancellation cannot be applied twice.
	MarkCancelled(ctx context.Context, id, cancelledBy, reason string, at time.Time) (bool, error)

	EnsureIndexes() error
}
