package fees

import (
	"time"

	"schoolpay/models"

	"github.com/shopspring/decimal"
)

// SetFeeStructureInput defines or redefines what a class owes for a term.
type SetFeeStructureInput struct {
	ClassID      string           `validate:"required"`
	Term         string           `validate:"required"`
	Session      string           `validate:"required"`
	AcademicYear string           `validate:"omitempty"`
	Items        []models.FeeItem `validate:"required,min=1"`
	DueDate      time.Time        `validate:"required"`
	CreatedBy    string           `validate:"required"`
}

// RecordPaymentInput captures one incoming payment.
type RecordPaymentInput struct {
	StudentID   string               `validate:"required"`
	Term        string               `validate:"required"`
	Session     string               `validate:"required"`
	Amount      decimal.Decimal      `validate:"-"`
	Method      models.PaymentMethod `validate:"required,oneof=cash bank_transfer pos cheque online"`
	PaymentDate time.Time            `validate:"required"`
	Reference   string               `validate:"omitempty"`
	Items       []models.FeeItem     `validate:"omitempty"`
	RecordedBy  string               `validate:"required"`

	// AllowEmergencyReceipt opts in to a flagged, non-sequential receipt
	// number when the counter is unavailable. Off by default: without it
	// a counter failure aborts the whole recording.
	AllowEmergencyReceipt bool `validate:"-"`
}

// CancelPaymentInput reverses a previously recorded payment.
type CancelPaymentInput struct {
	PaymentID   string `validate:"required"`
	CancelledBy string `validate:"required"`
	Reason      string `validate:"required"`
}

// RecordPaymentResult is returned to the caller on success.
type RecordPaymentResult struct {
	PaymentID     string                   `json:"paymentId"`
	ReceiptNumber string                   `json:"receiptNumber"`
	Emergency     bool                     `json:"emergency,omitempty"`
	Status        *models.StudentFeeStatus `json:"status,omitempty"`
}
