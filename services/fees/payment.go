package fees

import (
	"context"
	"fmt"
	"strings"

	"schoolpay/models"
	"schoolpay/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordPayment validates and persists an incoming payment, mints a
// receipt number and applies the amount to the student's ledger. The
// ledger row must already exist; recording against an uninitialized
// ledger fails rather than inventing a totalFees. If the payment document
// lands but reconciliation fails, the orphan is surfaced as a
// PartialApplicationError carrying the payment ID.
func (s *DefaultFeeService) RecordPayment(ctx context.Context, input RecordPaymentInput) (*RecordPaymentResult, error) {
	if err := s.validator().Struct(input); err != nil {
		return nil, ValidationError{Message: err.Error()}
	}
	if !input.Amount.GreaterThan(decimal.Zero) {
		return nil, ValidationError{Field: "amount", Message: "amount must be greater than zero"}
	}
	for i, item := range input.Items {
		if !models.ValidFeeCategory(item.Category) {
			return nil, ValidationError{
				Field:   fmt.Sprintf("items[%d].category", i),
				Message: fmt.Sprintf("unknown fee category %q", item.Category),
			}
		}
	}

	key := utils.StudentFeeStatusKey(input.StudentID, input.Term, input.Session)
	ledger, err := s.Ledger.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, NotFoundError{Kind: "student fee ledger", Key: key}
	}

	student, err := s.Students.GetStudent(ctx, input.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, NotFoundError{Kind: "student", Key: input.StudentID}
	}

	payment := models.FeePayment{
		StudentID:   input.StudentID,
		StudentName: strings.TrimSpace(student.FirstName + " " + student.LastName),
		ClassID:     student.ClassID,
		Term:        input.Term,
		Session:     input.Session,
		Amount:      input.Amount,
		Method:      input.Method,
		PaymentDate: input.PaymentDate,
		Reference:   input.Reference,
		Items:       input.Items,
		Status:      models.PaymentStatusVerified,
		RecordedBy:  input.RecordedBy,
	}
	s.attachGuardian(ctx, student, &payment)

	receipt, emergency, err := s.nextReceiptNumber(ctx, input.AllowEmergencyReceipt)
	if err != nil {
		return nil, err
	}
	payment.ReceiptNumber = receipt
	payment.Emergency = emergency

	paymentID, err := s.Payments.Create(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	status, err := s.applyToLedger(ctx, key, paymentID, input)
	if err != nil {
		return nil, err
	}

	s.invalidateClassCache(ctx, student.ClassID, input.Term, input.Session)
	s.logger().Info("payment recorded",
		zap.String("payment", paymentID),
		zap.String("receipt", receipt),
		zap.String("student", input.StudentID),
		zap.String("amount", input.Amount.String()))

	return &RecordPaymentResult{
		PaymentID:     paymentID,
		ReceiptNumber: receipt,
		Emergency:     emergency,
		Status:        status,
	}, nil
}

// applyToLedger reconciles the payment onto the ledger row with bounded
// retries. A nil, nil result from the repository means the payment ID is
// already on the row, which only happens on a retried apply; the row is
// then re-read and returned.
func (s *DefaultFeeService) applyToLedger(ctx context.Context, key, paymentID string, input RecordPaymentInput) (*models.StudentFeeStatus, error) {
	var lastErr error
	for attempt := 0; attempt < s.retries(); attempt++ {
		status, err := s.Ledger.ApplyPayment(ctx, key, paymentID, input.Amount, input.PaymentDate)
		if err == nil && status != nil {
			return status, nil
		}
		if err == nil {
			// Already applied on a previous attempt.
			return s.Ledger.GetByKey(ctx, key)
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, PartialApplicationError{PaymentID: paymentID, Err: lastErr}
}

// CancelPayment transitions a verified payment to cancelled and reverses
// its monetary effect from the ledger exactly once.
func (s *DefaultFeeService) CancelPayment(ctx context.Context, input CancelPaymentInput) (*models.StudentFeeStatus, error) {
	if err := s.validator().Struct(input); err != nil {
		return nil, ValidationError{Message: err.Error()}
	}

	payment, err := s.Payments.GetByID(ctx, input.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, NotFoundError{Kind: "fee payment", Key: input.PaymentID}
	}
	if payment.Status == models.PaymentStatusCancelled {
		return nil, AlreadyCancelledError{PaymentID: input.PaymentID}
	}

	ok, err := s.Payments.MarkCancelled(ctx, input.PaymentID, input.CancelledBy, input.Reason, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race with another cancellation.
		return nil, AlreadyCancelledError{PaymentID: input.PaymentID}
	}

	key := utils.StudentFeeStatusKey(payment.StudentID, payment.Term, payment.Session)

	var lastErr error
	for attempt := 0; attempt < s.retries(); attempt++ {
		status, err := s.Ledger.ReversePayment(ctx, key, input.PaymentID, payment.Amount)
		if err == nil && status != nil {
			s.invalidateClassCache(ctx, payment.ClassID, payment.Term, payment.Session)
			s.logger().Info("payment cancelled",
				zap.String("payment", input.PaymentID),
				zap.String("student", payment.StudentID),
				zap.String("reason", input.Reason))
			return status, nil
		}
		if err == nil {
			// The payment was never reflected on the ledger: the original
			// recording must have partially applied. Keep it visible.
			return nil, PartialApplicationError{
				PaymentID: input.PaymentID,
				Err:       fmt.Errorf("payment absent from ledger row %s, nothing to reverse", key),
			}
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, PartialApplicationError{PaymentID: input.PaymentID, Err: lastErr}
}

// attachGuardian denormalizes guardian display details onto the payment
// row. Lookup failure is logged, not fatal; the payment stands on its own.
func (s *DefaultFeeService) attachGuardian(ctx context.Context, student *models.StudentRecord, payment *models.FeePayment) {
	if student.ParentID == "" || s.Guardians == nil {
		return
	}
	guardian, err := s.Guardians.GetGuardian(ctx, student.ParentID)
	if err != nil {
		s.logger().Warn("guardian lookup failed",
			zap.String("parent", student.ParentID), zap.Error(err))
		return
	}
	if guardian != nil {
		payment.GuardianName = guardian.Name
		payment.GuardianPhone = guardian.Phone
	}
}
