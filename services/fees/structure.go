package fees

import (
	"context"
	"fmt"
	"strings"

	feestatusRepo "schoolpay/database/repository/feestatus"
	"schoolpay/models"
	"schoolpay/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SetFeeStructure validates and persists a class fee structure, then
// materializes the per-student ledger for every active student in the
// class. Initializer failure is structure failure: the structure is
// marked inactive rather than left pointing at a half-initialized ledger.
func (s *DefaultFeeService) SetFeeStructure(ctx context.Context, input SetFeeStructureInput) (*models.FeeStructure, error) {
	if err := s.validator().Struct(input); err != nil {
		return nil, ValidationError{Message: err.Error()}
	}
	total, err := validateItems(input.Items)
	if err != nil {
		return nil, err
	}

	key := utils.FeeStructureKey(input.ClassID, input.Term, input.Session)
	now := s.now()
	fs := models.FeeStructure{
		ID:          key,
		ClassID:     input.ClassID,
		Term:        input.Term,
		Session:     input.Session,
		Items:       input.Items,
		TotalAmount: total,
		DueDate:     input.DueDate,
		CreatedBy:   input.CreatedBy,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Structures.Upsert(ctx, fs); err != nil {
		return nil, fmt.Errorf("failed to save fee structure: %w", err)
	}

	if err := s.initializeLedger(ctx, input, total); err != nil {
		// Roll the structure back to inactive so nothing records
		// payments against a ledger that was never materialized.
		if derr := s.Structures.SetActive(ctx, key, false); derr != nil {
			s.logger().Error("failed to deactivate structure after initializer failure",
				zap.String("structure", key), zap.Error(derr))
		}
		return nil, fmt.Errorf("ledger initialization failed for %s: %w", key, err)
	}

	s.invalidateClassCache(ctx, input.ClassID, input.Term, input.Session)
	s.logger().Info("fee structure set",
		zap.String("structure", key),
		zap.String("total", total.String()),
		zap.Time("dueDate", input.DueDate))
	return &fs, nil
}

// GetFeeStructure returns the structure for the class, term and session,
// nil when none is defined.
func (s *DefaultFeeService) GetFeeStructure(ctx context.Context, classID, term, session string) (*models.FeeStructure, error) {
	return s.Structures.GetByKey(ctx, utils.FeeStructureKey(classID, term, session))
}

// initializeLedger upserts one ledger row per active student as a single
// batch. Existing rows keep their payment history; totals, due date,
// balance and status are recomputed against the new structure. The batch
// is idempotent, so it is retried wholesale on failure.
func (s *DefaultFeeService) initializeLedger(ctx context.Context, input SetFeeStructureInput, total decimal.Decimal) error {
	roster, err := s.Students.ActiveStudentsByClass(ctx, input.ClassID)
	if err != nil {
		return fmt.Errorf("failed to load class roster: %w", err)
	}
	if len(roster) == 0 {
		s.logger().Warn("no active students in class, ledger not materialized",
			zap.String("class", input.ClassID))
		return nil
	}

	s.warnOnRedefinition(ctx, input)

	rows := make([]feestatusRepo.InitRow, 0, len(roster))
	for _, st := range roster {
		rows = append(rows, feestatusRepo.InitRow{
			Key:          utils.StudentFeeStatusKey(st.ID, input.Term, input.Session),
			StudentID:    st.ID,
			StudentName:  strings.TrimSpace(st.FirstName + " " + st.LastName),
			ClassID:      input.ClassID,
			Term:         input.Term,
			Session:      input.Session,
			AcademicYear: input.AcademicYear,
			TotalFees:    total,
			DueDate:      input.DueDate,
		})
	}

	var lastErr error
	for attempt := 0; attempt < s.retries(); attempt++ {
		if lastErr = s.Ledger.InitializeBatch(ctx, rows); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return ConflictError{Op: "ledger initialization", Err: lastErr}
}

// warnOnRedefinition logs when a structure is redefined over a ledger that
// already carries payments. Historical itemized breakdowns are not
// relabeled against the new items; only totals are recomputed.
func (s *DefaultFeeService) warnOnRedefinition(ctx context.Context, input SetFeeStructureInput) {
	existing, err := s.Ledger.ListByClass(ctx, input.ClassID, input.Term, input.Session)
	if err != nil {
		s.logger().Warn("could not inspect existing ledger before redefinition", zap.Error(err))
		return
	}
	withPayments := 0
	for _, row := range existing {
		if row.AmountPaid.GreaterThan(decimal.Zero) {
			withPayments++
		}
	}
	if withPayments > 0 {
		s.logger().Warn("fee structure redefined over ledger with existing payments; historical breakdowns are kept as recorded",
			zap.String("class", input.ClassID),
			zap.String("term", input.Term),
			zap.String("session", input.Session),
			zap.Int("studentsWithPayments", withPayments))
	}
}

func validateItems(items []models.FeeItem) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, item := range items {
		if !models.ValidFeeCategory(item.Category) {
			return decimal.Zero, ValidationError{
				Field:   fmt.Sprintf("items[%d].category", i),
				Message: fmt.Sprintf("unknown fee category %q", item.Category),
			}
		}
		if item.Amount.IsNegative() {
			return decimal.Zero, ValidationError{
				Field:   fmt.Sprintf("items[%d].amount", i),
				Message: "amount must not be negative",
			}
		}
		total = total.Add(item.Amount)
	}
	if !total.GreaterThan(decimal.Zero) {
		return decimal.Zero, ValidationError{
			Field:   "items",
			Message: "fee structure total must be greater than zero",
		}
	}
	return total, nil
}
