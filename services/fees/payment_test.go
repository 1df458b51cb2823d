package fees

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"schoolpay/models"

	"github.com/stretchr/testify/require"
)

func TestRecordPaymentScenarios(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent("S1", "Ada", "Obi", "C1", "P1")
	env.directory.guardians["P1"] = models.GuardianRecord{ID: "P1", Name: "Mr Obi", Phone: "+2348000000001"}
	env.setStandardStructure(t)
	ctx := context.Background()

	// Scenario B: first payment of the year.
	res, err := env.svc.RecordPayment(ctx, RecordPaymentInput{
		StudentID: "S1", Term: "First Term", Session: "2025/2026",
		Amount: money(60000), Method: models.PaymentMethodTransfer,
		PaymentDate: env.clock, Reference: "TRF-123", RecordedBy: "bursar-1",
	})
	require.NoError(t, err)
	require.Equal(t, "RCP/2025/00001", res.ReceiptNumber)
	require.False(t, res.Emergency)
	require.True(t, res.Status.AmountPaid.Equal(money(60000)))
	require.True(t, res.Status.Balance.Equal(money(90000)))
	require.Equal(t, models.FeeStatusPartial, res.Status.Status)

	firstPaymentID := res.PaymentID

	stored, err := env.svc.GetStudentPayments(ctx, "S1", "First Term", "2025/2026")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, models.PaymentStatusVerified, stored[0].Status)
	require.Equal(t, "Mr Obi", stored[0].GuardianName)
	require.Equal(t, "+2348000000001", stored[0].GuardianPhone)

	// Scenario C: second payment settles the balance.
	res, err = env.svc.RecordPayment(ctx, RecordPaymentInput{
		StudentID: "S1", Term: "First Term", Session: "2025/2026",
		Amount: money(90000), Method: models.PaymentMethodCash,
		PaymentDate: env.clock, RecordedBy: "bursar-1",
	})
	require.NoError(t, err)
	require.Equal(t, "RCP/2025/00002", res.ReceiptNumber)
	require.True(t, res.Status.AmountPaid.Equal(money(150000)))
	require.True(t, res.Status.Balance.IsZero())
	require.Equal(t, models.FeeStatusPaid, res.Status.Status)

	// Scenario D: cancelling the first payment reopens the balance.
	status, err := env.svc.CancelPayment(ctx, CancelPaymentInput{
		PaymentID: firstPaymentID, CancelledBy: "admin-1", Reason: "duplicate entry",
	})
	require.NoError(t, err)
	require.True(t, status.AmountPaid.Equal(money(90000)))
	require.True(t, status.Balance.Equal(money(60000)))
	require.Equal(t, models.FeeStatusPartial, status.Status)
	require.NotContains(t, status.Payments, firstPaymentID)

	cancelled, err := env.payments.GetByID(ctx, firstPaymentID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCancelled, cancelled.Status)
	require.Equal(t, "duplicate entry", cancelled.CancelReason)

	// Receipt numbers are never reused, even after a cancellation.
	res, err = env.svc.RecordPayment(ctx, RecordPaymentInput{
		StudentID: "S1", Term: "First Term", Session: "2025/2026",
		Amount: money(10000), Method: models.PaymentMethodCash,
		PaymentDate: env.clock, RecordedBy: "bursar-1",
	})
	require.NoError(t, err)
	require.Equal(t, "RCP/2025/00003", res.ReceiptNumber)
}

func TestRecordPaymentValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent("S1", "Ada", "Obi", "C1", "")
	env.setStandardStructure(t)
	ctx := context.Background()

	base := RecordPaymentInput{
		StudentID: "S1", Term: "First Term", Session: "2025/2026",
		Amount: money(1000), Method: models.PaymentMethodCash,
		PaymentDate: env.clock, RecordedBy: "bursar-1",
	}

	t.Run("zero amount", func(t *testing.T) {
		in := base
		in.Amount = money(0)
		_, err := env.svc.RecordPayment(ctx, in)
		require.ErrorAs(t, err, &ValidationError{})
	})

	t.Run("negative amount", func(t *testing.T) {
		in := base
		in.Amount = money(-50)
		_, err := env.svc.RecordPayment(ctx, in)
		require.ErrorAs(t, err, &ValidationError{})
	})

	t.Run("unknown method", func(t *testing.T) {
		in := base
		in.Method = "barter"
		_, err := env.svc.RecordPayment(ctx, in)
		require.ErrorAs(t, err, &ValidationError{})
	})

	t.Run("missing recorder", func(t *testing.T) {
		in := base
		in.RecordedBy = ""
		_, err := env.svc.RecordPayment(ctx, in)
		require.ErrorAs(t, err, &ValidationError{})
	})
}

func TestRecordPaymentRequiresInitializedLedger(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent("S1", "Ada", "Obi", "C1", "")
	// No fee structure set: the ledger row does not exist.

	_, err := env.svc.RecordPayment(context.Background(), RecordPaymentInput{
		StudentID: "S1", Term: "First Term", Session: "2025/2026",
		Amount: money(1000), Method: models.PaymentMethodCash,
		PaymentDate: env.clock, RecordedBy: "bursar-1",
	})
	var nf NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "student fee ledger", nf.Kind)
}

func TestRecordPaymentUnknownStudent(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent("S1", "Ada", "Obi", "C1", "")
	env.setStandardStructure(t)

	// Forge a ledger key for a student missing from the directory.
	env.directory.students["S2"] = models.StudentRecord{ID: "S2", ClassID: "C1", IsActive: true}
	env.setStandardStructure(t)
	delete(env.directory.students, "S2")

	_, err := env.svc.RecordPayment(context.Background(), RecordPaymentInput{
		StudentID: "S2", Term: "First Term", Session: "2025/2026",
		Amount: money(1000), Method: models.PaymentMethodCash,
		PaymentDate: env.clock, RecordedBy: "bursar-1",
	})
	var nf NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "student", nf.Kind)
}

func TestRecordPaymentPartialApplication(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent("S1", "Ada", "Obi", "C1", "")
	env.setStandardStructure(t)
	env.ledger.failApply = 10 // reconciliation keeps failing

	_, err := env.svc.RecordPayment(context.Background(), RecordPaymentInput{
		StudentID: "S1", Term: "First Term", Session: "2025/2026",
		Amount: money(60000), Method: models.PaymentMethodCash,
		PaymentDate: env.clock, RecordedBy: "bursar-1",
	})
	var pa PartialApplicationError
	require.ErrorAs(t, err, &pa)
	require.NotEmpty(t, pa.PaymentID)

	// The orphaned payment is durably recorded for a later repair pass.
	orphan, gerr := env.payments.GetByID(context.Background(), pa.PaymentID)
	require.NoError(t, gerr)
	require.NotNil(t, orphan)
	require.Equal(t, models.PaymentStatusVerified, orphan.Status)

	// The ledger itself is untouched.
	status, gerr := env.svc.GetStudentFeeStatus(context.Background(), "S1", "First Term", "2025/2026")
	require.NoError(t, gerr)
	require.True(t, status.AmountPaid.IsZero())
}

func TestRecordPaymentReconcileRetrySucceeds(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent("S1", "Ada", "Obi", "C1", "")
	env.setStandardStructure(t)
	env.ledger.failApply = 1

	res, err := env.svc.RecordPayment(context.Background(), RecordPaymentInput{
		StudentID: "S1", Term: "First Term", Session: "2025/2026",
		Amount: money(60000), Method: models.PaymentMethodCash,
		PaymentDate: env.clock, RecordedBy: "bursar-1",
	})
	require.NoError(t, err)
	require.True(t, res.Status.AmountPaid.Equal(money(60000)))
}

func TestCancelPaymentIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent("S1", "Ada", "Obi", "C1", "")
	env.setStandardStructure(t)
	ctx := context.Background()

	res, err := env.svc.RecordPayment(ctx, RecordPaymentInput{
		StudentID: "S1", Term: "First Term", Session: "2025/2026",
		Amount: money(60000), Method: models.PaymentMethodCash,
		PaymentDate: env.clock, RecordedBy: "bursar-1",
	})
	require.NoError(t, err)

	cancel := CancelPaymentInput{PaymentID: res.PaymentID, CancelledBy: "admin-1", Reason: "entry error"}
	status, err := env.svc.CancelPayment(ctx, cancel)
	require.NoError(t, err)
	require.True(t, status.AmountPaid.IsZero())
	require.Equal(t, models.FeeStatusUnpaid, status.Status)

	// Second cancellation is rejected, not applied twice.
	_, err = env.svc.CancelPayment(ctx, cancel)
	require.ErrorAs(t, err, &AlreadyCancelledError{})

	after, err := env.svc.GetStudentFeeStatus(ctx, "S1", "First Term", "2025/2026")
	require.NoError(t, err)
	require.True(t, after.AmountPaid.IsZero(), "double cancellation must not drive amountPaid negative")
	require.True(t, after.Balance.Equal(money(150000)))
}

func TestCancelUnknownPayment(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.CancelPayment(context.Background(), CancelPaymentInput{
		PaymentID: "nope", CancelledBy: "admin-1", Reason: "n/a",
	})
	require.ErrorAs(t, err, &NotFoundError{})
}

func TestEmergencyReceiptFallback(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent("S1", "Ada", "Obi", "C1", "")
	env.setStandardStructure(t)
	env.sequence.fail = true
	ctx := context.Background()

	in := RecordPaymentInput{
		StudentID: "S1", Term: "First Term", Session: "2025/2026",
		Amount: money(60000), Method: models.PaymentMethodCash,
		PaymentDate: env.clock, RecordedBy: "bursar-1",
	}

	// Without opt-in the whole recording aborts.
	_, err := env.svc.RecordPayment(ctx, in)
	require.ErrorAs(t, err, &ConflictError{})
	status, gerr := env.svc.GetStudentFeeStatus(ctx, "S1", "First Term", "2025/2026")
	require.NoError(t, gerr)
	require.True(t, status.AmountPaid.IsZero())

	// With opt-in the receipt is flagged and non-sequential.
	in.AllowEmergencyReceipt = true
	res, err := env.svc.RecordPayment(ctx, in)
	require.NoError(t, err)
	require.True(t, res.Emergency)
	require.Regexp(t, `^RCP-EMG/2025/[0-9a-f]{8}$`, res.ReceiptNumber)
}

func TestConcurrentReceiptNumbersAreGapFree(t *testing.T) {
	env := newTestEnv(t)
	const n = 40

	var wg sync.WaitGroup
	numbers := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			numbers[i], _, errs[i] = env.svc.nextReceiptNumber(context.Background(), false)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, num := range numbers {
		require.False(t, seen[num], "duplicate receipt number %s", num)
		seen[num] = true
	}
	// Exactly {1..n}, no gaps.
	for k := 1; k <= n; k++ {
		want := fmt.Sprintf("RCP/2025/%05d", k)
		require.True(t, seen[want], "missing receipt number %s", want)
	}
}
