package fees

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	feestatusRepo "schoolpay/database/repository/feestatus"
	"schoolpay/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory repository implementations mirroring the Mongo semantics,
// including the atomic apply/reverse guards.

type memStructures struct {
	mu   sync.Mutex
	rows map[string]models.FeeStructure
}

func newMemStructures() *memStructures {
	return &memStructures{rows: make(map[string]models.FeeStructure)}
}

func (m *memStructures) Upsert(_ context.Context, fs models.FeeStructure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[fs.ID] = fs
	return nil
}

func (m *memStructures) GetByKey(_ context.Context, key string) (*models.FeeStructure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fs, ok := m.rows[key]
	if !ok {
		return nil, nil
	}
	cp := fs
	return &cp, nil
}

func (m *memStructures) ListBySession(_ context.Context, term, session string) ([]models.FeeStructure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FeeStructure
	for _, fs := range m.rows {
		if fs.Term == term && fs.Session == session {
			out = append(out, fs)
		}
	}
	return out, nil
}

func (m *memStructures) SetActive(_ context.Context, key string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fs, ok := m.rows[key]
	if !ok {
		return errors.New("structure not found")
	}
	fs.IsActive = active
	m.rows[key] = fs
	return nil
}

func (m *memStructures) EnsureIndexes() error { return nil }

type memLedger struct {
	mu   sync.Mutex
	rows map[string]*models.StudentFeeStatus
	now  func() time.Time

	failInit  int
	failApply int
}

func newMemLedger(now func() time.Time) *memLedger {
	return &memLedger{rows: make(map[string]*models.StudentFeeStatus), now: now}
}

func (m *memLedger) derive(row *models.StudentFeeStatus) {
	d := DeriveStatus(row.TotalFees, row.AmountPaid, m.now(), row.DueDate)
	row.Balance = d.Balance
	row.Status = d.Status
	row.IsOverdue = d.IsOverdue
	row.DaysOverdue = d.DaysOverdue
}

func (m *memLedger) InitializeBatch(_ context.Context, rows []feestatusRepo.InitRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInit > 0 {
		m.failInit--
		return errors.New("simulated batch failure")
	}
	for _, in := range rows {
		row, ok := m.rows[in.Key]
		if !ok {
			row = &models.StudentFeeStatus{
				ID:         in.Key,
				StudentID:  in.StudentID,
				AmountPaid: decimal.Zero,
				Payments:   []string{},
				CreatedAt:  m.now(),
			}
			m.rows[in.Key] = row
		}
		row.StudentName = in.StudentName
		row.ClassID = in.ClassID
		row.Term = in.Term
		row.Session = in.Session
		row.AcademicYear = in.AcademicYear
		row.TotalFees = in.TotalFees
		row.DueDate = in.DueDate
		row.Version++
		row.UpdatedAt = m.now()
		m.derive(row)
	}
	return nil
}

func (m *memLedger) GetByKey(_ context.Context, key string) (*models.StudentFeeStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[key]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (m *memLedger) ApplyPayment(_ context.Context, key, paymentID string, amount decimal.Decimal, paidAt time.Time) (*models.StudentFeeStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failApply > 0 {
		m.failApply--
		return nil, errors.New("simulated reconcile failure")
	}
	row, ok := m.rows[key]
	if !ok || contains(row.Payments, paymentID) {
		return nil, nil
	}
	row.AmountPaid = row.AmountPaid.Add(amount)
	row.Payments = append(row.Payments, paymentID)
	row.LastPaymentDate = &paidAt
	amt := amount
	row.LastPaymentAmount = &amt
	row.Version++
	row.UpdatedAt = m.now()
	m.derive(row)
	cp := *row
	return &cp, nil
}

func (m *memLedger) ReversePayment(_ context.Context, key, paymentID string, amount decimal.Decimal) (*models.StudentFeeStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[key]
	if !ok || !contains(row.Payments, paymentID) {
		return nil, nil
	}
	row.AmountPaid = ClampPaid(row.AmountPaid.Sub(amount))
	kept := row.Payments[:0]
	for _, id := range row.Payments {
		if id != paymentID {
			kept = append(kept, id)
		}
	}
	row.Payments = kept
	row.Version++
	row.UpdatedAt = m.now()
	m.derive(row)
	cp := *row
	return &cp, nil
}

func (m *memLedger) ListByClass(_ context.Context, classID, term, session string) ([]models.StudentFeeStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StudentFeeStatus
	for _, row := range m.rows {
		if row.ClassID == classID && row.Term == term && row.Session == session {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentName < out[j].StudentName })
	return out, nil
}

func (m *memLedger) ListDefaulters(_ context.Context, term, session, classID string) ([]models.StudentFeeStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StudentFeeStatus
	for _, row := range m.rows {
		if row.Term != term || row.Session != session {
			continue
		}
		if classID != "" && row.ClassID != classID {
			continue
		}
		switch row.Status {
		case models.FeeStatusUnpaid, models.FeeStatusPartial, models.FeeStatusOverdue:
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Balance.GreaterThan(out[j].Balance) })
	return out, nil
}

func (m *memLedger) EnsureIndexes() error { return nil }

type memPayments struct {
	mu   sync.Mutex
	rows map[string]*models.FeePayment
}

func newMemPayments() *memPayments {
	return &memPayments{rows: make(map[string]*models.FeePayment)}
}

func (m *memPayments) Create(_ context.Context, payment models.FeePayment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusVerified
	}
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	cp := payment
	m.rows[payment.ID] = &cp
	return payment.ID, nil
}

func (m *memPayments) GetByID(_ context.Context, id string) (*models.FeePayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memPayments) ListByStudent(_ context.Context, studentID, term, session string) ([]models.FeePayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FeePayment
	for _, p := range m.rows {
		if p.StudentID != studentID {
			continue
		}
		if term != "" && p.Term != term {
			continue
		}
		if session != "" && p.Session != session {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate.After(out[j].PaymentDate) })
	return out, nil
}

func (m *memPayments) MarkCancelled(_ context.Context, id, cancelledBy, reason string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.Status != models.PaymentStatusVerified {
		return false, nil
	}
	p.Status = models.PaymentStatusCancelled
	p.CancelledAt = &at
	p.CancelledBy = cancelledBy
	p.CancelReason = reason
	return true, nil
}

func (m *memPayments) EnsureIndexes() error { return nil }

type memSequence struct {
	mu   sync.Mutex
	year string
	last int64
	fail bool
}

func (m *memSequence) Next(_ context.Context, year string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return 0, errors.New("counter unavailable")
	}
	if m.year != year {
		m.year = year
		m.last = 0
	}
	m.last++
	return m.last, nil
}

func (m *memSequence) Current(_ context.Context, year string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.year != year {
		return 0, nil
	}
	return m.last, nil
}

func (m *memSequence) Get(_ context.Context) (*models.ReceiptSequence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.year == "" {
		return nil, nil
	}
	return &models.ReceiptSequence{Name: "receipt_number", Year: m.year, LastNumber: m.last}, nil
}

type memDirectory struct {
	students  map[string]models.StudentRecord
	guardians map[string]models.GuardianRecord
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		students:  make(map[string]models.StudentRecord),
		guardians: make(map[string]models.GuardianRecord),
	}
}

func (m *memDirectory) ActiveStudentsByClass(_ context.Context, classID string) ([]models.StudentRecord, error) {
	var out []models.StudentRecord
	for _, st := range m.students {
		if st.ClassID == classID && st.IsActive {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDirectory) GetStudent(_ context.Context, studentID string) (*models.StudentRecord, error) {
	st, ok := m.students[studentID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (m *memDirectory) GetGuardian(_ context.Context, parentID string) (*models.GuardianRecord, error) {
	g, ok := m.guardians[parentID]
	if !ok {
		return nil, nil
	}
	return &g, nil
}
