package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeCategory classifies a single line item in a fee structure.
type FeeCategory string

const (
	FeeCategoryTuition     FeeCategory = "tuition"
	FeeCategoryDevelopment FeeCategory = "development"
	FeeCategorySports      FeeCategory = "sports"
	FeeCategoryLibrary     FeeCategory = "library"
	FeeCategoryExam        FeeCategory = "exam"
	FeeCategoryTransport   FeeCategory = "transport"
	FeeCategoryUniform     FeeCategory = "uniform"
	FeeCategoryBooks       FeeCategory = "books"
	FeeCategoryPTA         FeeCategory = "pta"
	FeeCategoryExcursion   FeeCategory = "excursion"
	FeeCategoryOther       FeeCategory = "other"
)

// ValidFeeCategory reports whether c is one of the known categories.
func ValidFeeCategory(c FeeCategory) bool {
	switch c {
	case FeeCategoryTuition, FeeCategoryDevelopment, FeeCategorySports,
		FeeCategoryLibrary, FeeCategoryExam, FeeCategoryTransport,
		FeeCategoryUniform, FeeCategoryBooks, FeeCategoryPTA,
		FeeCategoryExcursion, FeeCategoryOther:
		return true
	}
	return false
}

// FeeStatusState is the ledger status of a student's obligation.
type FeeStatusState string

const (
	FeeStatusUnpaid  FeeStatusState = "unpaid"
	FeeStatusPartial FeeStatusState = "partial"
	FeeStatusPaid    FeeStatusState = "paid"
	FeeStatusOverdue FeeStatusState = "overdue"
)

// PaymentMethod is how a payment was received.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "bank_transfer"
	PaymentMethodPOS      PaymentMethod = "pos"
	PaymentMethodCheque   PaymentMethod = "cheque"
	PaymentMethodOnline   PaymentMethod = "online"
)

// PaymentStatus tracks the single allowed transition verified -> cancelled.
type PaymentStatus string

const (
	PaymentStatusVerified  PaymentStatus = "verified"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// FeeItem is one charge inside a fee structure. Items are immutable once
// embedded in a structure snapshot.
type FeeItem struct {
	Category    FeeCategory     `bson:"category" json:"category"`
	Description string          `bson:"description" json:"description"`
	Amount      decimal.Decimal `bson:"amount" json:"amount"`
	IsMandatory bool            `bson:"isMandatory" json:"isMandatory"`
}

// FeeStructure defines what one class owes for one term and session.
// TotalAmount is always recomputed from Items on write.
type FeeStructure struct {
	ID          string          `bson:"id" json:"id"` // classId-term-session composite
	ClassID     string          `bson:"classId" json:"classId"`
	Term        string          `bson:"term" json:"term"`
	Session     string          `bson:"session" json:"session"`
	Items       []FeeItem       `bson:"items" json:"items"`
	TotalAmount decimal.Decimal `bson:"totalAmount" json:"totalAmount"`
	DueDate     time.Time       `bson:"dueDate" json:"dueDate"`
	CreatedBy   string          `bson:"createdBy" json:"createdBy"`
	IsActive    bool            `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// StudentFeeStatus is the running ledger row for one student, term and
// session. Balance is derived from TotalFees and AmountPaid on every write
// and never mutated independently. Rows are created by ledger
// initialization and are never deleted.
type StudentFeeStatus struct {
	ID           string          `bson:"id" json:"id"` // studentId-term-session composite
	StudentID    string          `bson:"studentId" json:"studentId"`
	StudentName  string          `bson:"studentName,omitempty" json:"studentName,omitempty"`
	ClassID      string          `bson:"classId" json:"classId"`
	Term         string          `bson:"term" json:"term"`
	Session      string          `bson:"session" json:"session"`
	AcademicYear string          `bson:"academicYear,omitempty" json:"academicYear,omitempty"`
	TotalFees    decimal.Decimal `bson:"totalFees" json:"totalFees"`
	AmountPaid   decimal.Decimal `bson:"amountPaid" json:"amountPaid"`
	Balance      decimal.Decimal `bson:"balance" json:"balance"`
	Status       FeeStatusState  `bson:"status" json:"status"`
	Payments     []string        `bson:"payments" json:"payments"`
	DueDate      time.Time       `bson:"dueDate" json:"dueDate"`
	IsOverdue    bool            `bson:"isOverdue" json:"isOverdue"`
	DaysOverdue  int             `bson:"daysOverdue" json:"daysOverdue"`

	LastPaymentDate   *time.Time       `bson:"lastPaymentDate,omitempty" json:"lastPaymentDate,omitempty"`
	LastPaymentAmount *decimal.Decimal `bson:"lastPaymentAmount,omitempty" json:"lastPaymentAmount,omitempty"`

	// Version guards concurrent reconciliations of the same row.
	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FeePayment records one payment event. All fields except Status,
// CancelledAt, CancelledBy and CancelReason are immutable after insert.
type FeePayment struct {
	ID            string          `bson:"id" json:"id"`
	StudentID     string          `bson:"studentId" json:"studentId"`
	StudentName   string          `bson:"studentName,omitempty" json:"studentName,omitempty"`
	GuardianName  string          `bson:"guardianName,omitempty" json:"guardianName,omitempty"`
	GuardianPhone string          `bson:"guardianPhone,omitempty" json:"guardianPhone,omitempty"`
	ClassID       string          `bson:"classId,omitempty" json:"classId,omitempty"`
	Term          string          `bson:"term" json:"term"`
	Session       string          `bson:"session" json:"session"`
	Amount        decimal.Decimal `bson:"amount" json:"amount"`
	Method        PaymentMethod   `bson:"method" json:"method"`
	PaymentDate   time.Time       `bson:"paymentDate" json:"paymentDate"`
	Reference     string          `bson:"reference,omitempty" json:"reference,omitempty"`
	ReceiptNumber string          `bson:"receiptNumber" json:"receiptNumber"`
	// Emergency marks a non-sequential fallback receipt number.
	Emergency bool          `bson:"emergency,omitempty" json:"emergency,omitempty"`
	Items      []FeeItem     `bson:"items,omitempty" json:"items,omitempty"`
	Status     PaymentStatus `bson:"status" json:"status"`
	RecordedBy string        `bson:"recordedBy" json:"recordedBy"`

	CancelledAt  *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancelledBy  string     `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	CancelReason string     `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ReceiptSequence is the singleton per-year receipt counter document.
type ReceiptSequence struct {
	Name       string    `bson:"name" json:"name"` // fixed: "receipt_number"
	Year       string    `bson:"year" json:"year"`
	LastNumber int64     `bson:"lastNumber" json:"lastNumber"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// StudentRecord is the slice of the student directory this subsystem reads.
type StudentRecord struct {
	ID        string `bson:"id" json:"id"`
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	ClassID   string `bson:"classId" json:"classId"`
	ParentID  string `bson:"parentId,omitempty" json:"parentId,omitempty"`
	IsActive  bool   `bson:"isActive" json:"isActive"`
}

// GuardianRecord is the slice of the user directory used to denormalize
// guardian contact details onto payment rows.
type GuardianRecord struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// ClassCollectionSummary aggregates a class ledger for reporting.
type ClassCollectionSummary struct {
	ClassID     string          `json:"classId"`
	Term        string          `json:"term"`
	Session     string          `json:"session"`
	Students    int             `json:"students"`
	Expected    decimal.Decimal `json:"expected"`
	Collected   decimal.Decimal `json:"collected"`
	Outstanding decimal.Decimal `json:"outstanding"`
	FullyPaid   int             `json:"fullyPaid"`
	Defaulters  int             `json:"defaulters"`
}
