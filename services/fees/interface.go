package fees

import (
	"context"
	"time"

	"schoolpay/config"
	directoryRepo "schoolpay/database/repository/directory"
	feestatusRepo "schoolpay/database/repository/feestatus"
	feestructureRepo "schoolpay/database/repository/feestructure"
	paymentRepo "schoolpay/database/repository/payment"
	sequenceRepo "schoolpay/database/repository/sequence"
	"schoolpay/models"
	"schoolpay/utils"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// FeeService is the fee-management subsystem surface the host application
// calls from its route handlers. Term and session are always explicit
// parameters; nothing in here infers the active term from the clock.
type FeeService interface {
	// Structure and ledger setup
	SetFeeStructure(ctx context.Context, input SetFeeStructureInput) (*models.FeeStructure, error)
	GetFeeStructure(ctx context.Context, classID, term, session string) (*models.FeeStructure, error)

	// Payments
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*RecordPaymentResult, error)
	CancelPayment(ctx context.Context, input CancelPaymentInput) (*models.StudentFeeStatus, error)

	// Read-only reporting
	GetStudentFeeStatus(ctx context.Context, studentID, term, session string) (*models.StudentFeeStatus, error)
	GetStudentPayments(ctx context.Context, studentID, term, session string) ([]models.FeePayment, error)
	GetClassFeeStatus(ctx context.Context, classID, term, session string) ([]models.StudentFeeStatus, error)
	GetFeeDefaulters(ctx context.Context, term, session, classID string) ([]models.StudentFeeStatus, error)
	GetClassCollectionSummary(ctx context.Context, classID, term, session string) (*models.ClassCollectionSummary, error)
}

// DefaultFeeService is the production implementation.
type DefaultFeeService struct {
	Structures feestructureRepo.FeeStructureRepository
	Ledger     feestatusRepo.StudentFeeStatusRepository
	Payments   paymentRepo.FeePaymentRepository
	Sequence   sequenceRepo.ReceiptSequenceRepository
	Students   directoryRepo.StudentDirectory
	Guardians  directoryRepo.GuardianDirectory

	// Cache is optional; nil disables read-side caching.
	Cache  *redis.Client
	Logger *zap.Logger

	ReceiptPrefix string
	ReceiptPad    int
	MaxRetries    int

	Now      func() time.Time
	validate *validator.Validate
}

// NewFeeService wires the production service from its repositories.
func NewFeeService(
	structures feestructureRepo.FeeStructureRepository,
	ledger feestatusRepo.StudentFeeStatusRepository,
	payments paymentRepo.FeePaymentRepository,
	sequence sequenceRepo.ReceiptSequenceRepository,
	students directoryRepo.StudentDirectory,
	guardians directoryRepo.GuardianDirectory,
	cache *redis.Client,
	logger *zap.Logger,
) *DefaultFeeService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	svc := &DefaultFeeService{
		Structures:    structures,
		Ledger:        ledger,
		Payments:      payments,
		Sequence:      sequence,
		Students:      students,
		Guardians:     guardians,
		Cache:         cache,
		Logger:        logger,
		ReceiptPrefix: "RCP",
		ReceiptPad:    5,
		MaxRetries:    3,
		Now:           time.Now,
		validate:      validator.New(),
	}
	if config.AppConfig.ReceiptPrefix != "" {
		svc.ReceiptPrefix = config.AppConfig.ReceiptPrefix
	}
	if config.AppConfig.ReceiptPad > 0 {
		svc.ReceiptPad = config.AppConfig.ReceiptPad
	}
	if config.AppConfig.ReconcileRetries > 0 {
		svc.MaxRetries = config.AppConfig.ReconcileRetries
	}
	return svc
}

func (s *DefaultFeeService) validator() *validator.Validate {
	if s.validate == nil {
		s.validate = validator.New()
	}
	return s.validate
}

func (s *DefaultFeeService) logger() *zap.Logger {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultFeeService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *DefaultFeeService) retries() int {
	if s.MaxRetries <= 0 {
		return 3
	}
	return s.MaxRetries
}
