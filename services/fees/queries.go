package fees

import (
	"context"
	"encoding/json"
	"fmt"

	"schoolpay/models"
	"schoolpay/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetStudentFeeStatus returns one ledger row, nil when the ledger was
// never initialized for that student, term and session.
func (s *DefaultFeeService) GetStudentFeeStatus(ctx context.Context, studentID, term, session string) (*models.StudentFeeStatus, error) {
	return s.Ledger.GetByKey(ctx, utils.StudentFeeStatusKey(studentID, term, session))
}

// GetStudentPayments returns a student's payments newest first, optionally
// filtered by term and session.
func (s *DefaultFeeService) GetStudentPayments(ctx context.Context, studentID, term, session string) ([]models.FeePayment, error) {
	return s.Payments.ListByStudent(ctx, studentID, term, session)
}

// GetClassFeeStatus returns the ledger roster for a whole class. Results
// are served from cache when fresh.
func (s *DefaultFeeService) GetClassFeeStatus(ctx context.Context, classID, term, session string) ([]models.StudentFeeStatus, error) {
	cacheKey := classStatusCacheKey(classID, term, session)
	if rows, ok := s.cacheFetchStatuses(ctx, cacheKey); ok {
		return rows, nil
	}

	rows, err := s.Ledger.ListByClass(ctx, classID, term, session)
	if err != nil {
		return nil, err
	}
	s.cacheStore(ctx, cacheKey, rows)
	return rows, nil
}

// GetFeeDefaulters returns every student still owing for the term and
// session, optionally narrowed to one class.
func (s *DefaultFeeService) GetFeeDefaulters(ctx context.Context, term, session, classID string) ([]models.StudentFeeStatus, error) {
	cacheKey := defaultersCacheKey(term, session, classID)
	if rows, ok := s.cacheFetchStatuses(ctx, cacheKey); ok {
		return rows, nil
	}

	rows, err := s.Ledger.ListDefaulters(ctx, term, session, classID)
	if err != nil {
		return nil, err
	}
	s.cacheStore(ctx, cacheKey, rows)
	return rows, nil
}

// GetClassCollectionSummary aggregates the class ledger into expected,
// collected and outstanding totals.
func (s *DefaultFeeService) GetClassCollectionSummary(ctx context.Context, classID, term, session string) (*models.ClassCollectionSummary, error) {
	rows, err := s.Ledger.ListByClass(ctx, classID, term, session)
	if err != nil {
		return nil, err
	}

	summary := &models.ClassCollectionSummary{
		ClassID:     classID,
		Term:        term,
		Session:     session,
		Students:    len(rows),
		Expected:    decimal.Zero,
		Collected:   decimal.Zero,
		Outstanding: decimal.Zero,
	}
	for _, row := range rows {
		summary.Expected = summary.Expected.Add(row.TotalFees)
		summary.Collected = summary.Collected.Add(row.AmountPaid)
		summary.Outstanding = summary.Outstanding.Add(row.Balance)
		if row.Status == models.FeeStatusPaid {
			summary.FullyPaid++
		} else {
			summary.Defaulters++
		}
	}
	return summary, nil
}

func classStatusCacheKey(classID, term, session string) string {
	return fmt.Sprintf("fees:class:%s", utils.FeeStructureKey(classID, term, session))
}

func defaultersCacheKey(term, session, classID string) string {
	if classID == "" {
		classID = "all"
	}
	return fmt.Sprintf("fees:defaulters:%s", utils.FeeStructureKey(classID, term, session))
}

// cacheFetchStatuses reads and decodes a cached status list. Any cache
// failure is treated as a miss.
func (s *DefaultFeeService) cacheFetchStatuses(ctx context.Context, key string) ([]models.StudentFeeStatus, bool) {
	if s.Cache == nil {
		return nil, false
	}
	raw, err := s.Cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var rows []models.StudentFeeStatus
	if err := json.Unmarshal(raw, &rows); err != nil {
		s.logger().Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		s.Cache.Del(ctx, key)
		return nil, false
	}
	return rows, true
}

func (s *DefaultFeeService) cacheStore(ctx context.Context, key string, value any) {
	if s.Cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, key, raw, utils.CacheTTL()).Err(); err != nil {
		s.logger().Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidateClassCache drops the read-model entries a ledger write makes
// stale: the class roster view and both defaulter views.
func (s *DefaultFeeService) invalidateClassCache(ctx context.Context, classID, term, session string) {
	if s.Cache == nil {
		return
	}
	keys := []string{
		classStatusCacheKey(classID, term, session),
		defaultersCacheKey(term, session, classID),
		defaultersCacheKey(term, session, ""),
	}
	if err := s.Cache.Del(ctx, keys...).Err(); err != nil {
		s.logger().Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
