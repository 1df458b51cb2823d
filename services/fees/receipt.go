package fees

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FormatReceiptNumber renders a sequential receipt number, e.g.
// RCP/2025/00042.
func FormatReceiptNumber(prefix, year string, n int64, pad int) string {
	if pad <= 0 {
		pad = 5
	}
	return fmt.Sprintf("%s/%s/%0*d", prefix, year, pad, n)
}

// nextReceiptNumber obtains a receipt number for the current year. The
// counter advance is atomic on the store side; retries here cover
// transient failures only, never a re-read of a stale value. When the
// counter stays unavailable and the caller opted in, a flagged emergency
// number is issued instead of a fabricated sequential one.
func (s *DefaultFeeService) nextReceiptNumber(ctx context.Context, allowEmergency bool) (number string, emergency bool, err error) {
	year := s.now().Format("2006")

	var lastErr error
	for attempt := 0; attempt < s.retries(); attempt++ {
		n, err := s.Sequence.Next(ctx, year)
		if err == nil {
			return FormatReceiptNumber(s.ReceiptPrefix, year, n, s.ReceiptPad), false, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	if allowEmergency {
		suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
		number := fmt.Sprintf("%s-EMG/%s/%s", s.ReceiptPrefix, year, suffix)
		s.logger().Error("receipt counter unavailable, issuing emergency receipt",
			zap.String("receipt", number), zap.Error(lastErr))
		return number, true, nil
	}
	return "", false, ConflictError{Op: "receipt number issuance", Err: lastErr}
}
