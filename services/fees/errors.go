package fees

import "fmt"

// ValidationError reports bad input the caller can correct and resubmit.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports that a referenced record does not exist. It is
// distinct from ValidationError so callers can tell a malformed request
// from a correct request with missing prerequisite state, e.g. recording
// a payment before the fee structure was set.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// ConflictError reports a transient store-level conflict that survived the
// configured number of retries.
type ConflictError struct {
	Op  string
	Err error
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s failed after retries: %v", e.Op, e.Err)
}

func (e ConflictError) Unwrap() error { return e.Err }

// AlreadyCancelledError rejects a second cancellation of the same payment.
type AlreadyCancelledError struct {
	PaymentID string
}

func (e AlreadyCancelledError) Error() string {
	return fmt.Sprintf("payment %s is already cancelled", e.PaymentID)
}

// PartialApplicationError reports that a payment document is durably
// written but its effect is not reflected on the ledger. The payment ID is
// carried so a repair pass can find and reconcile it; this must never be
// collapsed into plain success or plain failure.
type PartialApplicationError struct {
	PaymentID string
	Err       error
}

func (e PartialApplicationError) Error() string {
	return fmt.Sprintf("payment %s recorded but not reconciled: %v", e.PaymentID, e.Err)
}

func (e PartialApplicationError) Unwrap() error { return e.Err }
