package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Not-found sentinels returned by repositories in place of sql.ErrNoRows
var (
	ErrBookingNotFound        = errors.New("booking not found")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrCommissionRuleNotFound = errors.New("commission rule not found")
	ErrTourDetailNotFound     = errors.New("tour detail not found")
)

// ErrConcurrencyConflict is returned when another writer changed the row first
// (stale version, serialization failure or deadlock). Callers may retry.
var ErrConcurrencyConflict = errors.New("concurrent modification, please retry")

// Postgres SQLSTATE codes the ledger reacts to
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// Constraint names referenced by callers
const (
	ConstraintBookingReference = "bookings_booking_reference_key"
	ConstraintPaymentReference = "payments_payment_reference_key"
	ConstraintPaymentSequence  = "payments_booking_id_payment_sequence_key"
)

// UniqueViolationError reports a unique constraint violation
type UniqueViolationError struct {
	Constraint string
	Err        error
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique constraint %q violated", e.Constraint)
}

func (e *UniqueViolationError) Unwrap() error {
	return e.Err
}

// IsUniqueViolation reports whether err is a unique violation on the given constraint
func IsUniqueViolation(err error, constraint string) bool {
	var uv *UniqueViolationError
	if !errors.As(err, &uv) {
		return false
	}
	return constraint == "" || uv.Constraint == constraint
}

// MapError translates lib/pq errors into the package's typed errors.
// Unknown errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case codeUniqueViolation:
		return &UniqueViolationError{Constraint: pqErr.Constraint, Err: err}
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %s", ErrConcurrencyConflict, pqErr.Message)
	case codeForeignKeyViolation:
		return fmt.Errorf("foreign key %q violated: %w", pqErr.Constraint, err)
	}
	return err
}
