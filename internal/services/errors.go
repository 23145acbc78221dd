package services

import (
	"errors"
	"fmt"

	"github.com/wanderly/travel-agency-backend/internal/database"
)

// ValidationError is a rejected input; nothing was changed
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Guard codes
const (
	GuardBookingTerminal          = "booking_terminal"
	GuardInvalidBookingTransition = "invalid_booking_transition"
	GuardBookingNotModifiable     = "booking_not_modifiable"
	GuardBookingNotCancellable    = "booking_not_cancellable"
	GuardBookingNotPayable        = "booking_not_payable"
	GuardBookingNotPaid           = "booking_not_paid"
	GuardInvalidPaymentTransition = "invalid_payment_transition"
	GuardPaymentNotRefundable     = "payment_not_refundable"
	GuardOverpayment              = "overpayment"
	GuardAmountMismatch           = "amount_mismatch"
	GuardPaidBookingRepriced      = "paid_booking_repriced"
)

// GuardError is a state-guard violation: the request was well formed but the
// current state does not allow it
type GuardError struct {
	Code    string
	Message string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func guardError(code, format string, args ...interface{}) *GuardError {
	return &GuardError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IntegrityError is a data-integrity defect. It is logged and never retried.
type IntegrityError struct {
	Message string
	Err     error
}

func (e *IntegrityError) Error() string {
	if e.Err == nil {
		return "integrity error: " + e.Message
	}
	return fmt.Sprintf("integrity error: %s: %v", e.Message, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

var (
	ErrBookingNotFound        = database.ErrBookingNotFound
	ErrPaymentNotFound        = database.ErrPaymentNotFound
	ErrCommissionRuleNotFound = database.ErrCommissionRuleNotFound
	ErrConcurrencyConflict    = database.ErrConcurrencyConflict

	// ErrForbidden is returned when the actor's role does not allow the operation
	ErrForbidden = errors.New("operation not permitted for this actor")
)

// IsValidation reports whether err is a *ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsGuard reports whether err is a *GuardError, optionally with the given code
func IsGuard(err error, code string) bool {
	var g *GuardError
	if !errors.As(err, &g) {
		return false
	}
	return code == "" || g.Code == code
}
