package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wanderly/travel-agency-backend/pkg/money"
)

// ============================================================================
// PAYMENT (payments table)
// ============================================================================

// Payment is one monetary transaction attempt against a booking's ledger
type Payment struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	BookingID       uuid.UUID       `json:"booking_id" db:"booking_id"`
	PaymentSequence int             `json:"payment_sequence" db:"payment_sequence"`
	PaymentType     PaymentType     `json:"payment_type" db:"payment_type"`
	PayerRole       PayerRole       `json:"payer_role" db:"payer_role"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Currency        string          `json:"currency" db:"currency"`
	PaymentMethod   PaymentMethod   `json:"payment_method" db:"payment_method"`

	// Gateway correlation
	GatewayReference *string `json:"gateway_reference,omitempty" db:"gateway_reference"`
	GatewayOrderID   *string `json:"gateway_order_id,omitempty" db:"gateway_order_id"`

	PaymentReference string        `json:"payment_reference" db:"payment_reference"`
	Status           PaymentStatus `json:"status" db:"status"`
	FailureReason    *string       `json:"failure_reason,omitempty" db:"failure_reason"`

	// POS / receipt metadata
	ReceiptNumber *string `json:"receipt_number,omitempty" db:"receipt_number"`
	TerminalID    *string `json:"terminal_id,omitempty" db:"terminal_id"`

	AdminOverride  bool       `json:"admin_override" db:"admin_override"`
	OverrideReason *string    `json:"override_reason,omitempty" db:"override_reason"`
	ProcessedBy    *uuid.UUID `json:"processed_by,omitempty" db:"processed_by"`

	// Set on refund-type payments only
	RefundOfPaymentID *uuid.UUID `json:"refund_of_payment_id,omitempty" db:"refund_of_payment_id"`
	Notes             *string    `json:"notes,omitempty" db:"notes"`

	PaymentDate       *time.Time `json:"payment_date,omitempty" db:"payment_date"`
	GatewayCallbackAt *time.Time `json:"gateway_callback_at,omitempty" db:"gateway_callback_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// ErrInvalidPaymentTransition is returned for a status change the ledger does not allow
var ErrInvalidPaymentTransition = errors.New("invalid payment status transition")

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentCancelled},
	PaymentProcessing: {PaymentCompleted, PaymentFailed, PaymentCancelled},
	PaymentCompleted:  {PaymentRefunded},
}

// IsTerminal reports whether no further transition can leave this status
func (s PaymentStatus) IsTerminal() bool {
	return len(paymentTransitions[s]) == 0
}

// IsRefund reports whether this payment returns money to the payer
func (p *Payment) IsRefund() bool {
	return p.PaymentType == PaymentTypeRefund
}

// CanTransitionTo reports whether the status machine allows moving to next
func (p *Payment) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[p.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the payment to next.
// Re-applying the current status is a no-op reported as applied=false.
func (p *Payment) TransitionTo(next PaymentStatus, now time.Time) (bool, error) {
	if p.Status == next {
		return false, nil
	}
	if !p.CanTransitionTo(next) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidPaymentTransition, p.Status, next)
	}

	p.Status = next
	p.UpdatedAt = now
	if next == PaymentCompleted {
		p.PaymentDate = &now
	}
	return true, nil
}

// ApplyCompletedPayment folds a payment that has just become completed into its booking.
// Must be called exactly once per payment, on the transition into completed.
// A refund never decreases paid_amount; it marks the booking refunded instead.
func ApplyCompletedPayment(b *Booking, p *Payment, now time.Time) {
	if p.IsRefund() {
		b.PaymentStatus = BookingPaymentRefunded
		b.UpdatedAt = now
		return
	}

	b.PaidAmount = money.Round2(b.PaidAmount.Add(p.Amount))
	b.RecalculateAmounts()
	if b.PaymentStatus != BookingPaymentRefunded {
		b.PaymentStatus = DeriveBookingPaymentStatus(b.FinalAmount, b.PaidAmount)
	}
	b.UpdatedAt = now
}

// Reasons a payment cannot be refunded
const (
	RefundBlockedStatus        = "payment is not completed"
	RefundBlockedType          = "refund payments cannot be refunded"
	RefundBlockedAmount        = "payment amount is zero"
	RefundBlockedBooking       = "booking is not refund-eligible"
	RefundBlockedAlreadyIssued = "a refund already exists for this payment"
)

// RefundBlocker returns why the payment cannot be refunded, or "" when it can
func RefundBlocker(p *Payment, b *Booking, hasPriorRefund bool) string {
	switch {
	case p.Status != PaymentCompleted:
		return RefundBlockedStatus
	case p.IsRefund():
		return RefundBlockedType
	case !money.IsPositive(p.Amount):
		return RefundBlockedAmount
	case !b.IsRefundable():
		return RefundBlockedBooking
	case hasPriorRefund:
		return RefundBlockedAlreadyIssued
	}
	return ""
}

// CanRefund reports whether a refund may be issued against the payment
func CanRefund(p *Payment, b *Booking, hasPriorRefund bool) bool {
	return RefundBlocker(p, b, hasPriorRefund) == ""
}

// GeneratePaymentReference derives a payment reference from its booking reference and sequence
func GeneratePaymentReference(bookingReference string, sequence int) string {
	return fmt.Sprintf("%s-P%d", bookingReference, sequence)
}

// ============================================================================
// REQUEST/RESPONSE STRUCTS
// ============================================================================

// CreatePaymentRequest records a new payment against a booking
type CreatePaymentRequest struct {
	PaymentType    PaymentType     `json:"payment_type" binding:"required"`
	PayerRole      PayerRole       `json:"payer_role"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency,omitempty"`
	PaymentMethod  PaymentMethod   `json:"payment_method" binding:"required"`
	GatewayOrderID *string         `json:"gateway_order_id,omitempty"`
	ReceiptNumber  *string         `json:"receipt_number,omitempty"`
	TerminalID     *string         `json:"terminal_id,omitempty"`
	AdminOverride  bool            `json:"admin_override"`
	OverrideReason *string         `json:"override_reason,omitempty"`
}

// UpdatePaymentStatusRequest is a staff-driven status change (cash, POS, bank transfer)
type UpdatePaymentStatusRequest struct {
	Status           PaymentStatus `json:"status" binding:"required"`
	FailureReason    *string       `json:"failure_reason,omitempty"`
	GatewayReference *string       `json:"gateway_reference,omitempty"`
	ReceiptNumber    *string       `json:"receipt_number,omitempty"`
}

// CreateRefundRequest issues a refund against a completed payment.
// A nil amount refunds the full source amount.
type CreateRefundRequest struct {
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	PaymentMethod PaymentMethod    `json:"payment_method,omitempty"`
	Reason        string           `json:"reason" binding:"required"`
}

// GatewayCallback is the normalized status notification from a payment gateway
type GatewayCallback struct {
	PaymentReference string           `json:"payment_reference" binding:"required"`
	Status           PaymentStatus    `json:"status" binding:"required"`
	GatewayReference string           `json:"gateway_reference"`
	Amount           *decimal.Decimal `json:"amount,omitempty"`
	CallbackAt       *time.Time       `json:"callback_at,omitempty"`
	FailureReason    *string          `json:"failure_reason,omitempty"`
}

// PaymentResult is returned by status-changing payment operations
type PaymentResult struct {
	Payment *Payment `json:"payment"`
	Booking *Booking `json:"booking"`
	Applied bool     `json:"applied"`
}
