package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wanderly/travel-agency-backend/pkg/money"
)

// ============================================================================
// BOOKING (bookings table)
// ============================================================================

// Booking is one customer reservation of a service for a date or date range
type Booking struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	ServiceType      ServiceType `json:"service_type" db:"service_type"`
	BookingReference string      `json:"booking_reference" db:"booking_reference"`

	// Identity references (owned by the identity service)
	CustomerID *uuid.UUID `json:"customer_id,omitempty" db:"customer_id"`
	AgentID    *uuid.UUID `json:"agent_id,omitempty" db:"agent_id"`
	CreatedBy  *uuid.UUID `json:"created_by,omitempty" db:"created_by"`

	// Passengers
	Adults   int `json:"adults" db:"adults"`
	Children int `json:"children" db:"children"`

	// Pricing inputs
	OriginalPrice        decimal.Decimal `json:"original_price" db:"original_price"`
	SellingPrice         decimal.Decimal `json:"selling_price" db:"selling_price"`
	AgentDiscountPercent decimal.Decimal `json:"agent_discount_percent" db:"agent_discount_percent"`
	AgentCostPrice       decimal.Decimal `json:"agent_cost_price" db:"agent_cost_price"`
	AdditionalCharges    decimal.Decimal `json:"additional_charges" db:"additional_charges"`
	DiscountAmount       decimal.Decimal `json:"discount_amount" db:"discount_amount"`

	// Derived amounts
	FinalAmount decimal.Decimal `json:"final_amount" db:"final_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	DueAmount   decimal.Decimal `json:"due_amount" db:"due_amount"`
	Currency    string          `json:"currency" db:"currency"`

	// Partial payments
	AllowPartialPayment  bool            `json:"allow_partial_payment" db:"allow_partial_payment"`
	MinimumPartialAmount decimal.Decimal `json:"minimum_partial_amount" db:"minimum_partial_amount"`

	// Customer contact / identity
	CustomerName        string  `json:"customer_name" db:"customer_name"`
	Email               string  `json:"email" db:"email"`
	CustomerPhone       string  `json:"customer_phone" db:"customer_phone"`
	CustomerNationality *string `json:"customer_nationality,omitempty" db:"customer_nationality"`
	CustomerPassportNo  *string `json:"customer_passport_no,omitempty" db:"customer_passport_no"`
	CustomerAddress     *string `json:"customer_address,omitempty" db:"customer_address"`

	// Schedule (calendar dates)
	ServiceDate    *time.Time `json:"service_date,omitempty" db:"service_date"`
	ServiceEndDate *time.Time `json:"service_end_date,omitempty" db:"service_end_date"`

	// Status
	BookingSource BookingSource        `json:"booking_source" db:"booking_source"`
	Status        BookingStatus        `json:"status" db:"status"`
	PaymentStatus BookingPaymentStatus `json:"payment_status" db:"payment_status"`
	AdminOverride bool                 `json:"admin_override" db:"admin_override"`

	Notes          *string `json:"notes,omitempty" db:"notes"`
	BookingDetails JSONB   `json:"booking_details,omitempty" db:"booking_details"`

	// Lifecycle timestamps
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason *string    `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancelledBy        *uuid.UUID `json:"cancelled_by,omitempty" db:"cancelled_by"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ============================================================================
// GUARD PREDICATES
// ============================================================================

// CanMakePayment reports whether a new (non-refund) payment may be taken
func (b *Booking) CanMakePayment() bool {
	return b.Status != BookingCancelled &&
		b.PaymentStatus != BookingPaymentPaid &&
		money.IsPositive(b.DueAmount)
}

// CanCancel reports whether the booking may be cancelled as of now
func (b *Booking) CanCancel(now time.Time) bool {
	if b.Status.IsTerminal() {
		return false
	}
	if b.ServiceDate == nil {
		return true
	}
	return daysUntil(*b.ServiceDate, now) > 0
}

// CanModify reports whether the booking may be edited as of now.
// Edits close one day before the service date.
func (b *Booking) CanModify(now time.Time) bool {
	if b.Status.IsTerminal() {
		return false
	}
	if b.ServiceDate == nil {
		return true
	}
	return daysUntil(*b.ServiceDate, now) > 1
}

// IsRefundable reports whether money collected on this booking can be returned
func (b *Booking) IsRefundable() bool {
	return money.IsPositive(b.PaidAmount) &&
		b.Status == BookingCancelled &&
		b.PaymentStatus != BookingPaymentRefunded
}

// CanTransitionTo reports whether the lifecycle allows moving to next
func (b *Booking) CanTransitionTo(next BookingStatus) bool {
	switch b.Status {
	case BookingDraft:
		return next == BookingConfirmed || next == BookingCompleted || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingCompleted || next == BookingCancelled
	default:
		return false
	}
}

// ============================================================================
// PROJECTIONS
// ============================================================================

// Status labels shown to collaborators
const (
	LabelCancelled = "Cancelled"
	LabelCompleted = "Completed"
	LabelToday     = "Today"
	LabelUpcoming  = "Upcoming"
	LabelPastDue   = "Past Due"
	LabelActive    = "Active"
)

// TotalPassengers returns adults + children
func (b *Booking) TotalPassengers() int {
	return b.Adults + b.Children
}

// RemainingAmount returns the amount still owed
func (b *Booking) RemainingAmount() decimal.Decimal {
	return CalculateDueAmount(b.FinalAmount, b.PaidAmount)
}

// StayDurationDays returns the inclusive number of days between service date and end date (minimum 1)
func (b *Booking) StayDurationDays() int {
	if b.ServiceDate == nil || b.ServiceEndDate == nil {
		return 1
	}
	days := daysUntil(*b.ServiceEndDate, *b.ServiceDate) + 1
	if days < 1 {
		return 1
	}
	return days
}

// StatusLabel returns a coarse human label for the booking as of now
func (b *Booking) StatusLabel(now time.Time) string {
	switch b.Status {
	case BookingCancelled:
		return LabelCancelled
	case BookingCompleted:
		return LabelCompleted
	}

	if b.ServiceDate == nil {
		return LabelActive
	}

	switch days := daysUntil(*b.ServiceDate, now); {
	case days == 0:
		return LabelToday
	case days > 0:
		return LabelUpcoming
	default:
		return LabelPastDue
	}
}

// PaymentProgress returns the paid share of the final amount as a percentage
func (b *Booking) PaymentProgress() decimal.Decimal {
	return money.Percent(b.PaidAmount, b.FinalAmount)
}

// BookingSummary bundles the read-only projections for API consumers
type BookingSummary struct {
	TotalPassengers  int             `json:"total_passengers"`
	RemainingAmount  decimal.Decimal `json:"remaining_amount"`
	StayDurationDays int             `json:"stay_duration_days"`
	StatusLabel      string          `json:"status_label"`
	PaymentProgress  decimal.Decimal `json:"payment_progress"`
	CanMakePayment   bool            `json:"can_make_payment"`
	CanCancel        bool            `json:"can_cancel"`
	CanModify        bool            `json:"can_modify"`
	IsRefundable     bool            `json:"is_refundable"`
}

// Summary computes all projections and guards as of now
func (b *Booking) Summary(now time.Time) BookingSummary {
	return BookingSummary{
		TotalPassengers:  b.TotalPassengers(),
		RemainingAmount:  b.RemainingAmount(),
		StayDurationDays: b.StayDurationDays(),
		StatusLabel:      b.StatusLabel(now),
		PaymentProgress:  b.PaymentProgress(),
		CanMakePayment:   b.CanMakePayment(),
		CanCancel:        b.CanCancel(now),
		CanModify:        b.CanModify(now),
		IsRefundable:     b.IsRefundable(),
	}
}

// civilDate strips the time of day, keeping the calendar date as seen in t's location
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysUntil returns the whole calendar days from `from` to `to`
func daysUntil(to, from time.Time) int {
	return int(civilDate(to).Sub(civilDate(from)).Hours() / 24)
}

// ============================================================================
// REQUEST/RESPONSE STRUCTS
// ============================================================================

// CreateBookingRequest is the request to create a booking.
// Prices arrive already resolved by the catalog collaborator.
type CreateBookingRequest struct {
	ServiceType   ServiceType   `json:"service_type" binding:"required"`
	BookingSource BookingSource `json:"booking_source" binding:"required"`

	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	AgentID    *uuid.UUID `json:"agent_id,omitempty"`

	Adults   int `json:"adults"`
	Children int `json:"children"`

	OriginalPrice        decimal.Decimal  `json:"original_price"`
	SellingPrice         decimal.Decimal  `json:"selling_price"`
	AgentDiscountPercent *decimal.Decimal `json:"agent_discount_percent,omitempty"`
	AgentCostPrice       *decimal.Decimal `json:"agent_cost_price,omitempty"`
	AdditionalCharges    decimal.Decimal  `json:"additional_charges"`
	DiscountAmount       decimal.Decimal  `json:"discount_amount"`
	Currency             string           `json:"currency,omitempty"`

	AllowPartialPayment  bool            `json:"allow_partial_payment"`
	MinimumPartialAmount decimal.Decimal `json:"minimum_partial_amount"`

	CustomerName        string  `json:"customer_name" binding:"required"`
	Email               string  `json:"email" binding:"required,email"`
	CustomerPhone       string  `json:"customer_phone" binding:"required"`
	CustomerNationality *string `json:"customer_nationality,omitempty"`
	CustomerPassportNo  *string `json:"customer_passport_no,omitempty"`
	CustomerAddress     *string `json:"customer_address,omitempty"`

	ServiceDate    *Date `json:"service_date,omitempty"`
	ServiceEndDate *Date `json:"service_end_date,omitempty"`

	Notes          *string `json:"notes,omitempty"`
	BookingDetails JSONB   `json:"booking_details,omitempty"`
}

// UpdatePricingRequest changes one or more pricing inputs; nil fields are left untouched
type UpdatePricingRequest struct {
	SellingPrice      *decimal.Decimal `json:"selling_price,omitempty"`
	AdditionalCharges *decimal.Decimal `json:"additional_charges,omitempty"`
	DiscountAmount    *decimal.Decimal `json:"discount_amount,omitempty"`
	AdminOverride     bool             `json:"admin_override"`
}

// IsEmpty reports whether no field would change
func (r *UpdatePricingRequest) IsEmpty() bool {
	return r.SellingPrice == nil && r.AdditionalCharges == nil && r.DiscountAmount == nil
}

// CancelBookingRequest cancels a booking
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// CompleteBookingRequest completes a booking
type CompleteBookingRequest struct {
	AdminOverride bool `json:"admin_override"`
}

// BookingFilter narrows booking listings
type BookingFilter struct {
	CustomerID  *uuid.UUID
	AgentID     *uuid.UUID
	ServiceType *ServiceType
	Statuses    []BookingStatus
	Limit       int
	Offset      int
}

// BookingDetailResponse is returned by the booking detail endpoints
type BookingDetailResponse struct {
	Booking    *Booking       `json:"booking"`
	TourDetail *TourDetail    `json:"tour_detail,omitempty"`
	Payments   []Payment      `json:"payments"`
	Summary    BookingSummary `json:"summary"`
}
