package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentEventType represents the type of ledger event being audited
type PaymentEventType string

const (
	PaymentEventCreated         PaymentEventType = "payment_created"
	PaymentEventStatusChanged   PaymentEventType = "payment_status_changed"
	PaymentEventWebhookReceived PaymentEventType = "webhook_received"
	PaymentEventExpired         PaymentEventType = "payment_expired"
	PaymentEventRefundInitiated PaymentEventType = "refund_initiated"
	PaymentEventRefundCompleted PaymentEventType = "refund_completed"
	PaymentEventBookingCancel   PaymentEventType = "booking_cancelled"
	PaymentEventError           PaymentEventType = "error"
)

// PaymentEventSource identifies where the event originated
type PaymentEventSource string

const (
	PaymentSourceStaff   PaymentEventSource = "staff"
	PaymentSourceGateway PaymentEventSource = "gateway_webhook"
	PaymentSourceUser    PaymentEventSource = "user"
	PaymentSourceSystem  PaymentEventSource = "system"
)

// PaymentAudit is an append-only record of a payment ledger event
type PaymentAudit struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	BookingID        *uuid.UUID `json:"booking_id,omitempty" db:"booking_id"`
	PaymentID        *uuid.UUID `json:"payment_id,omitempty" db:"payment_id"`
	PaymentReference *string    `json:"payment_reference,omitempty" db:"payment_reference"`
	ActorID          *uuid.UUID `json:"actor_id,omitempty" db:"actor_id"`

	EventType   PaymentEventType   `json:"event_type" db:"event_type"`
	EventSource PaymentEventSource `json:"event_source" db:"event_source"`

	// Amount tracking
	ExpectedAmount decimal.NullDecimal `json:"expected_amount" db:"expected_amount"`
	ReceivedAmount decimal.NullDecimal `json:"received_amount" db:"received_amount"`
	Currency       *string             `json:"currency,omitempty" db:"currency"`
	AmountsMatch   *bool               `json:"amounts_match,omitempty" db:"amounts_match"`

	// Status
	PreviousStatus   *string `json:"previous_status,omitempty" db:"previous_status"`
	PaymentStatus    *string `json:"payment_status,omitempty" db:"payment_status"`
	GatewayReference *string `json:"gateway_reference,omitempty" db:"gateway_reference"`

	Payload JSONB `json:"payload,omitempty" db:"payload"`

	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`

	IsDuplicate    bool    `json:"is_duplicate" db:"is_duplicate"`
	IdempotencyKey *string `json:"idempotency_key,omitempty" db:"idempotency_key"`

	// Request metadata
	IPAddress     *string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent     *string `json:"user_agent,omitempty" db:"user_agent"`
	DeviceType    *string `json:"device_type,omitempty" db:"device_type"`
	CorrelationID *string `json:"correlation_id,omitempty" db:"correlation_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AuditMetadata is the request context copied onto every audit entry
type AuditMetadata struct {
	IPAddress     string
	UserAgent     string
	DeviceType    string
	CorrelationID string
}

// NewPaymentAudit creates a new payment audit entry
func NewPaymentAudit(eventType PaymentEventType, source PaymentEventSource, now time.Time) *PaymentAudit {
	return &PaymentAudit{
		ID:          uuid.New(),
		EventType:   eventType,
		EventSource: source,
		CreatedAt:   now,
	}
}

// ForPayment links the entry to a payment and its booking
func (pa *PaymentAudit) ForPayment(p *Payment) *PaymentAudit {
	pa.PaymentID = &p.ID
	pa.BookingID = &p.BookingID
	ref := p.PaymentReference
	pa.PaymentReference = &ref
	status := string(p.Status)
	pa.PaymentStatus = &status
	currency := p.Currency
	pa.Currency = &currency
	return pa
}

// ForBooking links the entry to a booking only
func (pa *PaymentAudit) ForBooking(bookingID uuid.UUID) *PaymentAudit {
	pa.BookingID = &bookingID
	return pa
}

// SetActor records who triggered the event
func (pa *PaymentAudit) SetActor(actorID uuid.UUID) *PaymentAudit {
	if actorID != uuid.Nil {
		pa.ActorID = &actorID
	}
	return pa
}

// SetPaymentReference sets the reference when no payment row was resolved
func (pa *PaymentAudit) SetPaymentReference(ref string) *PaymentAudit {
	pa.PaymentReference = &ref
	return pa
}

// SetTransition records a status change
func (pa *PaymentAudit) SetTransition(from, to PaymentStatus) *PaymentAudit {
	prev := string(from)
	next := string(to)
	pa.PreviousStatus = &prev
	pa.PaymentStatus = &next
	return pa
}

// SetAmounts records expected vs received and returns whether they match exactly
func (pa *PaymentAudit) SetAmounts(expected, received decimal.Decimal) bool {
	pa.ExpectedAmount = decimal.NewNullDecimal(expected)
	pa.ReceivedAmount = decimal.NewNullDecimal(received)
	match := expected.Equal(received)
	pa.AmountsMatch = &match
	return match
}

// SetGatewayReference sets the gateway transaction id
func (pa *PaymentAudit) SetGatewayReference(ref string) *PaymentAudit {
	if ref != "" {
		pa.GatewayReference = &ref
	}
	return pa
}

// SetPayload stores the structured payload
func (pa *PaymentAudit) SetPayload(payload map[string]interface{}) *PaymentAudit {
	pa.Payload = JSONB(payload)
	return pa
}

// SetError sets error information
func (pa *PaymentAudit) SetError(message string) *PaymentAudit {
	pa.ErrorMessage = &message
	return pa
}

// SetMetadata copies request metadata
func (pa *PaymentAudit) SetMetadata(meta AuditMetadata) *PaymentAudit {
	if meta.IPAddress != "" {
		pa.IPAddress = &meta.IPAddress
	}
	if meta.UserAgent != "" {
		pa.UserAgent = &meta.UserAgent
	}
	if meta.DeviceType != "" {
		pa.DeviceType = &meta.DeviceType
	}
	if meta.CorrelationID != "" {
		pa.CorrelationID = &meta.CorrelationID
	}
	return pa
}

// MarkAsDuplicate marks this event as a duplicate delivery
func (pa *PaymentAudit) MarkAsDuplicate() *PaymentAudit {
	pa.IsDuplicate = true
	return pa
}

// SetIdempotencyKey sets the idempotency key
func (pa *PaymentAudit) SetIdempotencyKey(key string) *PaymentAudit {
	pa.IdempotencyKey = &key
	return pa
}
