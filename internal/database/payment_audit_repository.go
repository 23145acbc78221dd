package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wanderly/travel-agency-backend/internal/models"
)

// PaymentAuditRepository handles the append-only payment audit trail
type PaymentAuditRepository struct {
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{logger: logger}
}

// Log appends an audit entry
func (r *PaymentAuditRepository) Log(ctx context.Context, q Querier, audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}

	query := `
		INSERT INTO payment_audits (
			id, booking_id, payment_id, payment_reference, actor_id,
			event_type, event_source,
			expected_amount, received_amount, currency, amounts_match,
			previous_status, payment_status, gateway_reference,
			payload, error_message, is_duplicate, idempotency_key,
			ip_address, user_agent, device_type, correlation_id,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7,
			$8, $9, $10, $11,
			$12, $13, $14,
			$15, $16, $17, $18,
			$19, $20, $21, $22,
			$23
		)`

	_, err := q.ExecContext(ctx, query,
		audit.ID, audit.BookingID, audit.PaymentID, audit.PaymentReference, audit.ActorID,
		audit.EventType, audit.EventSource,
		audit.ExpectedAmount, audit.ReceivedAmount, audit.Currency, audit.AmountsMatch,
		audit.PreviousStatus, audit.PaymentStatus, audit.GatewayReference,
		audit.Payload, audit.ErrorMessage, audit.IsDuplicate, audit.IdempotencyKey,
		audit.IPAddress, audit.UserAgent, audit.DeviceType, audit.CorrelationID,
		audit.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_type":        audit.EventType,
			"payment_reference": audit.PaymentReference,
		}).Error("Failed to write payment audit entry")
		return fmt.Errorf("failed to log payment audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":   audit.ID,
		"event_type": audit.EventType,
	}).Debug("Payment audit logged")

	return nil
}

// CheckDuplicate reports whether a non-duplicate event with this idempotency key was already recorded
func (r *PaymentAuditRepository) CheckDuplicate(ctx context.Context, q Querier, eventType models.PaymentEventType, idempotencyKey string) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM payment_audits
		WHERE event_type = $1
		AND idempotency_key = $2
		AND is_duplicate = FALSE`

	if err := q.GetContext(ctx, &count, query, eventType, idempotencyKey); err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return count > 0, nil
}

// ListByPayment returns a payment's audit trail in order
func (r *PaymentAuditRepository) ListByPayment(ctx context.Context, q Querier, paymentID uuid.UUID) ([]models.PaymentAudit, error) {
	audits := []models.PaymentAudit{}
	query := `
		SELECT id, booking_id, payment_id, payment_reference, actor_id,
			event_type, event_source,
			expected_amount, received_amount, currency, amounts_match,
			previous_status, payment_status, gateway_reference,
			payload, error_message, is_duplicate, idempotency_key,
			ip_address, user_agent, device_type, correlation_id,
			created_at
		FROM payment_audits
		WHERE payment_id = $1
		ORDER BY created_at ASC`

	if err := q.SelectContext(ctx, &audits, query, paymentID); err != nil {
		return nil, fmt.Errorf("failed to get audits by payment: %w", err)
	}
	return audits, nil
}
