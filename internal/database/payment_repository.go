package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/wanderly/travel-agency-backend/internal/models"
)

const paymentColumns = `
	id, booking_id, payment_sequence, payment_type, payer_role, amount, currency, payment_method,
	gateway_reference, gateway_order_id, payment_reference, status, failure_reason,
	receipt_number, terminal_id, admin_override, override_reason, processed_by,
	refund_of_payment_id, notes, payment_date, gateway_callback_at, created_at, updated_at`

// PaymentRepository handles payment ledger persistence
type PaymentRepository struct{}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{}
}

// CountByBooking returns how many payments a booking has. Call under the booking lock
// when allocating the next payment_sequence.
func (r *PaymentRepository) CountByBooking(ctx context.Context, q Querier, bookingID uuid.UUID) (int, error) {
	var count int
	if err := q.GetContext(ctx, &count, `SELECT COUNT(*) FROM payments WHERE booking_id = $1`, bookingID); err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}

// Insert appends a payment to the ledger
func (r *PaymentRepository) Insert(ctx context.Context, q Querier, p *models.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `
		) VALUES (
			:id, :booking_id, :payment_sequence, :payment_type, :payer_role, :amount, :currency, :payment_method,
			:gateway_reference, :gateway_order_id, :payment_reference, :status, :failure_reason,
			:receipt_number, :terminal_id, :admin_override, :override_reason, :processed_by,
			:refund_of_payment_id, :notes, :payment_date, :gateway_callback_at, :created_at, :updated_at
		)`

	if _, err := sqlx.NamedExecContext(ctx, q, query, p); err != nil {
		return fmt.Errorf("failed to insert payment: %w", MapError(err))
	}
	return nil
}

// GetByID retrieves a payment by id
func (r *PaymentRepository) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*models.Payment, error) {
	return r.getOne(ctx, q, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

// GetForUpdate retrieves a payment and locks its row. Lock the owning booking first.
func (r *PaymentRepository) GetForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*models.Payment, error) {
	return r.getOne(ctx, q, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
}

// GetByReference retrieves a payment by its reference
func (r *PaymentRepository) GetByReference(ctx context.Context, q Querier, reference string) (*models.Payment, error) {
	return r.getOne(ctx, q, `SELECT `+paymentColumns+` FROM payments WHERE payment_reference = $1`, reference)
}

func (r *PaymentRepository) getOne(ctx context.Context, q Querier, query string, arg interface{}) (*models.Payment, error) {
	var p models.Payment
	if err := q.GetContext(ctx, &p, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", MapError(err))
	}
	return &p, nil
}

// ListByBooking returns a booking's ledger, newest first
func (r *PaymentRepository) ListByBooking(ctx context.Context, q Querier, bookingID uuid.UUID) ([]models.Payment, error) {
	payments := []models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY payment_sequence DESC`
	if err := q.SelectContext(ctx, &payments, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// HasActiveRefund reports whether a refund that has not failed or been cancelled
// already references the payment
func (r *PaymentRepository) HasActiveRefund(ctx context.Context, q Querier, paymentID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM payments
			WHERE refund_of_payment_id = $1
			AND status NOT IN ('failed', 'cancelled')
		)`
	if err := q.GetContext(ctx, &exists, query, paymentID); err != nil {
		return false, fmt.Errorf("failed to check existing refunds: %w", err)
	}
	return exists, nil
}

// UpdateStatus persists a status change only if the row is still in fromStatus.
// Returns false when another writer moved the payment first.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, q Querier, p *models.Payment, fromStatus models.PaymentStatus) (bool, error) {
	query := `
		UPDATE payments SET
			status = $1,
			failure_reason = $2,
			gateway_reference = $3,
			receipt_number = $4,
			payment_date = $5,
			gateway_callback_at = $6,
			processed_by = $7,
			updated_at = $8
		WHERE id = $9 AND status = $10`

	result, err := q.ExecContext(ctx, query,
		p.Status, p.FailureReason, p.GatewayReference, p.ReceiptNumber,
		p.PaymentDate, p.GatewayCallbackAt, p.ProcessedBy, p.UpdatedAt,
		p.ID, fromStatus,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update payment status: %w", MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// ListStalePending returns pending payments of the given methods created before cutoff, oldest first
func (r *PaymentRepository) ListStalePending(ctx context.Context, q Querier, methods []models.PaymentMethod, cutoff time.Time, limit int) ([]models.Payment, error) {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}

	payments := []models.Payment{}
	query := `
		SELECT ` + paymentColumns + ` FROM payments
		WHERE status = 'pending'
		AND payment_method = ANY($1)
		AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3`

	if err := q.SelectContext(ctx, &payments, query, pq.Array(names), cutoff, limit); err != nil {
		return nil, fmt.Errorf("failed to list stale pending payments: %w", err)
	}
	return payments, nil
}
