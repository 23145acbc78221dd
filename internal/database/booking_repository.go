package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/wanderly/travel-agency-backend/internal/models"
)

const bookingColumns = `
	id, service_type, booking_reference, customer_id, agent_id, created_by,
	adults, children,
	original_price, selling_price, agent_discount_percent, agent_cost_price,
	additional_charges, discount_amount, final_amount, paid_amount, due_amount, currency,
	allow_partial_payment, minimum_partial_amount,
	customer_name, email, customer_phone, customer_nationality, customer_passport_no, customer_address,
	service_date, service_end_date,
	booking_source, status, payment_status, admin_override,
	notes, booking_details,
	confirmed_at, completed_at, cancelled_at, cancellation_reason, cancelled_by,
	version, created_at, updated_at`

// BookingRepository handles booking persistence
type BookingRepository struct{}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{}
}

// CountByServiceTypeInMonth counts bookings of a service type created in [from, to)
func (r *BookingRepository) CountByServiceTypeInMonth(ctx context.Context, q Querier, serviceType models.ServiceType, from, to time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE service_type = $1
		AND created_at >= $2
		AND created_at < $3`

	if err := q.GetContext(ctx, &count, query, serviceType, from, to); err != nil {
		return 0, fmt.Errorf("failed to count bookings for reference: %w", err)
	}
	return count, nil
}

// Insert stores a new booking. A duplicate booking_reference surfaces as *UniqueViolationError.
func (r *BookingRepository) Insert(ctx context.Context, q Querier, b *models.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `
		) VALUES (
			:id, :service_type, :booking_reference, :customer_id, :agent_id, :created_by,
			:adults, :children,
			:original_price, :selling_price, :agent_discount_percent, :agent_cost_price,
			:additional_charges, :discount_amount, :final_amount, :paid_amount, :due_amount, :currency,
			:allow_partial_payment, :minimum_partial_amount,
			:customer_name, :email, :customer_phone, :customer_nationality, :customer_passport_no, :customer_address,
			:service_date, :service_end_date,
			:booking_source, :status, :payment_status, :admin_override,
			:notes, :booking_details,
			:confirmed_at, :completed_at, :cancelled_at, :cancellation_reason, :cancelled_by,
			:version, :created_at, :updated_at
		)`

	if _, err := sqlx.NamedExecContext(ctx, q, query, b); err != nil {
		return fmt.Errorf("failed to insert booking: %w", MapError(err))
	}
	return nil
}

// GetByID retrieves a booking by id
func (r *BookingRepository) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*models.Booking, error) {
	return r.getOne(ctx, q, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

// GetForUpdate retrieves a booking and locks its row until the transaction ends
func (r *BookingRepository) GetForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*models.Booking, error) {
	return r.getOne(ctx, q, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

// GetByReference retrieves a booking by its human reference
func (r *BookingRepository) GetByReference(ctx context.Context, q Querier, reference string) (*models.Booking, error) {
	return r.getOne(ctx, q, `SELECT `+bookingColumns+` FROM bookings WHERE booking_reference = $1`, reference)
}

func (r *BookingRepository) getOne(ctx context.Context, q Querier, query string, arg interface{}) (*models.Booking, error) {
	var b models.Booking
	if err := q.GetContext(ctx, &b, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", MapError(err))
	}
	return &b, nil
}

// Update writes every mutable column using optimistic locking on version.
// On success b.Version is advanced; a stale version returns ErrConcurrencyConflict.
func (r *BookingRepository) Update(ctx context.Context, q Querier, b *models.Booking) error {
	query := `
		UPDATE bookings SET
			selling_price = :selling_price,
			agent_discount_percent = :agent_discount_percent,
			agent_cost_price = :agent_cost_price,
			additional_charges = :additional_charges,
			discount_amount = :discount_amount,
			final_amount = :final_amount,
			paid_amount = :paid_amount,
			due_amount = :due_amount,
			status = :status,
			payment_status = :payment_status,
			admin_override = :admin_override,
			notes = :notes,
			confirmed_at = :confirmed_at,
			completed_at = :completed_at,
			cancelled_at = :cancelled_at,
			cancellation_reason = :cancellation_reason,
			cancelled_by = :cancelled_by,
			updated_at = :updated_at,
			version = version + 1
		WHERE id = :id AND version = :version`

	result, err := sqlx.NamedExecContext(ctx, q, query, b)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrConcurrencyConflict
	}

	b.Version++
	return nil
}

// List returns bookings matching the filter, newest first
func (r *BookingRepository) List(ctx context.Context, q Querier, filter models.BookingFilter) ([]models.Booking, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.CustomerID != nil {
		add("customer_id = $%d", *filter.CustomerID)
	}
	if filter.AgentID != nil {
		add("agent_id = $%d", *filter.AgentID)
	}
	if filter.ServiceType != nil {
		add("service_type = $%d", *filter.ServiceType)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		add("status = ANY($%d)", pq.Array(statuses))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	bookings := []models.Booking{}
	if err := q.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}
