package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wanderly/travel-agency-backend/internal/database"
	"github.com/wanderly/travel-agency-backend/internal/models"
)

// Transactor runs units of work against the database
type Transactor interface {
	WithTx(ctx context.Context, fn func(q database.Querier) error) error
	Querier() database.Querier
}

// BookingStore persists bookings
type BookingStore interface {
	CountByServiceTypeInMonth(ctx context.Context, q database.Querier, serviceType models.ServiceType, from, to time.Time) (int, error)
	Insert(ctx context.Context, q database.Querier, b *models.Booking) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Booking, error)
	GetForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Booking, error)
	GetByReference(ctx context.Context, q database.Querier, reference string) (*models.Booking, error)
	Update(ctx context.Context, q database.Querier, b *models.Booking) error
	List(ctx context.Context, q database.Querier, filter models.BookingFilter) ([]models.Booking, error)
}

// PaymentStore persists the payment ledger
type PaymentStore interface {
	CountByBooking(ctx context.Context, q database.Querier, bookingID uuid.UUID) (int, error)
	Insert(ctx context.Context, q database.Querier, p *models.Payment) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Payment, error)
	GetForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Payment, error)
	GetByReference(ctx context.Context, q database.Querier, reference string) (*models.Payment, error)
	ListByBooking(ctx context.Context, q database.Querier, bookingID uuid.UUID) ([]models.Payment, error)
	HasActiveRefund(ctx context.Context, q database.Querier, paymentID uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, q database.Querier, p *models.Payment, fromStatus models.PaymentStatus) (bool, error)
	ListStalePending(ctx context.Context, q database.Querier, methods []models.PaymentMethod, cutoff time.Time, limit int) ([]models.Payment, error)
}

// CommissionStore persists commission rules
type CommissionStore interface {
	Upsert(ctx context.Context, q database.Querier, rule *models.CommissionRule) error
	FindForQuote(ctx context.Context, q database.Querier, serviceType models.ServiceType, agentID *uuid.UUID) (*models.CommissionRule, error)
	List(ctx context.Context, q database.Querier, serviceType *models.ServiceType) ([]models.CommissionRule, error)
	Delete(ctx context.Context, q database.Querier, id uuid.UUID) error
}

// TourDetailStore persists tour details
type TourDetailStore interface {
	Insert(ctx context.Context, q database.Querier, d *models.TourDetail) error
	GetByBookingID(ctx context.Context, q database.Querier, bookingID uuid.UUID) (*models.TourDetail, error)
}

// AuditStore appends to the payment audit trail
type AuditStore interface {
	Log(ctx context.Context, q database.Querier, audit *models.PaymentAudit) error
	CheckDuplicate(ctx context.Context, q database.Querier, eventType models.PaymentEventType, idempotencyKey string) (bool, error)
	ListByPayment(ctx context.Context, q database.Querier, paymentID uuid.UUID) ([]models.PaymentAudit, error)
}
