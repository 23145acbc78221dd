package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wanderly/travel-agency-backend/internal/models"
	"github.com/wanderly/travel-agency-backend/internal/services"
)

// BookingManager is the booking surface the HTTP layer drives
type BookingManager interface {
	CreateBooking(ctx context.Context, actor services.Actor, req *models.CreateBookingRequest) (*models.Booking, error)
	GetBooking(ctx context.Context, actor services.Actor, id uuid.UUID) (*models.BookingDetailResponse, error)
	GetBookingByReference(ctx context.Context, actor services.Actor, reference string) (*models.BookingDetailResponse, error)
	ListBookings(ctx context.Context, actor services.Actor, filter models.BookingFilter) ([]models.Booking, error)
	UpdatePricing(ctx context.Context, actor services.Actor, id uuid.UUID, req *models.UpdatePricingRequest) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, actor services.Actor, id uuid.UUID) (*models.Booking, error)
	CompleteBooking(ctx context.Context, actor services.Actor, id uuid.UUID, req *models.CompleteBookingRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, actor services.Actor, id uuid.UUID, req *models.CancelBookingRequest) (*models.Booking, error)
}

// PaymentManager is the payment surface the HTTP layer drives
type PaymentManager interface {
	CreatePayment(ctx context.Context, actor services.Actor, bookingID uuid.UUID, req *models.CreatePaymentRequest) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, actor services.Actor, paymentID uuid.UUID, req *models.UpdatePaymentStatusRequest) (*models.PaymentResult, error)
	HandleGatewayCallback(ctx context.Context, cb *models.GatewayCallback, meta models.AuditMetadata) (*models.PaymentResult, error)
	CreateRefund(ctx context.Context, actor services.Actor, paymentID uuid.UUID, req *models.CreateRefundRequest) (*models.Payment, error)
	GetPayment(ctx context.Context, actor services.Actor, id uuid.UUID) (*models.Payment, error)
	ListPayments(ctx context.Context, actor services.Actor, bookingID uuid.UUID) ([]models.Payment, error)
	ListAudits(ctx context.Context, actor services.Actor, paymentID uuid.UUID) ([]models.PaymentAudit, error)
}

// CommissionManager is the commission surface the HTTP layer drives
type CommissionManager interface {
	UpsertRule(ctx context.Context, actor services.Actor, req *models.UpsertCommissionRuleRequest) (*models.CommissionRule, error)
	DeleteRule(ctx context.Context, actor services.Actor, id uuid.UUID) error
	ListRules(ctx context.Context, serviceType *models.ServiceType) ([]models.CommissionRule, error)
	QuoteAgentPrice(ctx context.Context, serviceType models.ServiceType, agentID *uuid.UUID, sellingPrice decimal.Decimal) (*models.CommissionQuote, error)
}

var (
	_ BookingManager    = (*services.BookingService)(nil)
	_ PaymentManager    = (*services.PaymentService)(nil)
	_ CommissionManager = (*services.CommissionService)(nil)
)
