package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wanderly/travel-agency-backend/internal/database"
	"github.com/wanderly/travel-agency-backend/internal/models"
	"github.com/wanderly/travel-agency-backend/pkg/money"
	"github.com/wanderly/travel-agency-backend/pkg/validator"
)

// BookingConfig holds booking ledger settings
type BookingConfig struct {
	DefaultCurrency      string
	ReferenceMaxAttempts int
}

// DefaultBookingConfig returns default configuration
func DefaultBookingConfig() BookingConfig {
	return BookingConfig{
		DefaultCurrency:      "LKR",
		ReferenceMaxAttempts: 5,
	}
}

// BookingService owns the booking lifecycle
type BookingService struct {
	tx          Transactor
	bookings    BookingStore
	payments    PaymentStore
	tourDetails TourDetailStore
	audits      AuditStore
	references  *ReferenceService
	commissions *CommissionService
	contacts    *validator.ContactValidator
	config      BookingConfig
	clock       Clock
	logger      *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	tx Transactor,
	bookings BookingStore,
	payments PaymentStore,
	tourDetails TourDetailStore,
	audits AuditStore,
	references *ReferenceService,
	commissions *CommissionService,
	config BookingConfig,
	clock Clock,
	logger *logrus.Logger,
) *BookingService {
	if config.ReferenceMaxAttempts < 1 {
		config.ReferenceMaxAttempts = 1
	}
	return &BookingService{
		tx:          tx,
		bookings:    bookings,
		payments:    payments,
		tourDetails: tourDetails,
		audits:      audits,
		references:  references,
		commissions: commissions,
		contacts:    validator.NewContactValidator(),
		config:      config,
		clock:       clock,
		logger:      logger,
	}
}

// ============================================================================
// CREATION
// ============================================================================

// CreateBooking validates, prices and stores a new booking.
// Pipeline: validate, build, agent pricing, then per attempt in one transaction:
// allocate reference, recompute amounts, insert, create tour detail.
// A booking_reference collision rolls the attempt back and retries with the next sequence.
func (s *BookingService) CreateBooking(ctx context.Context, actor Actor, req *models.CreateBookingRequest) (*models.Booking, error) {
	if err := s.authorizeCreate(actor, req); err != nil {
		return nil, err
	}

	booking, err := s.buildBooking(actor, req)
	if err != nil {
		return nil, err
	}

	if booking.BookingSource == models.SourceAgent && req.AgentCostPrice == nil {
		if err := s.commissions.agentPricing(ctx, booking); err != nil {
			return nil, err
		}
	}

	lastSequence := 0
	for attempt := 0; attempt < s.config.ReferenceMaxAttempts; attempt++ {
		err = s.tx.WithTx(ctx, func(q database.Querier) error {
			return s.insertBooking(ctx, q, booking, &lastSequence)
		})

		if database.IsUniqueViolation(err, database.ConstraintBookingReference) {
			s.logger.WithFields(logrus.Fields{
				"booking_reference": booking.BookingReference,
				"attempt":           attempt + 1,
			}).Warn("Booking reference collision, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.WithFields(logrus.Fields{
			"booking_id":        booking.ID,
			"booking_reference": booking.BookingReference,
			"service_type":      booking.ServiceType,
			"status":            booking.Status,
			"final_amount":      booking.FinalAmount.StringFixed(money.Scale),
			"actor_id":          actor.ID,
		}).Info("Booking created")
		return booking, nil
	}

	integrityErr := &IntegrityError{
		Message: fmt.Sprintf("could not allocate a unique %s booking reference after %d attempts",
			booking.ServiceType, s.config.ReferenceMaxAttempts),
		Err: err,
	}
	s.logger.WithError(integrityErr).WithField("service_type", booking.ServiceType).Error("Booking reference allocation exhausted")
	return nil, integrityErr
}

func (s *BookingService) insertBooking(ctx context.Context, q database.Querier, b *models.Booking, lastSequence *int) error {
	ref, sequence, err := s.references.GenerateBookingReference(ctx, q, b.ServiceType, b.CreatedAt, *lastSequence)
	if err != nil {
		return err
	}
	b.BookingReference = ref
	*lastSequence = sequence

	b.RecalculateAmounts()
	b.PaymentStatus = models.DeriveBookingPaymentStatus(b.FinalAmount, b.PaidAmount)

	if err := s.bookings.Insert(ctx, q, b); err != nil {
		return err
	}

	// Tour bookings always carry a detail row
	if b.ServiceType == models.ServiceTour {
		if err := s.tourDetails.Insert(ctx, q, models.NewDefaultTourDetail(b.ID, b.CreatedAt)); err != nil {
			return err
		}
	}
	return nil
}

func (s *BookingService) authorizeCreate(actor Actor, req *models.CreateBookingRequest) error {
	switch actor.Role {
	case RoleCustomer:
		if req.BookingSource != models.SourceWebsite && req.BookingSource != models.SourceMobileApp {
			return validationError("booking_source", "customers can only book through website or mobile_app")
		}
	case RoleAgent:
		if req.BookingSource != models.SourceAgent {
			return validationError("booking_source", "agents must use the agent booking source")
		}
	case RoleStaff, RoleAdmin:
	default:
		return ErrForbidden
	}
	return nil
}

func (s *BookingService) buildBooking(actor Actor, req *models.CreateBookingRequest) (*models.Booking, error) {
	if !req.ServiceType.Valid() {
		return nil, validationError("service_type", "unknown service type %q", req.ServiceType)
	}
	if !req.BookingSource.Valid() {
		return nil, validationError("booking_source", "unknown booking source %q", req.BookingSource)
	}
	if req.Adults < 0 || req.Children < 0 {
		return nil, validationError("adults", "passenger counts cannot be negative")
	}
	if req.Adults+req.Children < 1 {
		return nil, validationError("adults", "at least one passenger is required")
	}

	amounts := map[string]decimal.Decimal{
		"original_price":         req.OriginalPrice,
		"selling_price":          req.SellingPrice,
		"additional_charges":     req.AdditionalCharges,
		"discount_amount":        req.DiscountAmount,
		"minimum_partial_amount": req.MinimumPartialAmount,
	}
	for field, amount := range amounts {
		if err := money.Validate(amount); err != nil {
			return nil, &ValidationError{Field: field, Message: err.Error()}
		}
	}
	if req.AgentCostPrice != nil {
		if err := money.Validate(*req.AgentCostPrice); err != nil {
			return nil, &ValidationError{Field: "agent_cost_price", Message: err.Error()}
		}
	}
	if req.AgentDiscountPercent != nil {
		p := *req.AgentDiscountPercent
		if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
			return nil, validationError("agent_discount_percent", "must be between 0 and 100")
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.config.DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, validationError("currency", "must be a 3-letter ISO 4217 code")
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, validationError("customer_name", "is required")
	}
	email, err := s.contacts.ValidateEmail(req.Email)
	if err != nil {
		return nil, &ValidationError{Field: "email", Message: err.Error()}
	}
	phone, err := s.contacts.ValidatePhone(req.CustomerPhone)
	if err != nil {
		return nil, &ValidationError{Field: "customer_phone", Message: err.Error()}
	}

	serviceDate := req.ServiceDate.Ptr()
	serviceEndDate := req.ServiceEndDate.Ptr()
	if serviceDate != nil && serviceEndDate != nil && serviceEndDate.Before(*serviceDate) {
		return nil, validationError("service_end_date", "cannot be before service_date")
	}

	now := s.clock.Now()
	b := &models.Booking{
		ID:                   uuid.New(),
		ServiceType:          req.ServiceType,
		CustomerID:           req.CustomerID,
		AgentID:              req.AgentID,
		CreatedBy:            actor.ProcessedBy(),
		Adults:               req.Adults,
		Children:             req.Children,
		OriginalPrice:        req.OriginalPrice,
		SellingPrice:         req.SellingPrice,
		AgentDiscountPercent: decimal.Zero,
		AgentCostPrice:       decimal.Zero,
		AdditionalCharges:    req.AdditionalCharges,
		DiscountAmount:       req.DiscountAmount,
		PaidAmount:           decimal.Zero,
		Currency:             currency,
		AllowPartialPayment:  req.AllowPartialPayment,
		MinimumPartialAmount: req.MinimumPartialAmount,
		CustomerName:         name,
		Email:                email,
		CustomerPhone:        phone,
		CustomerNationality:  req.CustomerNationality,
		CustomerPassportNo:   req.CustomerPassportNo,
		CustomerAddress:      req.CustomerAddress,
		ServiceDate:          serviceDate,
		ServiceEndDate:       serviceEndDate,
		BookingSource:        req.BookingSource,
		Status:               req.BookingSource.InitialStatus(),
		Notes:                req.Notes,
		BookingDetails:       req.BookingDetails,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if req.AgentDiscountPercent != nil {
		b.AgentDiscountPercent = *req.AgentDiscountPercent
	}
	if req.AgentCostPrice != nil {
		b.AgentCostPrice = *req.AgentCostPrice
	}

	switch actor.Role {
	case RoleCustomer:
		id := actor.ID
		b.CustomerID = &id
	case RoleAgent:
		agentID := actor.agentIdentity()
		b.AgentID = &agentID
	}
	if b.BookingSource == models.SourceAgent && b.AgentID == nil {
		return nil, validationError("agent_id", "is required for agent bookings")
	}

	if b.Status == models.BookingConfirmed {
		b.ConfirmedAt = &now
	}
	return b, nil
}

// ============================================================================
// READS
// ============================================================================

// GetBooking returns a booking with its ledger, tour detail and projections
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, id uuid.UUID) (*models.BookingDetailResponse, error) {
	b, err := s.bookings.GetByID(ctx, s.tx.Querier(), id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, actor, b)
}

// GetBookingByReference returns a booking looked up by its reference
func (s *BookingService) GetBookingByReference(ctx context.Context, actor Actor, reference string) (*models.BookingDetailResponse, error) {
	b, err := s.bookings.GetByReference(ctx, s.tx.Querier(), strings.ToUpper(strings.TrimSpace(reference)))
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, actor, b)
}

func (s *BookingService) detail(ctx context.Context, actor Actor, b *models.Booking) (*models.BookingDetailResponse, error) {
	if !actor.CanAccess(b) {
		return nil, ErrBookingNotFound
	}

	payments, err := s.payments.ListByBooking(ctx, s.tx.Querier(), b.ID)
	if err != nil {
		return nil, err
	}

	resp := &models.BookingDetailResponse{
		Booking:  b,
		Payments: payments,
		Summary:  b.Summary(s.clock.Now()),
	}

	if b.ServiceType == models.ServiceTour {
		detail, err := s.tourDetails.GetByBookingID(ctx, s.tx.Querier(), b.ID)
		switch {
		case err == nil:
			resp.TourDetail = detail
		case errors.Is(err, database.ErrTourDetailNotFound):
			resp.TourDetail = models.NewDefaultTourDetail(b.ID, b.CreatedAt)
		default:
			return nil, err
		}
	}
	return resp, nil
}

// ListBookings lists bookings visible to the actor
func (s *BookingService) ListBookings(ctx context.Context, actor Actor, filter models.BookingFilter) ([]models.Booking, error) {
	switch actor.Role {
	case RoleCustomer:
		id := actor.ID
		filter.CustomerID = &id
		filter.AgentID = nil
	case RoleAgent:
		agentID := actor.agentIdentity()
		filter.AgentID = &agentID
	case RoleStaff, RoleAdmin:
	default:
		return nil, ErrForbidden
	}

	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, validationError("status", "unknown booking status %q", st)
		}
	}
	if filter.ServiceType != nil && !filter.ServiceType.Valid() {
		return nil, validationError("service_type", "unknown service type %q", *filter.ServiceType)
	}

	return s.bookings.List(ctx, s.tx.Querier(), filter)
}

// ============================================================================
// MUTATIONS
// ============================================================================

// mutate locks the booking, runs fn and writes the result back with a version check
func (s *BookingService) mutate(ctx context.Context, actor Actor, id uuid.UUID, fn func(q database.Querier, b *models.Booking) error) (*models.Booking, error) {
	var booking *models.Booking
	err := s.tx.WithTx(ctx, func(q database.Querier) error {
		b, err := s.bookings.GetForUpdate(ctx, q, id)
		if err != nil {
			return err
		}
		if !actor.CanAccess(b) {
			return ErrBookingNotFound
		}
		if err := fn(q, b); err != nil {
			return err
		}
		if err := s.bookings.Update(ctx, q, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// UpdatePricing changes pricing inputs and recomputes final and due amounts.
// Payment status may move forward (e.g. a discount settles the balance). Raising the
// price of a paid booking needs an admin override and reopens the balance.
func (s *BookingService) UpdatePricing(ctx context.Context, actor Actor, id uuid.UUID, req *models.UpdatePricingRequest) (*models.Booking, error) {
	if req.IsEmpty() {
		return nil, validationError("", "at least one pricing field is required")
	}
	if req.AdminOverride && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	for field, amount := range map[string]*decimal.Decimal{
		"selling_price":      req.SellingPrice,
		"additional_charges": req.AdditionalCharges,
		"discount_amount":    req.DiscountAmount,
	} {
		if amount == nil {
			continue
		}
		if err := money.Validate(*amount); err != nil {
			return nil, &ValidationError{Field: field, Message: err.Error()}
		}
	}

	now := s.clock.Now()
	booking, err := s.mutate(ctx, actor, id, func(q database.Querier, b *models.Booking) error {
		if b.Status.IsTerminal() {
			return guardError(GuardBookingTerminal, "booking is %s", b.Status)
		}
		if !b.CanModify(now) && !req.AdminOverride {
			return guardError(GuardBookingNotModifiable, "booking can no longer be modified")
		}

		if req.SellingPrice != nil {
			b.SellingPrice = *req.SellingPrice
		}
		if req.AdditionalCharges != nil {
			b.AdditionalCharges = *req.AdditionalCharges
		}
		if req.DiscountAmount != nil {
			b.DiscountAmount = *req.DiscountAmount
		}
		wasPaid := b.PaymentStatus == models.BookingPaymentPaid
		b.RecalculateAmounts()
		derived := models.DeriveBookingPaymentStatus(b.FinalAmount, b.PaidAmount)
		if wasPaid && derived != models.BookingPaymentPaid {
			// reopening a settled balance is an admin decision
			if !req.AdminOverride {
				return guardError(GuardPaidBookingRepriced,
					"booking is fully paid; final amount %s would exceed paid amount %s",
					b.FinalAmount.StringFixed(money.Scale), b.PaidAmount.StringFixed(money.Scale))
			}
			b.PaymentStatus = derived
		} else {
			b.PaymentStatus = advancePaymentStatus(b.PaymentStatus, derived)
		}
		if req.AdminOverride {
			b.AdminOverride = true
		}
		b.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"final_amount": booking.FinalAmount.StringFixed(money.Scale),
		"due_amount":   booking.DueAmount.StringFixed(money.Scale),
		"actor_id":     actor.ID,
	}).Info("Booking pricing updated")
	return booking, nil
}

var paymentStatusRank = map[models.BookingPaymentStatus]int{
	models.BookingPaymentPending: 0,
	models.BookingPaymentPartial: 1,
	models.BookingPaymentPaid:    2,
}

// advancePaymentStatus returns derived only when it is further along than current.
// Refunded is never left.
func advancePaymentStatus(current, derived models.BookingPaymentStatus) models.BookingPaymentStatus {
	if current == models.BookingPaymentRefunded {
		return current
	}
	if paymentStatusRank[derived] > paymentStatusRank[current] {
		return derived
	}
	return current
}

// ConfirmBooking moves a draft booking to confirmed
func (s *BookingService) ConfirmBooking(ctx context.Context, actor Actor, id uuid.UUID) (*models.Booking, error) {
	now := s.clock.Now()
	return s.transition(ctx, actor, id, models.BookingConfirmed, func(b *models.Booking) error {
		b.ConfirmedAt = &now
		return nil
	})
}

// CompleteBooking moves a booking to completed. Unpaid bookings need an admin override.
func (s *BookingService) CompleteBooking(ctx context.Context, actor Actor, id uuid.UUID, req *models.CompleteBookingRequest) (*models.Booking, error) {
	if req.AdminOverride && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	now := s.clock.Now()
	return s.transition(ctx, actor, id, models.BookingCompleted, func(b *models.Booking) error {
		if b.PaymentStatus != models.BookingPaymentPaid {
			if !req.AdminOverride {
				return guardError(GuardBookingNotPaid, "booking payment status is %s", b.PaymentStatus)
			}
			b.AdminOverride = true
		}
		b.CompletedAt = &now
		return nil
	})
}

// CancelBooking moves a booking to cancelled, recording who and why
func (s *BookingService) CancelBooking(ctx context.Context, actor Actor, id uuid.UUID, req *models.CancelBookingRequest) (*models.Booking, error) {
	now := s.clock.Now()
	reason := strings.TrimSpace(req.Reason)

	booking, err := s.transition(ctx, actor, id, models.BookingCancelled, func(b *models.Booking) error {
		if !b.CanCancel(now) {
			return guardError(GuardBookingNotCancellable, "booking can no longer be cancelled")
		}
		b.CancelledAt = &now
		b.CancelledBy = actor.ProcessedBy()
		if reason != "" {
			b.CancellationReason = &reason
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if money.IsPositive(booking.PaidAmount) {
		audit := models.NewPaymentAudit(models.PaymentEventBookingCancel, sourceFor(actor), now).
			ForBooking(booking.ID).
			SetActor(actor.ID).
			SetMetadata(actor.Meta).
			SetPayload(map[string]interface{}{
				"booking_reference": booking.BookingReference,
				"paid_amount":       booking.PaidAmount.StringFixed(money.Scale),
				"reason":            reason,
			})
		if err := s.audits.Log(ctx, s.tx.Querier(), audit); err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to audit booking cancellation")
		}
	}
	return booking, nil
}

func (s *BookingService) transition(ctx context.Context, actor Actor, id uuid.UUID, next models.BookingStatus, apply func(b *models.Booking) error) (*models.Booking, error) {
	now := s.clock.Now()
	var previous models.BookingStatus

	booking, err := s.mutate(ctx, actor, id, func(q database.Querier, b *models.Booking) error {
		if b.Status.IsTerminal() {
			return guardError(GuardBookingTerminal, "booking is %s", b.Status)
		}
		if !b.CanTransitionTo(next) {
			return guardError(GuardInvalidBookingTransition, "cannot move booking from %s to %s", b.Status, next)
		}
		if err := apply(b); err != nil {
			return err
		}
		previous = b.Status
		b.Status = next
		b.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
		"from":              previous,
		"to":                next,
		"actor_id":          actor.ID,
	}).Info("Booking status changed")
	return booking, nil
}

func sourceFor(actor Actor) models.PaymentEventSource {
	switch {
	case actor.ID == uuid.Nil:
		return models.PaymentSourceSystem
	case actor.IsStaff():
		return models.PaymentSourceStaff
	default:
		return models.PaymentSourceUser
	}
}
