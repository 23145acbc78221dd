package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wanderly/travel-agency-backend/internal/database"
	"github.com/wanderly/travel-agency-backend/internal/models"
	"github.com/wanderly/travel-agency-backend/pkg/money"
)

// ExpiredFailureReason is stored on gateway payments cancelled by the expiry sweep
const ExpiredFailureReason = "expired"

// PaymentService owns the payment ledger of every booking
type PaymentService struct {
	tx       Transactor
	bookings BookingStore
	payments PaymentStore
	audits   AuditStore
	clock    Clock
	logger   *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	tx Transactor,
	bookings BookingStore,
	payments PaymentStore,
	audits AuditStore,
	clock Clock,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		tx:       tx,
		bookings: bookings,
		payments: payments,
		audits:   audits,
		clock:    clock,
		logger:   logger,
	}
}

// statusChange is one requested transition of a payment
type statusChange struct {
	Status           models.PaymentStatus
	FailureReason    *string
	GatewayReference *string
	ReceiptNumber    *string
	CallbackAt       *time.Time
	Source           models.PaymentEventSource
	EventType        models.PaymentEventType
}

// ============================================================================
// PAYMENTS
// ============================================================================

// CreatePayment records a pending payment against a booking
func (s *PaymentService) CreatePayment(ctx context.Context, actor Actor, bookingID uuid.UUID, req *models.CreatePaymentRequest) (*models.Payment, error) {
	if err := s.validateCreate(actor, req); err != nil {
		return nil, err
	}

	payerRole := actor.PayerRole()
	if actor.IsStaff() && req.PayerRole != "" {
		payerRole = req.PayerRole
	}

	now := s.clock.Now()
	var payment *models.Payment

	err := s.tx.WithTx(ctx, func(q database.Querier) error {
		b, err := s.bookings.GetForUpdate(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(b) {
			return ErrBookingNotFound
		}
		if !b.CanMakePayment() {
			return guardError(GuardBookingNotPayable, "booking is %s with payment status %s and %s due",
				b.Status, b.PaymentStatus, b.DueAmount.StringFixed(money.Scale))
		}

		currency := strings.ToUpper(strings.TrimSpace(req.Currency))
		if currency == "" {
			currency = b.Currency
		}
		if currency != b.Currency {
			return validationError("currency", "payment currency %s does not match booking currency %s", currency, b.Currency)
		}

		if err := checkAmountAgainstBooking(b, req); err != nil {
			return err
		}

		sequence, err := s.payments.CountByBooking(ctx, q, b.ID)
		if err != nil {
			return fmt.Errorf("failed to allocate payment sequence: %w", err)
		}
		sequence++

		payment = &models.Payment{
			ID:               uuid.New(),
			BookingID:        b.ID,
			PaymentSequence:  sequence,
			PaymentType:      req.PaymentType,
			PayerRole:        payerRole,
			Amount:           req.Amount,
			Currency:         currency,
			PaymentMethod:    req.PaymentMethod,
			GatewayOrderID:   req.GatewayOrderID,
			PaymentReference: models.GeneratePaymentReference(b.BookingReference, sequence),
			Status:           models.PaymentPending,
			ReceiptNumber:    req.ReceiptNumber,
			TerminalID:       req.TerminalID,
			AdminOverride:    req.AdminOverride,
			OverrideReason:   req.OverrideReason,
			ProcessedBy:      actor.ProcessedBy(),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.payments.Insert(ctx, q, payment); err != nil {
			return err
		}

		audit := models.NewPaymentAudit(models.PaymentEventCreated, sourceFor(actor), now).
			ForPayment(payment).
			SetActor(actor.ID).
			SetMetadata(actor.Meta)
		audit.SetAmounts(b.DueAmount, payment.Amount)
		return s.audits.Log(ctx, q, audit)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id":        payment.ID,
		"payment_reference": payment.PaymentReference,
		"booking_id":        payment.BookingID,
		"amount":            payment.Amount.StringFixed(money.Scale),
		"method":            payment.PaymentMethod,
		"actor_id":          actor.ID,
	}).Info("Payment created")
	return payment, nil
}

func (s *PaymentService) validateCreate(actor Actor, req *models.CreatePaymentRequest) error {
	if !req.PaymentType.Valid() {
		return validationError("payment_type", "unknown payment type %q", req.PaymentType)
	}
	if req.PaymentType == models.PaymentTypeRefund {
		return validationError("payment_type", "refunds are issued against a completed payment")
	}
	if !req.PaymentMethod.Valid() {
		return validationError("payment_method", "unknown payment method %q", req.PaymentMethod)
	}
	if !actor.IsStaff() && !req.PaymentMethod.IsGateway() {
		return validationError("payment_method", "%s payments are recorded by staff", req.PaymentMethod)
	}
	if req.PayerRole != "" && !req.PayerRole.Valid() {
		return validationError("payer_role", "unknown payer role %q", req.PayerRole)
	}
	if err := money.Validate(req.Amount); err != nil {
		return &ValidationError{Field: "amount", Message: err.Error()}
	}
	if !money.IsPositive(req.Amount) {
		return validationError("amount", "must be greater than zero")
	}
	if req.AdminOverride {
		if !actor.IsAdmin() {
			return ErrForbidden
		}
		if req.OverrideReason == nil || strings.TrimSpace(*req.OverrideReason) == "" {
			return validationError("override_reason", "is required with admin_override")
		}
	}
	return nil
}

// checkAmountAgainstBooking applies the partial-payment and overpayment rules
func checkAmountAgainstBooking(b *models.Booking, req *models.CreatePaymentRequest) error {
	if req.AdminOverride {
		return nil
	}
	due := b.DueAmount
	if req.Amount.GreaterThan(due) {
		return guardError(GuardOverpayment, "amount %s exceeds due amount %s",
			req.Amount.StringFixed(money.Scale), due.StringFixed(money.Scale))
	}
	if req.Amount.Equal(due) {
		return nil
	}
	if !b.AllowPartialPayment {
		return validationError("amount", "booking does not allow partial payments; %s is due", due.StringFixed(money.Scale))
	}
	if req.Amount.LessThan(b.MinimumPartialAmount) {
		return validationError("amount", "partial payments must be at least %s", b.MinimumPartialAmount.StringFixed(money.Scale))
	}
	return nil
}

// UpdatePaymentStatus applies a staff-driven status change.
// Gateway-method payments are driven by callbacks; only admins may move them by hand.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, actor Actor, paymentID uuid.UUID, req *models.UpdatePaymentStatusRequest) (*models.PaymentResult, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if !req.Status.Valid() {
		return nil, validationError("status", "unknown payment status %q", req.Status)
	}
	if req.Status == models.PaymentRefunded {
		return nil, validationError("status", "payments become refunded when their refund completes")
	}

	p, err := s.payments.GetByID(ctx, s.tx.Querier(), paymentID)
	if err != nil {
		return nil, err
	}
	if p.PaymentMethod.IsGateway() && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	return s.applyStatus(ctx, actor, paymentID, statusChange{
		Status:           req.Status,
		FailureReason:    req.FailureReason,
		GatewayReference: req.GatewayReference,
		ReceiptNumber:    req.ReceiptNumber,
		Source:           models.PaymentSourceStaff,
		EventType:        models.PaymentEventStatusChanged,
	})
}

// applyStatus is the single path by which a payment changes status.
// It locks the booking and then the payment, moves the payment through the state machine
// with a conditional update, and folds a completion into the booking exactly once.
func (s *PaymentService) applyStatus(ctx context.Context, actor Actor, paymentID uuid.UUID, change statusChange) (*models.PaymentResult, error) {
	now := s.clock.Now()
	result := &models.PaymentResult{}
	var from models.PaymentStatus

	err := s.tx.WithTx(ctx, func(q database.Querier) error {
		current, err := s.payments.GetByID(ctx, q, paymentID)
		if err != nil {
			return err
		}

		b, err := s.bookings.GetForUpdate(ctx, q, current.BookingID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(b) {
			return ErrPaymentNotFound
		}

		p, err := s.payments.GetForUpdate(ctx, q, paymentID)
		if err != nil {
			return err
		}
		result.Payment = p
		result.Booking = b
		from = p.Status

		applied, err := p.TransitionTo(change.Status, now)
		if errors.Is(err, models.ErrInvalidPaymentTransition) {
			return guardError(GuardInvalidPaymentTransition, "cannot move payment from %s to %s", from, change.Status)
		}
		if err != nil {
			return err
		}
		if !applied {
			return nil
		}

		if change.FailureReason != nil {
			p.FailureReason = change.FailureReason
		}
		if change.GatewayReference != nil && *change.GatewayReference != "" {
			p.GatewayReference = change.GatewayReference
		}
		if change.ReceiptNumber != nil {
			p.ReceiptNumber = change.ReceiptNumber
		}
		if change.CallbackAt != nil {
			p.GatewayCallbackAt = change.CallbackAt
		}
		if by := actor.ProcessedBy(); by != nil {
			p.ProcessedBy = by
		}

		ok, err := s.payments.UpdateStatus(ctx, q, p, from)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("payment %s left %s concurrently: %w", p.ID, from, ErrConcurrencyConflict)
		}
		result.Applied = true

		audit := models.NewPaymentAudit(change.EventType, change.Source, now).
			ForPayment(p).
			SetActor(actor.ID).
			SetMetadata(actor.Meta).
			SetTransition(from, p.Status)
		if p.GatewayReference != nil {
			audit.SetGatewayReference(*p.GatewayReference)
		}
		if p.FailureReason != nil {
			audit.SetError(*p.FailureReason)
		}
		if err := s.audits.Log(ctx, q, audit); err != nil {
			return err
		}

		if p.Status != models.PaymentCompleted {
			return nil
		}
		return s.settleCompleted(ctx, q, actor, b, p, now)
	})
	if err != nil {
		return nil, err
	}

	if result.Applied {
		s.logger.WithFields(logrus.Fields{
			"payment_id":        result.Payment.ID,
			"payment_reference": result.Payment.PaymentReference,
			"booking_id":        result.Booking.ID,
			"from":              from,
			"to":                result.Payment.Status,
			"paid_amount":       result.Booking.PaidAmount.StringFixed(money.Scale),
			"payment_status":    result.Booking.PaymentStatus,
			"source":            change.Source,
		}).Info("Payment status changed")
	}
	return result, nil
}

// settleCompleted folds a newly completed payment into its booking. A completed refund
// also moves its source payment to refunded.
func (s *PaymentService) settleCompleted(ctx context.Context, q database.Querier, actor Actor, b *models.Booking, p *models.Payment, now time.Time) error {
	models.ApplyCompletedPayment(b, p, now)

	if p.IsRefund() {
		if p.RefundOfPaymentID == nil {
			return &IntegrityError{Message: fmt.Sprintf("refund payment %s has no source payment", p.ID)}
		}
		source, err := s.payments.GetForUpdate(ctx, q, *p.RefundOfPaymentID)
		if err != nil {
			return fmt.Errorf("failed to load refunded payment: %w", err)
		}
		if _, err := source.TransitionTo(models.PaymentRefunded, now); err != nil {
			return &IntegrityError{Message: fmt.Sprintf("refund %s completed against payment %s in status %s", p.ID, source.ID, source.Status), Err: err}
		}
		ok, err := s.payments.UpdateStatus(ctx, q, source, models.PaymentCompleted)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("payment %s left completed concurrently: %w", source.ID, ErrConcurrencyConflict)
		}

		audit := models.NewPaymentAudit(models.PaymentEventRefundCompleted, sourceFor(actor), now).
			ForPayment(source).
			SetActor(actor.ID).
			SetMetadata(actor.Meta).
			SetTransition(models.PaymentCompleted, models.PaymentRefunded).
			SetPayload(map[string]interface{}{
				"refund_payment_id": p.ID.String(),
				"refund_amount":     p.Amount.StringFixed(money.Scale),
			})
		if err := s.audits.Log(ctx, q, audit); err != nil {
			return err
		}
	}

	return s.bookings.Update(ctx, q, b)
}

// ============================================================================
// GATEWAY CALLBACKS
// ============================================================================

// HandleGatewayCallback applies a normalized gateway notification.
// Re-delivery of an already applied status is a no-op. Every callback is audited,
// including duplicates and rejected ones.
func (s *PaymentService) HandleGatewayCallback(ctx context.Context, cb *models.GatewayCallback, meta models.AuditMetadata) (*models.PaymentResult, error) {
	ref := strings.TrimSpace(cb.PaymentReference)
	if ref == "" {
		return nil, validationError("payment_reference", "is required")
	}
	switch cb.Status {
	case models.PaymentProcessing, models.PaymentCompleted, models.PaymentFailed, models.PaymentCancelled:
	default:
		return nil, validationError("status", "gateway status %q is not accepted", cb.Status)
	}

	now := s.clock.Now()
	key := fmt.Sprintf("%s:%s:%s", ref, cb.Status, cb.GatewayReference)

	audit := models.NewPaymentAudit(models.PaymentEventWebhookReceived, models.PaymentSourceGateway, now).
		SetPaymentReference(ref).
		SetGatewayReference(cb.GatewayReference).
		SetIdempotencyKey(key).
		SetMetadata(meta).
		SetPayload(map[string]interface{}{
			"status":            string(cb.Status),
			"gateway_reference": cb.GatewayReference,
		})

	duplicate, err := s.audits.CheckDuplicate(ctx, s.tx.Querier(), models.PaymentEventWebhookReceived, key)
	if err != nil {
		s.logger.WithError(err).WithField("payment_reference", ref).Warn("Failed to check callback duplicate")
	}
	if duplicate {
		audit.MarkAsDuplicate()
	}

	result, err := s.handleCallback(ctx, cb, ref, audit, now)
	if err != nil {
		audit.SetError(err.Error())
	}
	if logErr := s.audits.Log(ctx, s.tx.Querier(), audit); logErr != nil {
		s.logger.WithError(logErr).WithField("payment_reference", ref).Error("Failed to audit gateway callback")
	}

	entry := s.logger.WithFields(logrus.Fields{
		"payment_reference": ref,
		"status":            cb.Status,
		"gateway_reference": cb.GatewayReference,
		"duplicate":         duplicate,
	})
	if err != nil {
		entry.WithError(err).Warn("Gateway callback rejected")
		return nil, err
	}
	entry.WithField("applied", result.Applied).Info("Gateway callback processed")
	return result, nil
}

func (s *PaymentService) handleCallback(ctx context.Context, cb *models.GatewayCallback, ref string, audit *models.PaymentAudit, now time.Time) (*models.PaymentResult, error) {
	p, err := s.payments.GetByReference(ctx, s.tx.Querier(), ref)
	if err != nil {
		return nil, err
	}
	audit.ForPayment(p)

	if !p.PaymentMethod.IsGateway() {
		return nil, validationError("payment_reference", "payment %s is not a gateway payment", ref)
	}
	if cb.Amount != nil && !audit.SetAmounts(p.Amount, *cb.Amount) {
		return nil, guardError(GuardAmountMismatch, "gateway amount %s does not match payment amount %s",
			cb.Amount.StringFixed(money.Scale), p.Amount.StringFixed(money.Scale))
	}

	callbackAt := now
	if cb.CallbackAt != nil {
		callbackAt = *cb.CallbackAt
	}
	gatewayRef := cb.GatewayReference

	result, err := s.applyStatus(ctx, SystemActor, p.ID, statusChange{
		Status:           cb.Status,
		FailureReason:    cb.FailureReason,
		GatewayReference: &gatewayRef,
		CallbackAt:       &callbackAt,
		Source:           models.PaymentSourceGateway,
		EventType:        models.PaymentEventStatusChanged,
	})
	if err != nil {
		return nil, err
	}
	if result.Applied {
		audit.SetTransition(p.Status, result.Payment.Status)
	}
	return result, nil
}

// ============================================================================
// REFUNDS
// ============================================================================

// CreateRefund issues a pending refund against a completed payment
func (s *PaymentService) CreateRefund(ctx context.Context, actor Actor, paymentID uuid.UUID, req *models.CreateRefundRequest) (*models.Payment, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, validationError("reason", "is required")
	}
	if req.PaymentMethod != "" && !req.PaymentMethod.Valid() {
		return nil, validationError("payment_method", "unknown payment method %q", req.PaymentMethod)
	}
	if req.Amount != nil {
		if err := money.Validate(*req.Amount); err != nil {
			return nil, &ValidationError{Field: "amount", Message: err.Error()}
		}
		if !money.IsPositive(*req.Amount) {
			return nil, validationError("amount", "must be greater than zero")
		}
	}

	now := s.clock.Now()
	var refund *models.Payment

	err := s.tx.WithTx(ctx, func(q database.Querier) error {
		current, err := s.payments.GetByID(ctx, q, paymentID)
		if err != nil {
			return err
		}
		b, err := s.bookings.GetForUpdate(ctx, q, current.BookingID)
		if err != nil {
			return err
		}
		source, err := s.payments.GetForUpdate(ctx, q, paymentID)
		if err != nil {
			return err
		}

		hasPrior, err := s.payments.HasActiveRefund(ctx, q, source.ID)
		if err != nil {
			return err
		}
		if blocker := models.RefundBlocker(source, b, hasPrior); blocker != "" {
			return guardError(GuardPaymentNotRefundable, "%s", blocker)
		}

		amount := source.Amount
		if req.Amount != nil {
			amount = *req.Amount
		}
		if amount.GreaterThan(source.Amount) {
			return validationError("amount", "refund %s exceeds payment amount %s",
				amount.StringFixed(money.Scale), source.Amount.StringFixed(money.Scale))
		}

		method := source.PaymentMethod
		if req.PaymentMethod != "" {
			method = req.PaymentMethod
		}

		sequence, err := s.payments.CountByBooking(ctx, q, b.ID)
		if err != nil {
			return fmt.Errorf("failed to allocate payment sequence: %w", err)
		}
		sequence++

		sourceID := source.ID
		refund = &models.Payment{
			ID:                uuid.New(),
			BookingID:         b.ID,
			PaymentSequence:   sequence,
			PaymentType:       models.PaymentTypeRefund,
			PayerRole:         models.PayerAdmin,
			Amount:            amount,
			Currency:          source.Currency,
			PaymentMethod:     method,
			PaymentReference:  models.GeneratePaymentReference(b.BookingReference, sequence),
			Status:            models.PaymentPending,
			ProcessedBy:       actor.ProcessedBy(),
			RefundOfPaymentID: &sourceID,
			Notes:             &reason,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.payments.Insert(ctx, q, refund); err != nil {
			return err
		}

		audit := models.NewPaymentAudit(models.PaymentEventRefundInitiated, sourceFor(actor), now).
			ForPayment(refund).
			SetActor(actor.ID).
			SetMetadata(actor.Meta).
			SetPayload(map[string]interface{}{
				"refund_of_payment_id": source.ID.String(),
				"reason":               reason,
			})
		audit.SetAmounts(source.Amount, amount)
		return s.audits.Log(ctx, q, audit)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"refund_id":            refund.ID,
		"refund_of_payment_id": paymentID,
		"booking_id":           refund.BookingID,
		"amount":               refund.Amount.StringFixed(money.Scale),
		"actor_id":             actor.ID,
	}).Info("Refund initiated")
	return refund, nil
}

// ============================================================================
// READS
// ============================================================================

// GetPayment returns one payment the actor may see
func (s *PaymentService) GetPayment(ctx context.Context, actor Actor, id uuid.UUID) (*models.Payment, error) {
	p, err := s.payments.GetByID(ctx, s.tx.Querier(), id)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, s.tx.Querier(), p.BookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(b) {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

// ListPayments returns a booking's ledger, newest first
func (s *PaymentService) ListPayments(ctx context.Context, actor Actor, bookingID uuid.UUID) ([]models.Payment, error) {
	b, err := s.bookings.GetByID(ctx, s.tx.Querier(), bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(b) {
		return nil, ErrBookingNotFound
	}
	return s.payments.ListByBooking(ctx, s.tx.Querier(), bookingID)
}

// ListAudits returns a payment's audit trail. Staff only.
func (s *PaymentService) ListAudits(ctx context.Context, actor Actor, paymentID uuid.UUID) ([]models.PaymentAudit, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if _, err := s.payments.GetByID(ctx, s.tx.Querier(), paymentID); err != nil {
		return nil, err
	}
	return s.audits.ListByPayment(ctx, s.tx.Querier(), paymentID)
}

// ============================================================================
// EXPIRY
// ============================================================================

// ExpireStalePending cancels gateway payments left pending since before cutoff.
// Payments that moved on in the meantime are skipped. Returns how many were cancelled.
func (s *PaymentService) ExpireStalePending(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.payments.ListStalePending(ctx, s.tx.Querier(), models.GatewayMethods(), cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale payments: %w", err)
	}

	reason := ExpiredFailureReason
	expired := 0
	for _, p := range stale {
		result, err := s.applyStatus(ctx, SystemActor, p.ID, statusChange{
			Status:        models.PaymentCancelled,
			FailureReason: &reason,
			Source:        models.PaymentSourceSystem,
			EventType:     models.PaymentEventExpired,
		})
		if err != nil {
			if IsGuard(err, GuardInvalidPaymentTransition) || errors.Is(err, ErrConcurrencyConflict) {
				s.logger.WithField("payment_id", p.ID).Debug("Stale payment changed before expiry, skipping")
				continue
			}
			return expired, err
		}
		if result.Applied {
			expired++
		}
	}
	return expired, nil
}
