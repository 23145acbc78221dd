package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/wanderly/travel-agency-backend/internal/models"
)

// PaymentHandler serves the payment ledger endpoints
type PaymentHandler struct {
	payments PaymentManager
	logger   *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentManager, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// CreatePayment records a pending payment against a booking
// @Summary Create payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body models.CreatePaymentRequest true "Payment details"
// @Success 201 {object} models.Payment
// @Failure 400 {object} map[string]interface{} "Validation failed"
// @Failure 409 {object} map[string]interface{} "Booking not payable or overpayment"
// @Security BearerAuth
// @Router /api/v1/bookings/{id}/payments [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	bookingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := h.payments.CreatePayment(c.Request.Context(), actor, bookingID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// ListPayments returns a booking's payment ledger, newest first
// @Router /api/v1/bookings/{id}/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	bookingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	payments, err := h.payments.ListPayments(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments, "count": len(payments)})
}

// GetPayment returns one payment
// @Router /api/v1/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	payment, err := h.payments.GetPayment(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// UpdatePaymentStatus is the staff path for cash, POS and bank transfer payments
// @Summary Update payment status
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param request body models.UpdatePaymentStatusRequest true "New status"
// @Success 200 {object} models.PaymentResult
// @Failure 409 {object} map[string]interface{} "Invalid transition"
// @Security BearerAuth
// @Router /api/v1/payments/{id}/status [post]
func (h *PaymentHandler) UpdatePaymentStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdatePaymentStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.payments.UpdatePaymentStatus(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateRefund issues a refund against a completed payment
// @Summary Create refund
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Source payment ID"
// @Param request body models.CreateRefundRequest true "Refund details"
// @Success 201 {object} models.Payment
// @Failure 409 {object} map[string]interface{} "Payment not refundable"
// @Security BearerAuth
// @Router /api/v1/payments/{id}/refund [post]
func (h *PaymentHandler) CreateRefund(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.CreateRefundRequest
	if !bindJSON(c, &req) {
		return
	}

	refund, err := h.payments.CreateRefund(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, refund)
}

// ListAudits returns the payment's audit trail
// @Router /api/v1/payments/{id}/audits [get]
func (h *PaymentHandler) ListAudits(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	audits, err := h.payments.ListAudits(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if audits == nil {
		audits = []models.PaymentAudit{}
	}

	c.JSON(http.StatusOK, gin.H{"audits": audits, "count": len(audits)})
}
