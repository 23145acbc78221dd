package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
	"github.com/wanderly/travel-agency-backend/internal/models"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body
const SignatureHeader = "X-Signature"

// WebhookHandler receives normalized payment gateway callbacks
type WebhookHandler struct {
	payments PaymentManager
	secret   []byte
	logger   *logrus.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(payments PaymentManager, secret string, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{payments: payments, secret: []byte(secret), logger: logger}
}

// SignPayload returns the signature the gateway is expected to send for body
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (h *WebhookHandler) verify(body []byte, signature string) bool {
	if len(h.secret) == 0 {
		return false
	}
	expected, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// PaymentWebhook handles payment gateway callbacks.
// Authenticated callbacks are always acknowledged with 200 so the gateway stops retrying;
// rejected ones are audited by the payment service.
// @Summary Payment webhook callback
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Signature header string true "Hex HMAC-SHA256 of the body"
// @Success 200 {object} map[string]interface{} "Webhook acknowledged"
// @Failure 401 {object} map[string]interface{} "Bad signature"
// @Router /api/v1/payments/webhook [post]
func (h *WebhookHandler) PaymentWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.logger.WithError(err).Error("Failed to read webhook body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if !h.verify(body, c.GetHeader(SignatureHeader)) {
		h.logger.WithField("ip", c.ClientIP()).Warn("Webhook signature verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_signature", "message": "Webhook signature is invalid"})
		return
	}

	var cb models.GatewayCallback
	if err := binding.JSON.BindBody(body, &cb); err != nil {
		h.logger.WithError(err).Warn("Failed to parse webhook payload")
		c.JSON(http.StatusOK, gin.H{"error": "invalid webhook payload", "acknowledged": true})
		return
	}

	entry := h.logger.WithFields(logrus.Fields{
		"payment_reference": cb.PaymentReference,
		"status":            cb.Status,
		"gateway_reference": cb.GatewayReference,
	})
	entry.Info("Gateway webhook received")

	result, err := h.payments.HandleGatewayCallback(c.Request.Context(), &cb, requestMetadata(c))
	if err != nil {
		entry.WithError(err).Warn("Gateway callback not applied")
		c.JSON(http.StatusOK, gin.H{
			"message":      "webhook acknowledged",
			"acknowledged": true,
			"applied":      false,
			"error":        err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "webhook processed successfully",
		"acknowledged": true,
		"applied":      result.Applied,
		"status":       result.Payment.Status,
	})
}
