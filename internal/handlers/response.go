package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wanderly/travel-agency-backend/internal/database"
	"github.com/wanderly/travel-agency-backend/internal/middleware"
	"github.com/wanderly/travel-agency-backend/internal/models"
	"github.com/wanderly/travel-agency-backend/internal/services"
	"github.com/wanderly/travel-agency-backend/internal/utils"
)

// respondError maps a service error onto the API's error envelope
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var (
		validation *services.ValidationError
		guard      *services.GuardError
		integrity  *services.IntegrityError
		unique     *database.UniqueViolationError
	)

	switch {
	case errors.As(err, &validation):
		body := gin.H{"error": "validation_failed", "message": validation.Message}
		if validation.Field != "" {
			body["field"] = validation.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &guard):
		c.JSON(http.StatusConflict, gin.H{"error": guard.Code, "message": guard.Message})
	case errors.Is(err, services.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "concurrency_conflict",
			"message":   "The record was modified by another request. Please retry.",
			"retryable": true,
		})
	case errors.Is(err, services.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Booking not found"})
	case errors.Is(err, services.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Payment not found"})
	case errors.Is(err, services.ErrCommissionRuleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Commission rule not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to perform this operation",
		})
	case errors.As(err, &unique):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate", "message": unique.Error()})
	case errors.As(err, &integrity):
		logger.WithError(err).WithField("path", c.FullPath()).Error("Integrity error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "integrity_error", "message": "Internal error"})
	default:
		logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Internal error"})
	}
}

// requestMetadata collects what payment audits record about the caller
func requestMetadata(c *gin.Context) models.AuditMetadata {
	userAgent := c.Request.UserAgent()
	return models.AuditMetadata{
		IPAddress:     utils.GetRealIP(c),
		UserAgent:     userAgent,
		DeviceType:    utils.ParseUserAgent(userAgent).DeviceType,
		CorrelationID: middleware.GetRequestID(c),
	}
}

// currentActor returns the authenticated caller, writing a 401 when absent
func currentActor(c *gin.Context) (services.Actor, bool) {
	actorCtx, exists := middleware.GetActorContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Authentication required"})
		return services.Actor{}, false
	}
	actor := actorCtx.Actor()
	actor.Meta = requestMetadata(c)
	return actor, true
}

// uuidParam parses a path parameter, writing a 400 when malformed
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id", "message": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the body, writing a 400 on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return false
	}
	return true
}
