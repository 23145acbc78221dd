package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/wanderly/travel-agency-backend/internal/middleware"
	"github.com/wanderly/travel-agency-backend/internal/services"
)

// Router groups the handlers mounted under /api/v1
type Router struct {
	Bookings    *BookingHandler
	Payments    *PaymentHandler
	Webhooks    *WebhookHandler
	Commissions *CommissionHandler
	Health      *HealthHandler
}

// Register mounts all routes. auth validates the bearer token; the webhook
// authenticates by signature instead.
func (rt Router) Register(engine *gin.Engine, auth gin.HandlerFunc) {
	engine.GET("/health", rt.Health.Health)

	v1 := engine.Group("/api/v1")
	v1.GET("/health", rt.Health.Health)
	v1.POST("/payments/webhook", rt.Webhooks.PaymentWebhook)

	staff := middleware.RequireRole(services.RoleStaff, services.RoleAdmin)
	admin := middleware.RequireRole(services.RoleAdmin)

	protected := v1.Group("")
	protected.Use(auth)
	{
		bookings := protected.Group("/bookings")
		{
			bookings.POST("", rt.Bookings.CreateBooking)
			bookings.GET("", rt.Bookings.ListBookings)
			bookings.GET("/reference/:reference", rt.Bookings.GetBookingByReference)
			bookings.GET("/:id", rt.Bookings.GetBooking)
			bookings.PATCH("/:id/pricing", staff, rt.Bookings.UpdatePricing)
			bookings.POST("/:id/confirm", staff, rt.Bookings.ConfirmBooking)
			bookings.POST("/:id/complete", staff, rt.Bookings.CompleteBooking)
			bookings.POST("/:id/cancel", rt.Bookings.CancelBooking)
			bookings.GET("/:id/payments", rt.Payments.ListPayments)
			bookings.POST("/:id/payments", rt.Payments.CreatePayment)
		}

		payments := protected.Group("/payments")
		{
			payments.GET("/:id", rt.Payments.GetPayment)
			payments.POST("/:id/status", staff, rt.Payments.UpdatePaymentStatus)
			payments.POST("/:id/refund", staff, rt.Payments.CreateRefund)
			payments.GET("/:id/audits", staff, rt.Payments.ListAudits)
		}

		commissions := protected.Group("/commissions")
		{
			commissions.GET("", staff, rt.Commissions.ListRules)
			commissions.GET("/quote", middleware.RequireRole(services.RoleAgent, services.RoleStaff, services.RoleAdmin), rt.Commissions.QuoteAgentPrice)
			commissions.PUT("", admin, rt.Commissions.UpsertRule)
			commissions.DELETE("/:id", admin, rt.Commissions.DeleteRule)
		}
	}
}
