// Command smoke-ledger runs one booking through its payment lifecycle against a
// real database: create, partial cash payment, settle, complete. Use it after
// applying migrations to check a fresh environment.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wanderly/travel-agency-backend/internal/config"
	"github.com/wanderly/travel-agency-backend/internal/database"
	"github.com/wanderly/travel-agency-backend/internal/models"
	"github.com/wanderly/travel-agency-backend/internal/services"
	"github.com/wanderly/travel-agency-backend/pkg/money"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("smoke-ledger writes test bookings; refusing to run in production")
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	clock := services.SystemClock{Location: cfg.Location()}

	bookingRepo := database.NewBookingRepository()
	paymentRepo := database.NewPaymentRepository()
	auditRepo := database.NewPaymentAuditRepository(logger)
	commissions := services.NewCommissionService(db, database.NewCommissionRepository(), clock, logger)
	bookings := services.NewBookingService(db, bookingRepo, paymentRepo, database.NewTourDetailRepository(), auditRepo,
		services.NewReferenceService(bookingRepo), commissions, services.DefaultBookingConfig(), clock, logger)
	payments := services.NewPaymentService(db, bookingRepo, paymentRepo, auditRepo, clock, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	staff := services.Actor{ID: uuid.New(), Role: services.RoleStaff, Email: "smoke@example.com"}
	startAt := clock.Now().AddDate(0, 0, 14)
	endAt := startAt.AddDate(0, 0, 3)
	start := models.NewDate(startAt.Year(), startAt.Month(), startAt.Day())
	end := models.NewDate(endAt.Year(), endAt.Month(), endAt.Day())

	booking, err := bookings.CreateBooking(ctx, staff, &models.CreateBookingRequest{
		ServiceType:          models.ServiceTour,
		BookingSource:        models.SourceWalkIn,
		Adults:               2,
		OriginalPrice:        decimal.RequireFromString("1200"),
		SellingPrice:         decimal.RequireFromString("1000"),
		AllowPartialPayment:  true,
		MinimumPartialAmount: decimal.RequireFromString("200"),
		CustomerName:         "Smoke Test",
		Email:                "smoke@example.com",
		CustomerPhone:        "+94770000000",
		ServiceDate:          &start,
		ServiceEndDate:       &end,
	})
	if err != nil {
		log.Fatalf("CreateBooking: %v", err)
	}
	fmt.Printf("booking   %s  status=%s due=%s\n", booking.BookingReference, booking.Status, money.Format(booking.DueAmount, booking.Currency))

	var collected []decimal.Decimal
	for _, amount := range []string{"400", "600"} {
		p, err := payments.CreatePayment(ctx, staff, booking.ID, &models.CreatePaymentRequest{
			PaymentType:   models.PaymentTypePartial,
			Amount:        decimal.RequireFromString(amount),
			PaymentMethod: models.MethodCash,
		})
		if err != nil {
			log.Fatalf("CreatePayment(%s): %v", amount, err)
		}
		result, err := payments.UpdatePaymentStatus(ctx, staff, p.ID, &models.UpdatePaymentStatusRequest{Status: models.PaymentCompleted})
		if err != nil {
			log.Fatalf("UpdatePaymentStatus(%s): %v", p.PaymentReference, err)
		}
		collected = append(collected, p.Amount)
		fmt.Printf("payment   %s  amount=%s booking=%s due=%s\n",
			p.PaymentReference, money.Format(p.Amount, p.Currency), result.Booking.PaymentStatus,
			money.Format(result.Booking.DueAmount, booking.Currency))
	}

	completed, err := bookings.CompleteBooking(ctx, staff, booking.ID, &models.CompleteBookingRequest{})
	if err != nil {
		log.Fatalf("CompleteBooking: %v", err)
	}
	if total := money.Sum(collected...); !total.Equal(completed.PaidAmount) {
		log.Fatalf("paid_amount %s does not match collected %s", completed.PaidAmount, total)
	}
	fmt.Printf("completed %s  status=%s paid=%s\n", completed.BookingReference, completed.Status,
		money.Format(completed.PaidAmount, completed.Currency))
}
