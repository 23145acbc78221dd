package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wanderly/travel-agency-backend/internal/middleware"
	"github.com/wanderly/travel-agency-backend/internal/models"
	"github.com/wanderly/travel-agency-backend/internal/services"
	"github.com/wanderly/travel-agency-backend/pkg/jwt"
)

const (
	testJWTSecret     = "handler-test-secret-0123456789"
	testWebhookSecret = "whsec-test"
)

type fakeBookings struct {
	create     func(actor services.Actor, req *models.CreateBookingRequest) (*models.Booking, error)
	get        func(actor services.Actor, id uuid.UUID) (*models.BookingDetailResponse, error)
	byRef      func(actor services.Actor, reference string) (*models.BookingDetailResponse, error)
	list       func(actor services.Actor, filter models.BookingFilter) ([]models.Booking, error)
	pricing    func(actor services.Actor, id uuid.UUID, req *models.UpdatePricingRequest) (*models.Booking, error)
	confirm    func(actor services.Actor, id uuid.UUID) (*models.Booking, error)
	complete   func(actor services.Actor, id uuid.UUID, req *models.CompleteBookingRequest) (*models.Booking, error)
	cancel     func(actor services.Actor, id uuid.UUID, req *models.CancelBookingRequest) (*models.Booking, error)
	lastActor  services.Actor
	lastFilter models.BookingFilter
}

func (f *fakeBookings) CreateBooking(_ context.Context, actor services.Actor, req *models.CreateBookingRequest) (*models.Booking, error) {
	f.lastActor = actor
	return f.create(actor, req)
}

func (f *fakeBookings) GetBooking(_ context.Context, actor services.Actor, id uuid.UUID) (*models.BookingDetailResponse, error) {
	f.lastActor = actor
	return f.get(actor, id)
}

func (f *fakeBookings) GetBookingByReference(_ context.Context, actor services.Actor, reference string) (*models.BookingDetailResponse, error) {
	f.lastActor = actor
	return f.byRef(actor, reference)
}

func (f *fakeBookings) ListBookings(_ context.Context, actor services.Actor, filter models.BookingFilter) ([]models.Booking, error) {
	f.lastActor = actor
	f.lastFilter = filter
	return f.list(actor, filter)
}

func (f *fakeBookings) UpdatePricing(_ context.Context, actor services.Actor, id uuid.UUID, req *models.UpdatePricingRequest) (*models.Booking, error) {
	f.lastActor = actor
	return f.pricing(actor, id, req)
}

func (f *fakeBookings) ConfirmBooking(_ context.Context, actor services.Actor, id uuid.UUID) (*models.Booking, error) {
	f.lastActor = actor
	return f.confirm(actor, id)
}

func (f *fakeBookings) CompleteBooking(_ context.Context, actor services.Actor, id uuid.UUID, req *models.CompleteBookingRequest) (*models.Booking, error) {
	f.lastActor = actor
	return f.complete(actor, id, req)
}

func (f *fakeBookings) CancelBooking(_ context.Context, actor services.Actor, id uuid.UUID, req *models.CancelBookingRequest) (*models.Booking, error) {
	f.lastActor = actor
	return f.cancel(actor, id, req)
}

type fakePayments struct {
	create    func(actor services.Actor, bookingID uuid.UUID, req *models.CreatePaymentRequest) (*models.Payment, error)
	status    func(actor services.Actor, id uuid.UUID, req *models.UpdatePaymentStatusRequest) (*models.PaymentResult, error)
	callback  func(cb *models.GatewayCallback, meta models.AuditMetadata) (*models.PaymentResult, error)
	refund    func(actor services.Actor, id uuid.UUID, req *models.CreateRefundRequest) (*models.Payment, error)
	get       func(actor services.Actor, id uuid.UUID) (*models.Payment, error)
	list      func(actor services.Actor, bookingID uuid.UUID) ([]models.Payment, error)
	audits    func(actor services.Actor, paymentID uuid.UUID) ([]models.PaymentAudit, error)
	callbacks int
	lastActor services.Actor
}

func (f *fakePayments) CreatePayment(_ context.Context, actor services.Actor, bookingID uuid.UUID, req *models.CreatePaymentRequest) (*models.Payment, error) {
	f.lastActor = actor
	return f.create(actor, bookingID, req)
}

func (f *fakePayments) UpdatePaymentStatus(_ context.Context, actor services.Actor, id uuid.UUID, req *models.UpdatePaymentStatusRequest) (*models.PaymentResult, error) {
	f.lastActor = actor
	return f.status(actor, id, req)
}

func (f *fakePayments) HandleGatewayCallback(_ context.Context, cb *models.GatewayCallback, meta models.AuditMetadata) (*models.PaymentResult, error) {
	f.callbacks++
	return f.callback(cb, meta)
}

func (f *fakePayments) CreateRefund(_ context.Context, actor services.Actor, id uuid.UUID, req *models.CreateRefundRequest) (*models.Payment, error) {
	f.lastActor = actor
	return f.refund(actor, id, req)
}

func (f *fakePayments) GetPayment(_ context.Context, actor services.Actor, id uuid.UUID) (*models.Payment, error) {
	f.lastActor = actor
	return f.get(actor, id)
}

func (f *fakePayments) ListPayments(_ context.Context, actor services.Actor, bookingID uuid.UUID) ([]models.Payment, error) {
	f.lastActor = actor
	return f.list(actor, bookingID)
}

func (f *fakePayments) ListAudits(_ context.Context, actor services.Actor, paymentID uuid.UUID) ([]models.PaymentAudit, error) {
	f.lastActor = actor
	return f.audits(actor, paymentID)
}

type fakeCommissions struct {
	upsert      func(actor services.Actor, req *models.UpsertCommissionRuleRequest) (*models.CommissionRule, error)
	del         func(actor services.Actor, id uuid.UUID) error
	list        func(serviceType *models.ServiceType) ([]models.CommissionRule, error)
	quote       func(serviceType models.ServiceType, agentID *uuid.UUID, sellingPrice decimal.Decimal) (*models.CommissionQuote, error)
	lastAgentID *uuid.UUID
}

func (f *fakeCommissions) UpsertRule(_ context.Context, actor services.Actor, req *models.UpsertCommissionRuleRequest) (*models.CommissionRule, error) {
	return f.upsert(actor, req)
}

func (f *fakeCommissions) DeleteRule(_ context.Context, actor services.Actor, id uuid.UUID) error {
	return f.del(actor, id)
}

func (f *fakeCommissions) ListRules(_ context.Context, serviceType *models.ServiceType) ([]models.CommissionRule, error) {
	return f.list(serviceType)
}

func (f *fakeCommissions) QuoteAgentPrice(_ context.Context, serviceType models.ServiceType, agentID *uuid.UUID, sellingPrice decimal.Decimal) (*models.CommissionQuote, error) {
	f.lastAgentID = agentID
	return f.quote(serviceType, agentID, sellingPrice)
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type testServer struct {
	engine      *gin.Engine
	jwt         *jwt.Service
	bookings    *fakeBookings
	payments    *fakePayments
	commissions *fakeCommissions
	pinger      *fakePinger
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	logger := discardLogger()

	ts := &testServer{
		engine:      gin.New(),
		jwt:         jwt.NewService(testJWTSecret, "test", time.Hour),
		bookings:    &fakeBookings{},
		payments:    &fakePayments{},
		commissions: &fakeCommissions{},
		pinger:      &fakePinger{},
	}

	ts.engine.Use(middleware.RequestID())
	Router{
		Bookings:    NewBookingHandler(ts.bookings, logger),
		Payments:    NewPaymentHandler(ts.payments, logger),
		Webhooks:    NewWebhookHandler(ts.payments, testWebhookSecret, logger),
		Commissions: NewCommissionHandler(ts.commissions, logger),
		Health:      NewHealthHandler(ts.pinger, nil),
	}.Register(ts.engine, middleware.AuthMiddleware(ts.jwt, logger))
	return ts
}

type testCaller struct {
	id      uuid.UUID
	roles   []string
	agentID *uuid.UUID
}

var (
	staffCaller    = testCaller{id: uuid.MustParse("00000000-0000-0000-0000-0000000000a1"), roles: []string{"staff"}}
	adminCaller    = testCaller{id: uuid.MustParse("00000000-0000-0000-0000-0000000000a2"), roles: []string{"admin"}}
	customerCaller = testCaller{id: uuid.MustParse("00000000-0000-0000-0000-0000000000c1"), roles: []string{"customer"}}
	agentCaller    = testCaller{id: uuid.MustParse("00000000-0000-0000-0000-0000000000d1"), roles: []string{"agent"}}
)

func (ts *testServer) do(caller *testCaller, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	if caller != nil {
		token, err := ts.jwt.GenerateAccessToken(caller.id, "caller@example.com", caller.roles, caller.agentID)
		if err != nil {
			panic(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func (ts *testServer) webhook(body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}
