package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wanderly/travel-agency-backend/internal/models"
	"github.com/wanderly/travel-agency-backend/internal/services"
)

func TestCreatePayment_Handler(t *testing.T) {
	ts := newTestServer()
	bookingID := uuid.New()
	ts.payments.create = func(actor services.Actor, id uuid.UUID, req *models.CreatePaymentRequest) (*models.Payment, error) {
		assert.Equal(t, bookingID, id)
		return &models.Payment{
			ID:               uuid.New(),
			BookingID:        id,
			PaymentReference: "TR-202503-0001-P1",
			Status:           models.PaymentPending,
			Amount:           req.Amount,
		}, nil
	}

	w := ts.do(&customerCaller, http.MethodPost, "/api/v1/bookings/"+bookingID.String()+"/payments",
		`{"payment_type":"advance","payment_method":"payhere","amount":"200.00"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "TR-202503-0001-P1")
	assert.Equal(t, services.RoleCustomer, ts.payments.lastActor.Role)
}

func TestCreatePayment_Handler_Guard(t *testing.T) {
	ts := newTestServer()
	ts.payments.create = func(services.Actor, uuid.UUID, *models.CreatePaymentRequest) (*models.Payment, error) {
		return nil, &services.GuardError{Code: services.GuardBookingNotPayable, Message: "booking is cancelled"}
	}

	w := ts.do(&staffCaller, http.MethodPost, "/api/v1/bookings/"+uuid.NewString()+"/payments",
		`{"payment_type":"full","payment_method":"cash","amount":"100"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), services.GuardBookingNotPayable)
}

func TestListAndGetPayments_Handler(t *testing.T) {
	ts := newTestServer()
	paymentID := uuid.New()
	ts.payments.list = func(services.Actor, uuid.UUID) ([]models.Payment, error) {
		return []models.Payment{{ID: paymentID}}, nil
	}
	ts.payments.get = func(_ services.Actor, id uuid.UUID) (*models.Payment, error) {
		if id != paymentID {
			return nil, services.ErrPaymentNotFound
		}
		return &models.Payment{ID: id}, nil
	}

	w := ts.do(&agentCaller, http.MethodGet, "/api/v1/bookings/"+uuid.NewString()+"/payments", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Payments []models.Payment `json:"payments"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)

	w = ts.do(&agentCaller, http.MethodGet, "/api/v1/payments/"+paymentID.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(&agentCaller, http.MethodGet, "/api/v1/payments/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatePaymentStatus_Handler(t *testing.T) {
	ts := newTestServer()
	ts.payments.status = func(_ services.Actor, id uuid.UUID, req *models.UpdatePaymentStatusRequest) (*models.PaymentResult, error) {
		return &models.PaymentResult{
			Payment: &models.Payment{ID: id, Status: req.Status},
			Booking: &models.Booking{PaymentStatus: models.BookingPaymentPartial},
			Applied: true,
		}, nil
	}
	path := "/api/v1/payments/" + uuid.NewString() + "/status"

	w := ts.do(&customerCaller, http.MethodPost, path, `{"status":"completed"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(&staffCaller, http.MethodPost, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(&staffCaller, http.MethodPost, path, `{"status":"completed","receipt_number":"R-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"applied":true`)
}

func TestCreateRefund_Handler(t *testing.T) {
	ts := newTestServer()
	ts.payments.refund = func(_ services.Actor, _ uuid.UUID, req *models.CreateRefundRequest) (*models.Payment, error) {
		if req.Amount != nil {
			return nil, &services.ValidationError{Field: "amount", Message: "refund exceeds the source payment"}
		}
		return &models.Payment{ID: uuid.New(), PaymentType: models.PaymentTypeRefund, Status: models.PaymentPending}, nil
	}
	path := "/api/v1/payments/" + uuid.NewString() + "/refund"

	w := ts.do(&staffCaller, http.MethodPost, path, `{"reason":"tour cancelled by operator"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(&staffCaller, http.MethodPost, path, `{"reason":"x","amount":"99999"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(&staffCaller, http.MethodPost, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(&agentCaller, http.MethodPost, path, `{"reason":"x"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPaymentWebhook(t *testing.T) {
	payload := `{"payment_reference":"TR-202503-0001-P1","status":"completed","gateway_reference":"gw-77","amount":"200.00"}`

	t.Run("applied", func(t *testing.T) {
		ts := newTestServer()
		ts.payments.callback = func(cb *models.GatewayCallback, meta models.AuditMetadata) (*models.PaymentResult, error) {
			assert.Equal(t, "TR-202503-0001-P1", cb.PaymentReference)
			assert.Equal(t, models.PaymentCompleted, cb.Status)
			require.NotNil(t, cb.Amount)
			assert.Equal(t, "200", cb.Amount.String())
			assert.NotEmpty(t, meta.CorrelationID)
			return &models.PaymentResult{Payment: &models.Payment{Status: models.PaymentCompleted}, Applied: true}, nil
		}

		w := ts.webhook(payload, SignPayload(testWebhookSecret, []byte(payload)))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"applied":true`)
		assert.Equal(t, 1, ts.payments.callbacks)
	})

	t.Run("bad signature", func(t *testing.T) {
		ts := newTestServer()
		w := ts.webhook(payload, SignPayload("wrong-secret", []byte(payload)))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 0, ts.payments.callbacks)
	})

	t.Run("missing signature", func(t *testing.T) {
		ts := newTestServer()
		w := ts.webhook(payload, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 0, ts.payments.callbacks)
	})

	t.Run("malformed payload is acknowledged", func(t *testing.T) {
		ts := newTestServer()
		body := `{"status":"completed"}`
		w := ts.webhook(body, SignPayload(testWebhookSecret, []byte(body)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "invalid webhook payload")
		assert.Equal(t, 0, ts.payments.callbacks)
	})

	t.Run("rejected callback is acknowledged", func(t *testing.T) {
		ts := newTestServer()
		ts.payments.callback = func(*models.GatewayCallback, models.AuditMetadata) (*models.PaymentResult, error) {
			return nil, &services.GuardError{Code: services.GuardAmountMismatch, Message: "amount does not match"}
		}

		w := ts.webhook(payload, SignPayload(testWebhookSecret, []byte(payload)))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"applied":false`)
		assert.Contains(t, w.Body.String(), services.GuardAmountMismatch)
	})
}

func TestListAudits_Handler(t *testing.T) {
	ts := newTestServer()
	ts.payments.audits = func(services.Actor, uuid.UUID) ([]models.PaymentAudit, error) {
		return []models.PaymentAudit{{ID: uuid.New(), EventType: models.PaymentEventCreated}}, nil
	}
	path := "/api/v1/payments/" + uuid.NewString() + "/audits"

	w := ts.do(&staffCaller, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(models.PaymentEventCreated))

	w = ts.do(&customerCaller, http.MethodGet, path, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
