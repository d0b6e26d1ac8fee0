package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"resort-booking/internal/logger"
	"resort-booking/internal/models"
	"resort-booking/internal/payment/handler"
)

type mockStore struct {
	payments map[string]*models.Payment
	saveErr  error
}

func newMockStore() *mockStore {
	return &mockStore{payments: make(map[string]*models.Payment)}
}

func (m *mockStore) SavePayment(p *models.Payment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *p
	m.payments[p.PaymentID] = &copied
	return nil
}

func (m *mockStore) GetPayment(id string) (*models.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, errors.New("payment not found")
	}
	copied := *p
	return &copied, nil
}

func (m *mockStore) UpdatePayment(p *models.Payment) error {
	copied := *p
	m.payments[p.PaymentID] = &copied
	return nil
}

func (m *mockStore) GetPaymentsByBooking(bookingID string) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range m.payments {
		if p.BookingID == bookingID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockStore) VerifiedTotal(bookingID string) (float64, error) {
	var total float64
	for _, p := range m.payments {
		if p.BookingID == bookingID && p.Status == models.StatusPaid && p.Verification == models.VerificationVerified {
			total += p.Amount
		}
	}
	return total, nil
}

func (m *mockStore) Close() error       { return nil }
func (m *mockStore) HealthCheck() error { return nil }

type mockSink struct {
	topics []string
	types  []string
}

func (m *mockSink) Publish(topic, key string, value []byte) error {
	m.topics = append(m.topics, topic)
	var event models.PaymentEvent
	if err := json.Unmarshal(value, &event); err == nil {
		m.types = append(m.types, event.Type)
	}
	return nil
}

type mockSettler struct {
	settled []string
	err     error
}

func (m *mockSettler) SettlePayments(bookingID string) (*models.Booking, error) {
	m.settled = append(m.settled, bookingID)
	return &models.Booking{BookingID: bookingID}, m.err
}

func setupHandler() (*mockStore, *mockSink, *mockSettler, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	store := newMockStore()
	sink := &mockSink{}
	settler := &mockSettler{}
	h := handler.NewStripeHandler(nil, store, sink, settler, "resortly.payments.status", logger.NewLogger())

	router := gin.New()
	router.POST("/payments", h.CreatePayment)
	router.POST("/payments/:paymentId/verify", h.VerifyPayment)
	router.GET("/payments/:paymentId", h.GetPayment)
	router.GET("/bookings/:bookingId/payments", h.ListBookingPayments)
	return store, sink, settler, router
}

func postJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreatePayment(t *testing.T) {
	store, sink, _, router := setupHandler()

	rec := postJSON(t, router, http.MethodPost, "/payments", models.PaymentRequest{
		BookingID: "bk-1",
		Amount:    150,
		Method:    "card",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.payments) != 1 {
		t.Fatalf("expected 1 stored payment, got %d", len(store.payments))
	}
	for _, p := range store.payments {
		if p.Status != models.StatusPending {
			t.Errorf("new payment should be pending, got %s", p.Status)
		}
		if p.Verification != models.VerificationUnverified {
			t.Errorf("new payment should be unverified, got %s", p.Verification)
		}
	}
	if len(sink.types) != 1 || sink.types[0] != "payment.created" {
		t.Errorf("expected payment.created event, got %v", sink.types)
	}
}

func TestCreatePaymentRejectsBadInput(t *testing.T) {
	_, _, _, router := setupHandler()

	cases := []models.PaymentRequest{
		{Amount: 100},                    // missing booking id
		{BookingID: "bk-1"},              // missing amount
		{BookingID: "bk-1", Amount: -20}, // negative amount
	}
	for i, req := range cases {
		rec := postJSON(t, router, http.MethodPost, "/payments", req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, rec.Code)
		}
	}
}

func TestVerifyPaymentTriggersSettlement(t *testing.T) {
	store, sink, settler, router := setupHandler()
	store.payments["pay-1"] = &models.Payment{
		PaymentID:    "pay-1",
		BookingID:    "bk-1",
		Amount:       150,
		Status:       models.StatusPaid,
		Verification: models.VerificationUnverified,
	}

	rec := postJSON(t, router, http.MethodPost, "/payments/pay-1/verify",
		map[string]string{"verification": "verified"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.payments["pay-1"].Verification != models.VerificationVerified {
		t.Errorf("expected verified, got %s", store.payments["pay-1"].Verification)
	}
	if len(settler.settled) != 1 || settler.settled[0] != "bk-1" {
		t.Errorf("expected settle call for bk-1, got %v", settler.settled)
	}
	if len(sink.types) != 1 || sink.types[0] != "payment.verified" {
		t.Errorf("expected payment.verified event, got %v", sink.types)
	}
}

func TestVerifyPendingPaymentDoesNotSettle(t *testing.T) {
	store, _, settler, router := setupHandler()
	store.payments["pay-1"] = &models.Payment{
		PaymentID:    "pay-1",
		BookingID:    "bk-1",
		Amount:       150,
		Status:       models.StatusPending,
		Verification: models.VerificationUnverified,
	}

	rec := postJSON(t, router, http.MethodPost, "/payments/pay-1/verify",
		map[string]string{"verification": "verified"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(settler.settled) != 0 {
		t.Errorf("pending payment must not trigger settlement, got %v", settler.settled)
	}
}

func TestVerifyPaymentIsFinal(t *testing.T) {
	store, _, _, router := setupHandler()
	store.payments["pay-1"] = &models.Payment{
		PaymentID:    "pay-1",
		BookingID:    "bk-1",
		Status:       models.StatusPaid,
		Verification: models.VerificationFlagged,
	}

	rec := postJSON(t, router, http.MethodPost, "/payments/pay-1/verify",
		map[string]string{"verification": "verified"})
	if rec.Code != http.StatusConflict {
		t.Errorf("re-verification should be rejected, got %d", rec.Code)
	}
}

func TestVerifyPaymentRejectsUnknownDecision(t *testing.T) {
	store, _, _, router := setupHandler()
	store.payments["pay-1"] = &models.Payment{PaymentID: "pay-1", BookingID: "bk-1"}

	rec := postJSON(t, router, http.MethodPost, "/payments/pay-1/verify",
		map[string]string{"verification": "maybe"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	_, _, _, router := setupHandler()

	rec := postJSON(t, router, http.MethodGet, "/payments/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestListBookingPaymentsEmpty(t *testing.T) {
	_, _, _, router := setupHandler()

	rec := postJSON(t, router, http.MethodGet, "/bookings/bk-1/payments", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte(`"data":null`)) {
		t.Error("empty list should encode as [] not null")
	}
}
