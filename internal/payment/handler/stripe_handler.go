package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"resort-booking/internal/logger"
	"resort-booking/internal/models"
	"resort-booking/internal/payment/services"
	"resort-booking/internal/payment/storage"
	"resort-booking/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BookingSettler re-evaluates a booking's lifecycle after the payment
// ledger changes. Implemented by the booking service.
type BookingSettler interface {
	SettlePayments(bookingID string) (*models.Booking, error)
}

// EventSink carries payment events to the broker.
type EventSink interface {
	Publish(topic string, key string, value []byte) error
}

type StripeHandler struct {
	stripeService *services.StripeService
	paymentStore  storage.Store
	producer      EventSink
	settler       BookingSettler
	eventTopic    string
	logger        *logger.Logger
}

func NewStripeHandler(stripeService *services.StripeService, paymentStore storage.Store, producer EventSink, settler BookingSettler, eventTopic string, logger *logger.Logger) *StripeHandler {
	return &StripeHandler{
		stripeService: stripeService,
		paymentStore:  paymentStore,
		producer:      producer,
		settler:       settler,
		eventTopic:    eventTopic,
		logger:        logger,
	}
}

func (h *StripeHandler) publishEvent(eventType string, payment *models.Payment) {
	if h.producer == nil {
		return
	}
	payload, err := json.Marshal(models.PaymentEvent{
		Type:      eventType,
		PaymentID: payment.PaymentID,
		BookingID: payment.BookingID,
		Payment:   payment,
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}
	if err := h.producer.Publish(h.eventTopic, payment.PaymentID, payload); err != nil {
		h.logger.Error("KAFKA", fmt.Sprintf("failed to publish payment event: %v", err))
	}
}

func (h *StripeHandler) settle(bookingID string) {
	if h.settler == nil {
		return
	}
	if _, err := h.settler.SettlePayments(bookingID); err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("failed to settle booking %s: %v", bookingID, err))
	}
}

// CreatePayment records a payment attempt against a booking. The amount
// is fixed at creation time; later calls only move the status fields.
func (h *StripeHandler) CreatePayment(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}
	if req.BookingID == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", "booking_id is required"))
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", "amount must be positive"))
		return
	}

	payment := &models.Payment{
		PaymentID:    uuid.NewString(),
		BookingID:    req.BookingID,
		Amount:       req.Amount,
		Method:       req.Method,
		Status:       models.StatusPending,
		Verification: models.VerificationUnverified,
		URL:          req.URL,
		CreatedDate:  time.Now(),
	}

	if err := h.paymentStore.SavePayment(payment); err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("failed to save payment: %v", err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create payment", "internal error"))
		return
	}

	h.logger.LogBooking("PAYMENT", payment.BookingID, fmt.Sprintf("payment %s recorded for %.2f", payment.PaymentID, payment.Amount))
	h.publishEvent("payment.created", payment)
	c.JSON(http.StatusCreated, utils.SuccessResponse("Payment recorded", payment))
}

// ValidateCard validates credit card details without creating a charge
func (h *StripeHandler) ValidateCard(c *gin.Context) {
	var req models.StripeCardValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	// Only validate cards for bookings that already have a payment record
	payments, err := h.paymentStore.GetPaymentsByBooking(req.BookingID)
	if err != nil || len(payments) == 0 {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request",
			"No payment record found for this booking_id. Create a payment record first."))
		return
	}

	card := &models.StripeCard{
		Number:   req.Card.Number,
		ExpMonth: req.Card.ExpMonth,
		ExpYear:  req.Card.ExpYear,
		CVC:      req.Card.CVC,
		Name:     req.Card.Name,
	}
	result, err := h.stripeService.ValidateCard(card)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Card validation failed", "internal error"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Card validation result", result))
}

// ProcessPayment runs a recorded payment attempt through Stripe. The
// charge amount always comes from the stored record, never the request.
func (h *StripeHandler) ProcessPayment(c *gin.Context) {
	var req models.StripePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}
	if req.PaymentID == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", "payment_id is required"))
		return
	}
	if req.Token == "" && req.Card == nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", "Either token or card must be provided"))
		return
	}
	if req.Currency == "" {
		req.Currency = "usd"
	}

	payment, err := h.paymentStore.GetPayment(req.PaymentID)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Payment not found", "no payment record for this payment_id"))
		return
	}
	if payment.Status != models.StatusPending {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Invalid payment state",
			fmt.Sprintf("payment is %s, only pending payments can be processed", payment.Status)))
		return
	}

	// Amount comes from the record, not the caller
	req.BookingID = payment.BookingID
	req.Amount = payment.Amount

	result, err := h.stripeService.ProcessPayment(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("STRIPE", fmt.Sprintf("payment processing failed: %v", err))
		c.JSON(http.StatusBadGateway, utils.ErrorResponse("Payment processing failed", "gateway error"))
		return
	}

	if !payment.CanTransitionTo(result.Status) && payment.Status != result.Status {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Invalid payment state", "disallowed status transition"))
		return
	}

	payment.Status = result.Status
	payment.TransactionID = result.TransactionID
	payment.URL = result.ReceiptURL
	if err := h.paymentStore.UpdatePayment(payment); err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("failed to update payment %s: %v", payment.PaymentID, err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update payment", "internal error"))
		return
	}

	h.publishEvent("payment."+string(payment.Status), payment)
	c.JSON(http.StatusOK, utils.SuccessResponse("Payment processed", result))
}

// VerifyPayment is the cashier's verification step. A verified, paid
// payment feeds the booking's verified-paid aggregate and triggers a
// settlement pass on the booking.
func (h *StripeHandler) VerifyPayment(c *gin.Context) {
	paymentID := c.Param("paymentId")

	var req struct {
		Verification models.VerificationStatus `json:"verification"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}
	if req.Verification != models.VerificationVerified && req.Verification != models.VerificationFlagged {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", "verification must be 'verified' or 'flagged'"))
		return
	}

	payment, err := h.paymentStore.GetPayment(paymentID)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Payment not found", "no payment record for this payment_id"))
		return
	}
	if !payment.CanVerifyTo(req.Verification) {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Invalid payment state",
			fmt.Sprintf("payment is already %s", payment.Verification)))
		return
	}

	payment.Verification = req.Verification
	if err := h.paymentStore.UpdatePayment(payment); err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("failed to update payment %s: %v", paymentID, err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update payment", "internal error"))
		return
	}

	h.publishEvent("payment."+string(req.Verification), payment)

	if req.Verification == models.VerificationVerified && payment.Status == models.StatusPaid {
		h.settle(payment.BookingID)
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment verification updated", payment))
}

// GetPayment returns one payment record
func (h *StripeHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentStore.GetPayment(c.Param("paymentId"))
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Payment not found", "no payment record for this payment_id"))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Payment", payment))
}

// ListBookingPayments returns every payment attempt against a booking
func (h *StripeHandler) ListBookingPayments(c *gin.Context) {
	payments, err := h.paymentStore.GetPaymentsByBooking(c.Param("bookingId"))
	if err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("failed to list payments: %v", err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list payments", "internal error"))
		return
	}
	if payments == nil {
		payments = []*models.Payment{}
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Payments", payments))
}
