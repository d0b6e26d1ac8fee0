package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"resort-booking/internal/auth"
	"resort-booking/internal/booking"
	"resort-booking/internal/logger"
	"resort-booking/internal/models"
	"resort-booking/internal/utils"
)

type Handler struct {
	BookingService *booking.BookingService
	Reconciler     *booking.Reconciler
	Logger         *logger.Logger
}

func NewHandler(service *booking.BookingService, reconciler *booking.Reconciler, log *logger.Logger) *Handler {
	return &Handler{
		BookingService: service,
		Reconciler:     reconciler,
		Logger:         log,
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

// respondError maps the service error taxonomy onto HTTP statuses. Store
// failures become a generic 500 with no internal detail leaked.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
	case errors.Is(err, booking.ErrNotFound):
		h.respond(w, http.StatusNotFound, utils.ErrorResponse("not found", err.Error()))
	case errors.Is(err, booking.ErrRoomUnavailable):
		h.respond(w, http.StatusConflict, utils.ErrorResponse("room unavailable", booking.ErrRoomUnavailable.Error()))
	case errors.Is(err, booking.ErrInvalidTransition):
		h.respond(w, http.StatusConflict, utils.ErrorResponse("invalid transition", err.Error()))
	default:
		h.Logger.Error("API", fmt.Sprintf("internal error: %v", err))
		h.respond(w, http.StatusInternalServerError, utils.ErrorResponse("internal error", "internal error"))
	}
}

// Availability handles POST /api/v1/availability
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	var req models.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("Availability: category=%s range=%s..%s", req.CategoryID, req.CheckIn, req.CheckOut))

	resp, err := h.BookingService.Availability(req.CategoryID, req.CheckIn, req.CheckOut)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, resp)
}

// PlaceHold handles POST /api/v1/bookings
func (h *Handler) PlaceHold(w http.ResponseWriter, r *http.Request) {
	guestID := auth.UserID(r.Context())
	if guestID == "" {
		h.respond(w, http.StatusUnauthorized, utils.ErrorResponse("unauthorized", "missing identity"))
		return
	}

	var req models.HoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("PlaceHold: guest=%s room=%s", guestID, req.RoomID))

	placed, err := h.BookingService.PlaceHold(guestID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, models.HoldResponse{Success: true, Booking: placed})
}

// GetBooking handles GET /api/v1/bookings/{bookingId}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("GetBooking: bookingId=%s", bookingID))

	b, err := h.BookingService.GetBooking(bookingID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, b)
}

// SettleBooking handles POST /api/v1/bookings/{bookingId}/settle. It is
// called after a payment attempt lands and re-evaluates the ledger.
func (h *Handler) SettleBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("SettleBooking: bookingId=%s", bookingID))

	b, err := h.BookingService.SettlePayments(bookingID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, b)
}

// ReserveBooking handles POST /api/v1/bookings/{bookingId}/reserve
// (back office: pay-at-desk, exempt from hold expiry).
func (h *Handler) ReserveBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	actor := auth.UserID(r.Context())

	b, err := h.BookingService.MarkReservation(actor, bookingID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, b)
}

// CompleteBooking handles POST /api/v1/bookings/{bookingId}/complete
func (h *Handler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	actor := auth.UserID(r.Context())

	b, err := h.BookingService.Complete(actor, bookingID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, b)
}

// CancelBooking handles DELETE /api/v1/bookings/{bookingId}
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	actor := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("CancelBooking: bookingId=%s actor=%s", bookingID, actor))

	b, err := h.BookingService.Cancel(actor, bookingID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, b)
}

// GuestBookings handles GET /api/v1/guests/{guestId}/bookings
func (h *Handler) GuestBookings(w http.ResponseWriter, r *http.Request) {
	guestID := chi.URLParam(r, "guestId")
	if guestID == "" {
		h.respond(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", "guest id is required"))
		return
	}

	bookings, err := h.BookingService.BookingsByGuest(guestID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	h.respond(w, http.StatusOK, bookings)
}

// ReleaseExpired handles POST /api/v1/bookings/release, the external
// trigger of the reconciliation worker.
func (h *Handler) ReleaseExpired(w http.ResponseWriter, r *http.Request) {
	released, err := h.Reconciler.Run()
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, utils.SuccessResponse("release complete", map[string]int{"released": released}))
}
