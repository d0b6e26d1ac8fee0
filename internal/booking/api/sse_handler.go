package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"resort-booking/internal/auth"
	"resort-booking/internal/logger"
	"resort-booking/internal/models"
	"resort-booking/internal/sse"

	"github.com/go-chi/chi/v5"
)

// SSEHandler manages Server-Sent Events endpoints for booking events
type SSEHandler struct {
	Logger       *logger.Logger
	EventEmitter *sse.BookingEventEmitter
}

// NewSSEHandler creates a new SSE handler for booking events
func NewSSEHandler(logger *logger.Logger) *SSEHandler {
	return &SSEHandler{
		Logger:       logger,
		EventEmitter: sse.NewBookingEventEmitter(),
	}
}

// HandleRoomEvents streams booking events for one room. Back office only.
func (h *SSEHandler) HandleRoomEvents(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		http.Error(w, "Room ID is required", http.StatusBadRequest)
		return
	}

	if auth.Role(r.Context()) != "staff" {
		http.Error(w, "Unauthorized access", http.StatusForbidden)
		return
	}

	h.setupSSEHeaders(w)
	ctx := r.Context()
	eventChan := h.EventEmitter.SubscribeToRoom(ctx, roomID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"roomID\":\"%s\"}\n\n", roomID)
	w.(http.Flusher).Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to booking events for room: %s", roomID))

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Channel closed for room: %s", roomID))
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize booking event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: booking\ndata: %s\n\n", jsonData)
			w.(http.Flusher).Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from room events for: %s", roomID))
			return
		}
	}
}

// HandleGuestEvents streams a guest's own booking events. Guests may only
// subscribe to themselves; staff can watch any guest.
func (h *SSEHandler) HandleGuestEvents(w http.ResponseWriter, r *http.Request) {
	guestID := chi.URLParam(r, "guestId")
	if guestID == "" {
		http.Error(w, "Guest ID is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if auth.UserID(ctx) != guestID && auth.Role(ctx) != "staff" {
		http.Error(w, "Unauthorized access", http.StatusForbidden)
		return
	}

	h.setupSSEHeaders(w)
	eventChan := h.EventEmitter.SubscribeToGuest(ctx, guestID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"guestID\":\"%s\"}\n\n", guestID)
	w.(http.Flusher).Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to booking events for guest: %s", guestID))

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Channel closed for guest: %s", guestID))
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize booking event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: booking\ndata: %s\n\n", jsonData)
			w.(http.Flusher).Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from guest events for: %s", guestID))
			return
		}
	}
}

// EmitBookingEvent broadcasts a booking event to all subscribed clients
func (h *SSEHandler) EmitBookingEvent(event models.BookingEvent) {
	h.EventEmitter.EmitBookingEvent(event)
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
