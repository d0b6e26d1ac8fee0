package api_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"resort-booking/internal/auth"
	"resort-booking/internal/booking"
	"resort-booking/internal/booking/api"
	"resort-booking/internal/logger"
	"resort-booking/internal/models"
)

// Compact in-memory store for handler tests

type stubDB struct {
	bookings map[string]*models.Booking
	rooms    map[string]*models.Room
}

func newStubDB() *stubDB {
	return &stubDB{
		bookings: make(map[string]*models.Booking),
		rooms:    make(map[string]*models.Room),
	}
}

func (s *stubDB) GetBookingByID(id string) (*models.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *b
	return &copied, nil
}

func (s *stubDB) UpdateBooking(b models.Booking) error {
	s.bookings[b.BookingID] = &b
	return nil
}

func (s *stubDB) GetBookingsByGuest(guestID string) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range s.bookings {
		if b.GuestID == guestID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubDB) GetRoom(roomID string) (*models.Room, error) {
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *r
	return &copied, nil
}

func (s *stubDB) GetRoomsByCategory(categoryID string) ([]models.Room, error) {
	var out []models.Room
	for _, r := range s.rooms {
		if r.CategoryID == categoryID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubDB) UpdateRoom(r models.Room) error {
	s.rooms[r.RoomID] = &r
	return nil
}

func (s *stubDB) ActiveBookingsForRooms(roomIDs []string, checkIn, checkOut, now time.Time) ([]models.Booking, error) {
	ids := make(map[string]bool)
	for _, id := range roomIDs {
		ids[id] = true
	}
	var out []models.Booking
	for _, b := range s.bookings {
		if ids[b.RoomID] && b.Status != models.BookingCancelled && b.HoldActive(now) && b.Overlaps(checkIn, checkOut) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubDB) PlaceHold(b models.Booking, capacity int, now time.Time) (bool, error) {
	count := 0
	for _, existing := range s.bookings {
		if existing.RoomID == b.RoomID && existing.Status != models.BookingCancelled &&
			existing.HoldActive(now) && existing.Overlaps(b.CheckIn, b.CheckOut) {
			count++
		}
	}
	if count >= capacity {
		return false, nil
	}
	s.bookings[b.BookingID] = &b
	return true, nil
}

func (s *stubDB) ReleaseExpired(now time.Time) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range s.bookings {
		if b.Status == models.BookingHeld && b.HeldUntil != nil && b.HeldUntil.Before(now) &&
			b.PaymentStatus != models.PaymentReservation && b.PaymentStatus != models.PaymentPaid {
			b.Status = models.BookingCancelled
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubDB) ResetExpiredRooms(now time.Time) (int64, error) { return 0, nil }

type stubLock struct{}

func (stubLock) LockRoomNights(string, []string, string) (bool, error) { return true, nil }
func (stubLock) UnlockRoomNights(string, []string, string) error       { return nil }

type stubPublisher struct{}

func (stubPublisher) PublishBookingCreated(models.Booking) error   { return nil }
func (stubPublisher) PublishBookingConfirmed(models.Booking) error { return nil }
func (stubPublisher) PublishBookingCancelled(models.Booking) error { return nil }
func (stubPublisher) PublishBookingReleased(models.Booking) error  { return nil }

type stubLedger struct{ total float64 }

func (s stubLedger) VerifiedTotal(string) (float64, error) { return s.total, nil }

func newTestRouter(db *stubDB, ledger stubLedger) *chi.Mux {
	log := logger.NewLogger()
	svc := booking.NewBookingService(db, stubLock{}, stubPublisher{}, ledger, log, 15*time.Minute, 4)
	reconciler := booking.NewReconciler(db, stubPublisher{}, log)
	h := api.NewHandler(svc, reconciler, log)

	r := chi.NewRouter()
	r.Post("/api/v1/availability", h.Availability)
	r.Post("/api/v1/bookings", h.PlaceHold)
	r.Get("/api/v1/bookings/{bookingId}", h.GetBooking)
	r.Post("/api/v1/bookings/{bookingId}/settle", h.SettleBooking)
	r.Delete("/api/v1/bookings/{bookingId}", h.CancelBooking)
	r.Get("/api/v1/guests/{guestId}/bookings", h.GuestBookings)
	r.Post("/api/v1/bookings/release", h.ReleaseExpired)
	return r
}

func seedRoom(db *stubDB) {
	db.rooms["room-1"] = &models.Room{
		RoomID:       "room-1",
		CategoryID:   "cat-standard",
		Name:         "Standard Twin",
		NightlyPrice: 100,
		Quantity:     2,
		Status:       models.RoomAvailable,
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, identity string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if identity != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), identity, "guest"))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAvailabilityEndpoint(t *testing.T) {
	db := newStubDB()
	seedRoom(db)
	router := newTestRouter(db, stubLedger{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/availability", models.AvailabilityRequest{
		CategoryID: "cat-standard",
		CheckIn:    "2026-07-10",
		CheckOut:   "2026-07-12",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.AvailabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Availability) != 2 {
		t.Errorf("expected 2 dates, got %d", len(resp.Availability))
	}
	if len(resp.AvailableRooms) != 1 {
		t.Errorf("expected 1 available room, got %d", len(resp.AvailableRooms))
	}
}

func TestAvailabilityUnknownCategoryIs404(t *testing.T) {
	router := newTestRouter(newStubDB(), stubLedger{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/availability", models.AvailabilityRequest{
		CategoryID: "nope",
		CheckIn:    "2026-07-10",
		CheckOut:   "2026-07-12",
	}, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestPlaceHoldEndpoint(t *testing.T) {
	db := newStubDB()
	seedRoom(db)
	router := newTestRouter(db, stubLedger{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/bookings", models.HoldRequest{
		RoomID:   "room-1",
		CheckIn:  "2026-07-10",
		CheckOut: "2026-07-12",
	}, "guest-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.HoldResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Booking == nil {
		t.Fatal("expected a successful hold with a booking")
	}
	if resp.Booking.GuestID != "guest-1" {
		t.Errorf("guest id should come from the token, got %s", resp.Booking.GuestID)
	}
}

func TestPlaceHoldWithoutIdentityIs401(t *testing.T) {
	db := newStubDB()
	seedRoom(db)
	router := newTestRouter(db, stubLedger{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/bookings", models.HoldRequest{
		RoomID:   "room-1",
		CheckIn:  "2026-07-10",
		CheckOut: "2026-07-12",
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestPlaceHoldConflictIs409(t *testing.T) {
	db := newStubDB()
	seedRoom(db)
	db.rooms["room-1"].Quantity = 1
	router := newTestRouter(db, stubLedger{})

	first := doJSON(t, router, http.MethodPost, "/api/v1/bookings", models.HoldRequest{
		RoomID: "room-1", CheckIn: "2026-07-10", CheckOut: "2026-07-12",
	}, "guest-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("first hold should succeed, got %d", first.Code)
	}

	second := doJSON(t, router, http.MethodPost, "/api/v1/bookings", models.HoldRequest{
		RoomID: "room-1", CheckIn: "2026-07-10", CheckOut: "2026-07-12",
	}, "guest-2")
	if second.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", second.Code)
	}
}

func TestSettleEndpointConfirms(t *testing.T) {
	db := newStubDB()
	seedRoom(db)
	router := newTestRouter(db, stubLedger{total: 200})

	heldUntil := time.Now().Add(15 * time.Minute)
	db.bookings["bk-1"] = &models.Booking{
		BookingID:     "bk-1",
		RoomID:        "room-1",
		GuestID:       "guest-1",
		CheckIn:       time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2026, 7, 12, 0, 0, 0, 0, time.UTC),
		Status:        models.BookingHeld,
		PaymentStatus: models.PaymentUnpaid,
		TotalPrice:    200,
		HeldUntil:     &heldUntil,
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/bookings/bk-1/settle", nil, "guest-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var b models.Booking
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("failed to decode booking: %v", err)
	}
	if b.Status != models.BookingConfirmed {
		t.Errorf("expected confirmed, got %s", b.Status)
	}
}

func TestGetBookingNotFoundIs404(t *testing.T) {
	router := newTestRouter(newStubDB(), stubLedger{})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/bookings/nope", nil, "guest-1")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGuestBookingsEmptyIsArray(t *testing.T) {
	router := newTestRouter(newStubDB(), stubLedger{})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/guests/guest-1/bookings", nil, "guest-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got == "null\n" {
		t.Error("empty list should encode as [] not null")
	}
}

func TestReleaseEndpoint(t *testing.T) {
	db := newStubDB()
	seedRoom(db)
	router := newTestRouter(db, stubLedger{})

	expired := time.Now().Add(-5 * time.Minute)
	db.bookings["bk-1"] = &models.Booking{
		BookingID:     "bk-1",
		RoomID:        "room-1",
		GuestID:       "guest-1",
		Status:        models.BookingHeld,
		PaymentStatus: models.PaymentUnpaid,
		HeldUntil:     &expired,
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/bookings/release", nil, "staff-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if db.bookings["bk-1"].Status != models.BookingCancelled {
		t.Errorf("expired hold should be cancelled, got %s", db.bookings["bk-1"].Status)
	}
}
