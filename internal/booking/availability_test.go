package booking_test

import (
	"errors"
	"testing"
	"time"

	"resort-booking/internal/booking"
	"resort-booking/internal/models"
)

func activeBooking(id, roomID string, checkIn, checkOut time.Time) *models.Booking {
	return &models.Booking{
		BookingID:     id,
		RoomID:        roomID,
		GuestID:       "guest-x",
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Status:        models.BookingConfirmed,
		PaymentStatus: models.PaymentPaid,
	}
}

func TestAvailabilityPerDate(t *testing.T) {
	svc, db, _, _, _ := newTestService()
	seedRoom(db, "room-1", 1)

	// room-1 has a single unit, taken on the 11th only
	db.bookings["bk-1"] = activeBooking("bk-1",
		"room-1",
		time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC))

	resp, err := svc.Availability("cat-standard", "2026-07-10", "2026-07-13")
	if err != nil {
		t.Fatalf("Availability failed: %v", err)
	}

	if len(resp.Availability) != 3 {
		t.Fatalf("expected 3 dates in the map, got %d", len(resp.Availability))
	}
	if !resp.Availability["2026-07-10"] {
		t.Error("the 10th should be available")
	}
	if resp.Availability["2026-07-11"] {
		t.Error("the 11th is fully booked and should be unavailable")
	}
	if !resp.Availability["2026-07-12"] {
		t.Error("the 12th should be available")
	}
	if len(resp.AvailableRooms) != 0 {
		t.Errorf("room-1 is blocked on one date and must not be listed, got %d rooms", len(resp.AvailableRooms))
	}
}

func TestAvailabilityIgnoresExpiredHolds(t *testing.T) {
	svc, db, _, _, _ := newTestService()
	seedRoom(db, "room-1", 1)

	expired := testNow.Add(-1 * time.Minute)
	b := activeBooking("bk-1",
		"room-1",
		time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 12, 0, 0, 0, 0, time.UTC))
	b.Status = models.BookingHeld
	b.PaymentStatus = models.PaymentUnpaid
	b.HeldUntil = &expired
	db.bookings["bk-1"] = b

	resp, err := svc.Availability("cat-standard", "2026-07-10", "2026-07-13")
	if err != nil {
		t.Fatalf("Availability failed: %v", err)
	}

	for date, free := range resp.Availability {
		if !free {
			t.Errorf("date %s should be free, the only hold is expired", date)
		}
	}
	if len(resp.AvailableRooms) != 1 {
		t.Errorf("room-1 should be fully available, got %d rooms", len(resp.AvailableRooms))
	}
}

func TestAvailabilityCountsCancelledAsFree(t *testing.T) {
	svc, db, _, _, _ := newTestService()
	seedRoom(db, "room-1", 1)

	b := activeBooking("bk-1",
		"room-1",
		time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 12, 0, 0, 0, 0, time.UTC))
	b.Status = models.BookingCancelled
	db.bookings["bk-1"] = b

	resp, err := svc.Availability("cat-standard", "2026-07-10", "2026-07-13")
	if err != nil {
		t.Fatalf("Availability failed: %v", err)
	}
	if len(resp.AvailableRooms) != 1 {
		t.Error("cancelled bookings must not consume inventory")
	}
}

func TestAvailabilityQuantityFallback(t *testing.T) {
	svc, db, _, _, _ := newTestService()
	seedRoom(db, "room-1", 0) // no quantity on record, default is 4

	for i := 0; i < 3; i++ {
		id := string(rune('a' + i))
		db.bookings[id] = activeBooking(id,
			"room-1",
			time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 7, 12, 0, 0, 0, 0, time.UTC))
	}

	resp, err := svc.Availability("cat-standard", "2026-07-10", "2026-07-11")
	if err != nil {
		t.Fatalf("Availability failed: %v", err)
	}
	if !resp.Availability["2026-07-10"] {
		t.Error("3 of 4 fallback units taken, the date should still be available")
	}
}

func TestAvailabilityUnknownCategory(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.Availability("no-such-category", "2026-07-10", "2026-07-13")
	if !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAvailabilityValidation(t *testing.T) {
	svc, db, _, _, _ := newTestService()
	seedRoom(db, "room-1", 1)

	if _, err := svc.Availability("", "2026-07-10", "2026-07-13"); !errors.Is(err, booking.ErrValidation) {
		t.Errorf("missing category should be ErrValidation, got %v", err)
	}
	if _, err := svc.Availability("cat-standard", "2026-07-13", "2026-07-10"); !errors.Is(err, booking.ErrValidation) {
		t.Errorf("inverted range should be ErrValidation, got %v", err)
	}
}

func TestAvailabilityZeroLengthRange(t *testing.T) {
	svc, db, _, _, _ := newTestService()
	seedRoom(db, "room-1", 1)

	resp, err := svc.Availability("cat-standard", "2026-07-10", "2026-07-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Availability) != 0 || len(resp.AvailableRooms) != 0 {
		t.Errorf("zero-length range should be empty, got %+v", resp)
	}
}
