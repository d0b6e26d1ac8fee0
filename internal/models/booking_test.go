package models_test

import (
	"testing"
	"time"

	"resort-booking/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlapsInclusiveEdges(t *testing.T) {
	b := models.Booking{
		CheckIn:  date(2026, 7, 10),
		CheckOut: date(2026, 7, 14),
	}

	cases := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     bool
	}{
		{"identical range", date(2026, 7, 10), date(2026, 7, 14), true},
		{"fully inside", date(2026, 7, 11), date(2026, 7, 12), true},
		{"touching at checkout", date(2026, 7, 14), date(2026, 7, 16), true},
		{"touching at checkin", date(2026, 7, 8), date(2026, 7, 10), true},
		{"before", date(2026, 7, 1), date(2026, 7, 9), false},
		{"after", date(2026, 7, 15), date(2026, 7, 20), false},
	}

	for _, tc := range cases {
		if got := b.Overlaps(tc.checkIn, tc.checkOut); got != tc.want {
			t.Errorf("%s: Overlaps(%s, %s) = %v, want %v", tc.name,
				tc.checkIn.Format("2006-01-02"), tc.checkOut.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestHoldActive(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * time.Minute)
	past := now.Add(-10 * time.Minute)

	b := models.Booking{HeldUntil: &future}
	if !b.HoldActive(now) {
		t.Error("booking with future heldUntil should still hold inventory")
	}

	b.HeldUntil = &past
	if b.HoldActive(now) {
		t.Error("booking with past heldUntil should no longer hold inventory")
	}

	b.HeldUntil = nil
	if !b.HoldActive(now) {
		t.Error("booking without heldUntil is permanent and must count")
	}
}

func TestParseBookingStatus(t *testing.T) {
	if _, ok := models.ParseBookingStatus("confirmed"); !ok {
		t.Error("confirmed should be a valid status")
	}
	if _, ok := models.ParseBookingStatus("CONFIRMED"); ok {
		t.Error("status parsing is case sensitive")
	}
	if _, ok := models.ParseBookingStatus("on-hold"); ok {
		t.Error("unknown status should be rejected")
	}
}

func TestParseBookingPaymentStatus(t *testing.T) {
	for _, valid := range []string{"unpaid", "partial", "paid", "reservation", "cancelled", "refunded"} {
		if _, ok := models.ParseBookingPaymentStatus(valid); !ok {
			t.Errorf("%s should be a valid payment status", valid)
		}
	}
	if _, ok := models.ParseBookingPaymentStatus("voided"); ok {
		t.Error("unknown payment status should be rejected")
	}
}

func TestRoomUnitsFallback(t *testing.T) {
	r := models.Room{Quantity: 0}
	if got := r.Units(4); got != 4 {
		t.Errorf("expected fallback quantity 4, got %d", got)
	}

	r.Quantity = 2
	if got := r.Units(4); got != 2 {
		t.Errorf("expected stored quantity 2, got %d", got)
	}
}
