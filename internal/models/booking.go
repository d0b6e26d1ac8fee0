package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingHeld      BookingStatus = "held"
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// ParseBookingStatus validates a raw status value at the API boundary.
func ParseBookingStatus(raw string) (BookingStatus, bool) {
	switch BookingStatus(raw) {
	case BookingHeld, BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return BookingStatus(raw), true
	}
	return "", false
}

// ActiveBookingStatuses are the states that consume room inventory.
func ActiveBookingStatuses() []BookingStatus {
	return []BookingStatus{BookingHeld, BookingPending, BookingConfirmed}
}

type BookingPaymentStatus string

const (
	PaymentUnpaid      BookingPaymentStatus = "unpaid"
	PaymentPartial     BookingPaymentStatus = "partial"
	PaymentPaid        BookingPaymentStatus = "paid"
	PaymentReservation BookingPaymentStatus = "reservation"
	PaymentCancelled   BookingPaymentStatus = "cancelled"
	PaymentRefunded    BookingPaymentStatus = "refunded"
)

func ParseBookingPaymentStatus(raw string) (BookingPaymentStatus, bool) {
	switch BookingPaymentStatus(raw) {
	case PaymentUnpaid, PaymentPartial, PaymentPaid, PaymentReservation, PaymentCancelled, PaymentRefunded:
		return BookingPaymentStatus(raw), true
	}
	return "", false
}

// Booking is a guest's claim on a room for a date range. Bookings are
// never hard-deleted; cancellation is a state transition.
type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID     string               `bun:"booking_id,pk" json:"booking_id"`
	RoomID        string               `bun:"room_id,notnull" json:"room_id"`
	GuestID       string               `bun:"guest_id,notnull" json:"guest_id"`
	CheckIn       time.Time            `bun:"check_in,notnull" json:"check_in"`
	CheckOut      time.Time            `bun:"check_out,notnull" json:"check_out"`
	Status        BookingStatus        `bun:"status,notnull" json:"status"`
	PaymentStatus BookingPaymentStatus `bun:"payment_status,notnull" json:"payment_status"`
	TotalPrice    float64              `bun:"total_price,notnull" json:"total_price"`
	HeldUntil     *time.Time           `bun:"held_until,nullzero" json:"held_until,omitempty"`
	Voucher       []byte               `bun:"voucher,nullzero" json:"voucher,omitempty"`
	CreatedAt     time.Time            `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time            `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// Overlaps reports whether the booking competes with the given range.
// The test is inclusive on both ends.
func (b Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return !checkIn.After(b.CheckOut) && !checkOut.Before(b.CheckIn)
}

// HoldActive reports whether the booking's hold still counts against
// inventory at the given instant.
func (b Booking) HoldActive(now time.Time) bool {
	return b.HeldUntil == nil || b.HeldUntil.After(now)
}

// ---------------- WIRE TYPES ----------------

type AvailabilityRequest struct {
	CategoryID string `json:"category_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
}

type AvailabilityResponse struct {
	AvailableRooms []Room          `json:"available_rooms"`
	Availability   map[string]bool `json:"availability"`
}

type HoldRequest struct {
	RoomID   string `json:"room_id"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

type HoldResponse struct {
	Success bool     `json:"success"`
	Booking *Booking `json:"booking,omitempty"`
}

type BookingEvent struct {
	Type      string    `json:"type"`
	BookingID string    `json:"booking_id"`
	RoomID    string    `json:"room_id"`
	GuestID   string    `json:"guest_id"`
	Booking   *Booking  `json:"booking,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
