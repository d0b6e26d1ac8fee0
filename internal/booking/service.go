package booking

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"resort-booking/internal/logger"
	"resort-booking/internal/models"
	"resort-booking/internal/utils"
	"time"

	"github.com/google/uuid"
)

type DBLayer interface {
	GetBookingByID(id string) (*models.Booking, error)
	UpdateBooking(booking models.Booking) error
	GetBookingsByGuest(guestID string) ([]models.Booking, error)
	GetRoom(roomID string) (*models.Room, error)
	GetRoomsByCategory(categoryID string) ([]models.Room, error)
	UpdateRoom(room models.Room) error
	ActiveBookingsForRooms(roomIDs []string, checkIn, checkOut, now time.Time) ([]models.Booking, error)
	// PlaceHold runs the overlap count and the insert in one transaction.
	// It reports false when capacity is exhausted.
	PlaceHold(booking models.Booking, capacity int, now time.Time) (bool, error)
	ReleaseExpired(now time.Time) ([]models.Booking, error)
	ResetExpiredRooms(now time.Time) (int64, error)
}

type RedisLock interface {
	LockRoomNights(roomID string, nights []string, bookingID string) (bool, error)
	UnlockRoomNights(roomID string, nights []string, bookingID string) error
}

type Publisher interface {
	PublishBookingCreated(booking models.Booking) error
	PublishBookingConfirmed(booking models.Booking) error
	PublishBookingCancelled(booking models.Booking) error
}

// PaymentLedger exposes the verified-paid aggregate kept by the payment
// store. The sum gates the Confirmed transition.
type PaymentLedger interface {
	VerifiedTotal(bookingID string) (float64, error)
}

type AuditTrail interface {
	Record(actor, action, entity, entityID, detail string)
}

type VoucherIssuer interface {
	Generate(booking models.Booking) ([]byte, error)
}

type BookingService struct {
	DB      DBLayer
	Redis   RedisLock
	Kafka   Publisher
	Ledger  PaymentLedger
	Audit   AuditTrail
	Voucher VoucherIssuer
	Logger  *logger.Logger

	// Now is the injected clock; defaults to time.Now.
	Now             func() time.Time
	HoldTTL         time.Duration
	DefaultQuantity int
}

func NewBookingService(db DBLayer, redis RedisLock, kafka Publisher, ledger PaymentLedger, log *logger.Logger, holdTTL time.Duration, defaultQuantity int) *BookingService {
	return &BookingService{
		DB:              db,
		Redis:           redis,
		Kafka:           kafka,
		Ledger:          ledger,
		Logger:          log,
		Now:             time.Now,
		HoldTTL:         holdTTL,
		DefaultQuantity: defaultQuantity,
	}
}

func (s *BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *BookingService) audit(actor, action, entityID, detail string) {
	if s.Audit != nil {
		s.Audit.Record(actor, action, "booking", entityID, detail)
	}
}

// lookupErr classifies a point-lookup failure. Only an empty result is a
// NotFound; anything else is a store failure and keeps its own identity.
func lookupErr(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
	}
	return fmt.Errorf("failed to load %s %s: %w", entity, id, err)
}

// ---------------- HOLD PLACEMENT ----------------

// PlaceHold creates a Held booking for the guest, provided the room still
// has a free unit on every night of the stay. The redis night locks narrow
// the window between concurrent requests; the transactional overlap count
// in the store is what actually decides the race.
func (s *BookingService) PlaceHold(guestID string, req models.HoldRequest) (*models.Booking, error) {
	if guestID == "" || req.RoomID == "" {
		return nil, fmt.Errorf("%w: room id and guest id are required", ErrValidation)
	}

	checkIn, checkOut, err := parseStayRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	room, err := s.DB.GetRoom(req.RoomID)
	if err != nil {
		return nil, lookupErr(err, "room", req.RoomID)
	}
	if room.Status == models.RoomMaintenance {
		return nil, fmt.Errorf("%w: room is out of service", ErrRoomUnavailable)
	}

	now := s.now()
	bookingID := uuid.NewString()
	nights := nightKeys(checkIn, checkOut)
	heldUntil := now.Add(s.HoldTTL)

	booking := models.Booking{
		BookingID:     bookingID,
		RoomID:        room.RoomID,
		GuestID:       guestID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Status:        models.BookingHeld,
		PaymentStatus: models.PaymentUnpaid,
		TotalPrice:    float64(len(nights)) * room.NightlyPrice,
		HeldUntil:     &heldUntil,
		CreatedAt:     now,
	}

	// Step 1: Take redis night locks for the room
	ok, err := s.Redis.LockRoomNights(room.RoomID, nights, bookingID)
	if err != nil {
		return nil, fmt.Errorf("redis lock error: %w", err)
	}
	if !ok {
		return nil, ErrRoomUnavailable
	}

	// Step 2: Transactional overlap check + insert
	placed, err := s.DB.PlaceHold(booking, room.Units(s.DefaultQuantity), now)
	if err != nil {
		_ = s.Redis.UnlockRoomNights(room.RoomID, nights, bookingID)
		return nil, fmt.Errorf("failed to place hold: %w", err)
	}
	if !placed {
		_ = s.Redis.UnlockRoomNights(room.RoomID, nights, bookingID)
		return nil, ErrRoomUnavailable
	}

	if s.Logger != nil {
		s.Logger.LogBooking("HOLD", bookingID, fmt.Sprintf("room %s held until %s", room.RoomID, heldUntil.Format(time.RFC3339)))
	}
	s.audit(guestID, "hold.place", bookingID, fmt.Sprintf("room=%s nights=%d", room.RoomID, len(nights)))
	s.parkRoomIfFull(*room, checkIn, checkOut, now, heldUntil)

	// Step 3: Publish event, best effort
	if err := s.Kafka.PublishBookingCreated(booking); err != nil && s.Logger != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish booking created: %v", err))
	}

	return &booking, nil
}

// ---------------- PAYMENT-DRIVEN TRANSITIONS ----------------

// SettlePayments re-reads the verified-paid aggregate for the booking and
// advances the lifecycle: full cover confirms the booking, partial cover
// parks it in Pending while the hold expiry stays armed.
func (s *BookingService) SettlePayments(bookingID string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		return nil, lookupErr(err, "booking", bookingID)
	}
	if booking.Status != models.BookingHeld && booking.Status != models.BookingPending {
		return nil, fmt.Errorf("%w: cannot settle a %s booking", ErrInvalidTransition, booking.Status)
	}

	paid, err := s.Ledger.VerifiedTotal(bookingID)
	if err != nil {
		return nil, fmt.Errorf("payment ledger error: %w", err)
	}

	now := s.now()
	switch {
	case paid >= booking.TotalPrice:
		booking.Status = models.BookingConfirmed
		booking.PaymentStatus = models.PaymentPaid
		booking.HeldUntil = nil
		if s.Voucher != nil {
			if voucher, verr := s.Voucher.Generate(*booking); verr == nil {
				booking.Voucher = voucher
			} else if s.Logger != nil {
				s.Logger.Warn("VOUCHER", fmt.Sprintf("voucher generation failed for %s: %v", bookingID, verr))
			}
		}
	case paid > 0:
		booking.Status = models.BookingPending
		booking.PaymentStatus = models.PaymentPartial
		// heldUntil stays armed on partial payment
	default:
		// nothing verified yet
		return booking, nil
	}
	booking.UpdatedAt = now

	if err := s.DB.UpdateBooking(*booking); err != nil {
		return nil, fmt.Errorf("failed to update booking %s: %w", bookingID, err)
	}

	if booking.Status == models.BookingConfirmed {
		s.unlockNights(*booking)
		s.audit("system", "booking.confirm", bookingID, fmt.Sprintf("paid=%.2f", paid))
		if s.Logger != nil {
			s.Logger.LogBooking("CONFIRM", bookingID, fmt.Sprintf("paid %.2f of %.2f", paid, booking.TotalPrice))
		}
		if err := s.Kafka.PublishBookingConfirmed(*booking); err != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish booking confirmed: %v", err))
		}
	} else {
		s.audit("system", "booking.partial", bookingID, fmt.Sprintf("paid=%.2f", paid))
	}

	return booking, nil
}

// MarkReservation flags a booking as pay-at-desk so the release worker
// leaves it alone. Back-office only.
func (s *BookingService) MarkReservation(actor, bookingID string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		return nil, lookupErr(err, "booking", bookingID)
	}
	if booking.Status != models.BookingHeld && booking.Status != models.BookingPending {
		return nil, fmt.Errorf("%w: cannot reserve a %s booking", ErrInvalidTransition, booking.Status)
	}

	booking.PaymentStatus = models.PaymentReservation
	booking.UpdatedAt = s.now()
	if err := s.DB.UpdateBooking(*booking); err != nil {
		return nil, fmt.Errorf("failed to update booking %s: %w", bookingID, err)
	}
	s.audit(actor, "booking.reserve", bookingID, "")
	return booking, nil
}

// ---------------- CANCELLATION / COMPLETION ----------------

// Cancel performs an explicit cancellation. Verified money on the booking
// turns the payment status into Refunded rather than Cancelled.
func (s *BookingService) Cancel(actor, bookingID string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		return nil, lookupErr(err, "booking", bookingID)
	}
	if booking.Status == models.BookingCancelled || booking.Status == models.BookingCompleted {
		return nil, fmt.Errorf("%w: booking already %s", ErrInvalidTransition, booking.Status)
	}

	paymentStatus := models.PaymentCancelled
	if s.Ledger != nil {
		if paid, lerr := s.Ledger.VerifiedTotal(bookingID); lerr == nil && paid > 0 {
			paymentStatus = models.PaymentRefunded
		}
	}

	booking.Status = models.BookingCancelled
	booking.PaymentStatus = paymentStatus
	booking.HeldUntil = nil
	booking.UpdatedAt = s.now()

	if err := s.DB.UpdateBooking(*booking); err != nil {
		return nil, fmt.Errorf("failed to cancel booking %s: %w", bookingID, err)
	}

	s.freeRoom(booking.RoomID)
	s.unlockNights(*booking)
	s.audit(actor, "booking.cancel", bookingID, string(paymentStatus))
	if s.Logger != nil {
		s.Logger.LogBooking("CANCEL", bookingID, fmt.Sprintf("payment status %s", paymentStatus))
	}
	if err := s.Kafka.PublishBookingCancelled(*booking); err != nil && s.Logger != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish booking cancelled: %v", err))
	}

	return booking, nil
}

// Complete closes out a confirmed booking after the stay.
func (s *BookingService) Complete(actor, bookingID string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		return nil, lookupErr(err, "booking", bookingID)
	}
	if booking.Status != models.BookingConfirmed {
		return nil, fmt.Errorf("%w: cannot complete a %s booking", ErrInvalidTransition, booking.Status)
	}

	booking.Status = models.BookingCompleted
	booking.UpdatedAt = s.now()
	if err := s.DB.UpdateBooking(*booking); err != nil {
		return nil, fmt.Errorf("failed to complete booking %s: %w", bookingID, err)
	}
	s.audit(actor, "booking.complete", bookingID, "")
	return booking, nil
}

// ---------------- LOOKUPS ----------------

func (s *BookingService) GetBooking(id string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(id)
	if err != nil {
		return nil, lookupErr(err, "booking", id)
	}
	return booking, nil
}

func (s *BookingService) BookingsByGuest(guestID string) ([]models.Booking, error) {
	return s.DB.GetBookingsByGuest(guestID)
}

// ---------------- HELPERS ----------------

// parkRoomIfFull marks the room held once a placed hold consumed its last
// free unit over the stay. The stamped expiry lets ResetExpiredRooms put
// the room back when the holds lapse; an explicit cancel frees it through
// freeRoom. Best effort, the bookings themselves stay authoritative.
func (s *BookingService) parkRoomIfFull(room models.Room, checkIn, checkOut, now time.Time, heldUntil time.Time) {
	active, err := s.DB.ActiveBookingsForRooms([]string{room.RoomID}, checkIn, checkOut, now)
	if err != nil || len(active) < room.Units(s.DefaultQuantity) {
		return
	}
	room.Status = models.RoomHeld
	room.HeldUntil = &heldUntil
	if uerr := s.DB.UpdateRoom(room); uerr != nil && s.Logger != nil {
		s.Logger.Error("ROOM", fmt.Sprintf("failed to park room %s: %v", room.RoomID, uerr))
	}
}

func (s *BookingService) freeRoom(roomID string) {
	room, err := s.DB.GetRoom(roomID)
	if err != nil {
		return
	}
	if room.Status == models.RoomHeld {
		room.Status = models.RoomAvailable
		room.HeldUntil = nil
		if uerr := s.DB.UpdateRoom(*room); uerr != nil && s.Logger != nil {
			s.Logger.Error("ROOM", fmt.Sprintf("failed to free room %s: %v", roomID, uerr))
		}
	}
}

func (s *BookingService) unlockNights(booking models.Booking) {
	if s.Redis == nil {
		return
	}
	nights := nightKeys(booking.CheckIn, booking.CheckOut)
	if err := s.Redis.UnlockRoomNights(booking.RoomID, nights, booking.BookingID); err != nil && s.Logger != nil {
		s.Logger.Error("REDIS", fmt.Sprintf("failed to unlock nights for %s: %v", booking.BookingID, err))
	}
}

// parseDateRange parses both dates and rejects an inverted range. A
// zero-length range passes; callers that need at least one night use
// parseStayRange.
func parseDateRange(checkInRaw, checkOutRaw string) (time.Time, time.Time, error) {
	if checkInRaw == "" || checkOutRaw == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: check-in and check-out dates are required", ErrValidation)
	}
	checkIn, err := utils.ParseDate(checkInRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad check-in date %q", ErrValidation, checkInRaw)
	}
	checkOut, err := utils.ParseDate(checkOutRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad check-out date %q", ErrValidation, checkOutRaw)
	}
	if checkOut.Before(checkIn) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: check-out must not precede check-in", ErrValidation)
	}
	return checkIn, checkOut, nil
}

func parseStayRange(checkInRaw, checkOutRaw string) (time.Time, time.Time, error) {
	checkIn, checkOut, err := parseDateRange(checkInRaw, checkOutRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !checkOut.After(checkIn) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: check-out must be after check-in", ErrValidation)
	}
	return checkIn, checkOut, nil
}

// nightKeys enumerates the nights of a stay, [checkIn, checkOut).
func nightKeys(checkIn, checkOut time.Time) []string {
	var nights []string
	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		nights = append(nights, utils.FormatDate(d))
	}
	return nights
}

// MarshalEvent renders a booking event payload for fan-out consumers.
func MarshalEvent(eventType string, booking models.Booking) ([]byte, error) {
	return json.Marshal(models.BookingEvent{
		Type:      eventType,
		BookingID: booking.BookingID,
		RoomID:    booking.RoomID,
		GuestID:   booking.GuestID,
		Booking:   &booking,
		Timestamp: time.Now(),
	})
}
