package db

import (
	"context"
	"database/sql"
	"resort-booking/internal/models"
	"time"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- BOOKINGS ----------------

// CreateBooking inserts a booking row directly. The service path goes
// through PlaceHold; this is for seeding and tests.
func (d *DB) CreateBooking(booking models.Booking) error {
	_, err := d.Bun.NewInsert().Model(&booking).Exec(context.Background())
	return err
}

// GetBookingByID → fetch one booking by its ID
func (d *DB) GetBookingByID(id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("booking_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateBooking → update lifecycle fields; bookings are never deleted
func (d *DB) UpdateBooking(booking models.Booking) error {
	_, err := d.Bun.NewUpdate().
		Model(&booking).
		Column("status", "payment_status", "held_until", "voucher", "updated_at").
		Where("booking_id = ?", booking.BookingID).
		Exec(context.Background())
	return err
}

func (d *DB) GetBookingsByGuest(guestID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("guest_id = ?", guestID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ---------------- GUESTS ----------------

func (d *DB) GetGuest(guestID string) (*models.Guest, error) {
	var guest models.Guest
	err := d.Bun.NewSelect().
		Model(&guest).
		Where("guest_id = ?", guestID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

// ---------------- ROOMS ----------------

func (d *DB) GetRoom(roomID string) (*models.Room, error) {
	var room models.Room
	err := d.Bun.NewSelect().
		Model(&room).
		Where("room_id = ?", roomID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (d *DB) GetRoomsByCategory(categoryID string) ([]models.Room, error) {
	var rooms []models.Room
	err := d.Bun.NewSelect().
		Model(&rooms).
		Where("category_id = ?", categoryID).
		Order("room_id").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (d *DB) UpdateRoom(room models.Room) error {
	_, err := d.Bun.NewUpdate().
		Model(&room).
		Column("status", "held_until", "quantity", "nightly_price").
		Where("room_id = ?", room.RoomID).
		Exec(context.Background())
	return err
}

// ---------------- AVAILABILITY QUERIES ----------------

// ActiveBookingsForRooms → bookings that still consume inventory and
// overlap the given range. The overlap test is inclusive on both ends.
func (d *DB) ActiveBookingsForRooms(roomIDs []string, checkIn, checkOut, now time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("room_id IN (?)", bun.In(roomIDs)).
		Where("status IN (?)", bun.In(models.ActiveBookingStatuses())).
		Where("held_until IS NULL OR held_until > ?", now).
		Where("check_in <= ? AND check_out >= ?", checkOut, checkIn).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ---------------- HOLD PLACEMENT ----------------

// PlaceHold runs the overlap count and the insert inside one transaction
// so two racing hold requests cannot both pass the capacity check. It
// reports false when every unit is taken for some night of the stay.
func (d *DB) PlaceHold(booking models.Booking, capacity int, now time.Time) (bool, error) {
	placed := false
	err := d.Bun.RunInTx(context.Background(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		count, err := tx.NewSelect().
			Model((*models.Booking)(nil)).
			Where("room_id = ?", booking.RoomID).
			Where("status IN (?)", bun.In(models.ActiveBookingStatuses())).
			Where("held_until IS NULL OR held_until > ?", now).
			Where("check_in <= ? AND check_out >= ?", booking.CheckOut, booking.CheckIn).
			Count(ctx)
		if err != nil {
			return err
		}
		if count >= capacity {
			return nil
		}
		if _, err := tx.NewInsert().Model(&booking).Exec(ctx); err != nil {
			return err
		}
		placed = true
		return nil
	})
	return placed, err
}

// ---------------- RELEASE WORKER ----------------

// ReleaseExpired → conditional bulk update cancelling stale holds. One
// statement with RETURNING, so the rows reported are exactly the rows this
// invocation flipped: a booking confirmed or reserved by a concurrent
// writer no longer matches the predicate and is neither touched nor
// reported. Repeated and concurrent runs are harmless.
func (d *DB) ReleaseExpired(now time.Time) ([]models.Booking, error) {
	var released []models.Booking
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", models.BookingCancelled).
		Set("payment_status = ?", models.PaymentCancelled).
		Set("held_until = NULL").
		Set("updated_at = ?", now).
		Where("status IN (?)", bun.In([]models.BookingStatus{models.BookingHeld, models.BookingPending})).
		Where("held_until IS NOT NULL AND held_until < ?", now).
		Where("payment_status NOT IN (?)", bun.In([]models.BookingPaymentStatus{models.PaymentReservation, models.PaymentPaid})).
		Returning("*").
		Exec(context.Background(), &released)
	if err != nil {
		return nil, err
	}
	return released, nil
}

// ResetExpiredRooms → rooms parked in held whose expiry passed go back to
// available in one conditional update.
func (d *DB) ResetExpiredRooms(now time.Time) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Room)(nil)).
		Set("status = ?", models.RoomAvailable).
		Set("held_until = NULL").
		Where("status = ?", models.RoomHeld).
		Where("held_until IS NOT NULL AND held_until < ?", now).
		Exec(context.Background())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
