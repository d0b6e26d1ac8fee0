package booking

import (
	"fmt"
	"resort-booking/internal/logger"
	"resort-booking/internal/models"
	"time"
)

// ReleasePublisher is the fan-out surface of the release worker.
type ReleasePublisher interface {
	PublishBookingReleased(booking models.Booking) error
}

// Reconciler cancels expired holds and frees the underlying inventory.
// The store-side conditional bulk update makes a run idempotent and safe
// to trigger concurrently.
type Reconciler struct {
	DB     DBLayer
	Kafka  ReleasePublisher
	Audit  AuditTrail
	Logger *logger.Logger
	Now    func() time.Time
}

func NewReconciler(db DBLayer, kafka ReleasePublisher, log *logger.Logger) *Reconciler {
	return &Reconciler{
		DB:     db,
		Kafka:  kafka,
		Logger: log,
		Now:    time.Now,
	}
}

// Run scans for bookings whose hold expired without payment and bulk
// transitions them to Cancelled. Returns the number of bookings released.
func (r *Reconciler) Run() (int, error) {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	released, err := r.DB.ReleaseExpired(now)
	if err != nil {
		return 0, fmt.Errorf("release expired holds: %w", err)
	}

	roomsReset, err := r.DB.ResetExpiredRooms(now)
	if err != nil {
		return len(released), fmt.Errorf("reset expired rooms: %w", err)
	}

	if r.Logger != nil && (len(released) > 0 || roomsReset > 0) {
		r.Logger.LogProcess("RECONCILE", fmt.Sprintf("released %d bookings, reset %d rooms", len(released), roomsReset))
	}

	for _, booking := range released {
		if r.Audit != nil {
			r.Audit.Record("reconciler", "hold.release", "booking", booking.BookingID, "hold expired")
		}
		if r.Kafka == nil {
			continue
		}
		if err := r.Kafka.PublishBookingReleased(booking); err != nil && r.Logger != nil {
			r.Logger.Error("KAFKA", fmt.Sprintf("publish booking released %s: %v", booking.BookingID, err))
		}
	}

	return len(released), nil
}
