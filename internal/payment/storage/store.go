package storage

import (
	"resort-booking/internal/models"
)

type Store interface {
	// Payment operations
	SavePayment(payment *models.Payment) error
	GetPayment(id string) (*models.Payment, error)
	UpdatePayment(payment *models.Payment) error
	GetPaymentsByBooking(bookingID string) ([]*models.Payment, error)

	// VerifiedTotal is the aggregate that gates booking confirmation:
	// the sum of verified, paid amounts against the booking.
	VerifiedTotal(bookingID string) (float64, error)

	// Health and maintenance
	Close() error
	HealthCheck() error
}
