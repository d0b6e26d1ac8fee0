package booking

import "errors"

// Sentinel errors the API layer maps onto HTTP status codes.
var (
	// ErrValidation covers missing or malformed dates and ids.
	ErrValidation = errors.New("invalid booking request")

	// ErrNotFound covers absent rooms and bookings.
	ErrNotFound = errors.New("not found")

	// ErrRoomUnavailable is returned when no units are left for the
	// requested range.
	ErrRoomUnavailable = errors.New("room unavailable for the requested dates")

	// ErrInvalidTransition is returned for state changes the lifecycle
	// does not allow, e.g. confirming a cancelled booking.
	ErrInvalidTransition = errors.New("invalid booking state transition")
)
