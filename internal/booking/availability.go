package booking

import (
	"fmt"
	"resort-booking/internal/models"
	"resort-booking/internal/utils"
	"time"
)

// Availability computes per-date availability for a room category over
// [checkIn, checkOut). A date is available when at least one room in the
// category still has a free unit; a room is listed as available when it
// has a free unit on every date of the range.
func (s *BookingService) Availability(categoryID string, checkInRaw, checkOutRaw string) (*models.AvailabilityResponse, error) {
	if categoryID == "" {
		return nil, fmt.Errorf("%w: category id is required", ErrValidation)
	}
	checkIn, checkOut, err := parseDateRange(checkInRaw, checkOutRaw)
	if err != nil {
		return nil, err
	}
	if !checkOut.After(checkIn) {
		// zero-length range, nothing to report
		return &models.AvailabilityResponse{
			AvailableRooms: []models.Room{},
			Availability:   map[string]bool{},
		}, nil
	}

	rooms, err := s.DB.GetRoomsByCategory(categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rooms for category %s: %w", categoryID, err)
	}
	if len(rooms) == 0 {
		return nil, fmt.Errorf("%w: category %s", ErrNotFound, categoryID)
	}

	now := s.now()
	roomIDs := make([]string, len(rooms))
	for i, room := range rooms {
		roomIDs[i] = room.RoomID
	}

	// One range query; the per-date counting happens in memory.
	active, err := s.DB.ActiveBookingsForRooms(roomIDs, checkIn, checkOut, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	resp := &models.AvailabilityResponse{
		AvailableRooms: []models.Room{},
		Availability:   map[string]bool{},
	}

	freeEveryDate := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		freeEveryDate[room.RoomID] = true
	}

	for date := checkIn; date.Before(checkOut); date = date.AddDate(0, 0, 1) {
		anyFree := false
		for _, room := range rooms {
			booked := countOnDate(active, room.RoomID, date, now)
			if booked < room.Units(s.DefaultQuantity) {
				anyFree = true
			} else {
				freeEveryDate[room.RoomID] = false
			}
		}
		resp.Availability[utils.FormatDate(date)] = anyFree
	}

	for _, room := range rooms {
		if freeEveryDate[room.RoomID] {
			resp.AvailableRooms = append(resp.AvailableRooms, room)
		}
	}

	return resp, nil
}

// countOnDate counts bookings that consume a unit of the room on the given
// date. Only live holds count: an expired heldUntil no longer blocks.
func countOnDate(bookings []models.Booking, roomID string, date, now time.Time) int {
	count := 0
	for _, b := range bookings {
		if b.RoomID != roomID {
			continue
		}
		if !b.HoldActive(now) {
			continue
		}
		if b.Overlaps(date, date) {
			count++
		}
	}
	return count
}
