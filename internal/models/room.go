package models

import (
	"time"

	"github.com/uptrace/bun"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomHeld        RoomStatus = "held"
	RoomMaintenance RoomStatus = "maintenance"
)

// ParseRoomStatus validates a raw status value at the API boundary.
func ParseRoomStatus(raw string) (RoomStatus, bool) {
	switch RoomStatus(raw) {
	case RoomAvailable, RoomHeld, RoomMaintenance:
		return RoomStatus(raw), true
	}
	return "", false
}

type RoomCategory struct {
	bun.BaseModel `bun:"table:room_categories"`

	CategoryID  string `bun:"category_id,pk" json:"category_id"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description,nullzero" json:"description,omitempty"`
}

// Room is one bookable room type. Quantity is the number of identical
// physical units; a quantity of zero falls back to the configured default.
type Room struct {
	bun.BaseModel `bun:"table:rooms"`

	RoomID       string     `bun:"room_id,pk" json:"room_id"`
	CategoryID   string     `bun:"category_id,notnull" json:"category_id"`
	Name         string     `bun:"name,notnull" json:"name"`
	NightlyPrice float64    `bun:"nightly_price,notnull" json:"nightly_price"`
	Quantity     int        `bun:"quantity" json:"quantity"`
	Status       RoomStatus `bun:"status,notnull" json:"status"`
	HeldUntil    *time.Time `bun:"held_until,nullzero" json:"held_until,omitempty"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Units returns the bookable unit count, falling back when quantity was
// never set on the record.
func (r Room) Units(fallback int) int {
	if r.Quantity <= 0 {
		return fallback
	}
	return r.Quantity
}
