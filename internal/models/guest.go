package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Guest struct {
	bun.BaseModel `bun:"table:guests"`

	GuestID   string    `bun:"guest_id,pk" json:"guest_id"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	FullName  string    `bun:"full_name,notnull" json:"full_name"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
