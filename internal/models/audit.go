package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AuditEntry records a single mutation for the back-office trail.
type AuditEntry struct {
	bun.BaseModel `bun:"table:audit_log"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Actor     string    `bun:"actor,notnull" json:"actor"`
	Action    string    `bun:"action,notnull" json:"action"`
	Entity    string    `bun:"entity,notnull" json:"entity"`
	EntityID  string    `bun:"entity_id,notnull" json:"entity_id"`
	Detail    string    `bun:"detail,nullzero" json:"detail,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
