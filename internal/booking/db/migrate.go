package db

import (
	"context"
	"log"

	"resort-booking/internal/models"

	"github.com/uptrace/bun"
)

// Migrate creates the booking-side tables. Schema evolution beyond this
// bootstrap lives in the SQL migrations under ./migrations.
func Migrate(db *bun.DB) {
	ctx := context.Background()

	tables := []interface{}{
		(*models.RoomCategory)(nil),
		(*models.Room)(nil),
		(*models.Guest)(nil),
		(*models.Booking)(nil),
		(*models.AuditEntry)(nil),
	}

	for _, m := range tables {
		_, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx)
		if err != nil {
			log.Fatalf("create table failed for %T: %v", m, err)
		}
	}

	log.Println("booking tables ready")
}
