package audit

import (
	"context"
	"fmt"
	"time"

	"resort-booking/internal/logger"
	"resort-booking/internal/models"

	"github.com/uptrace/bun"
)

// Trail appends mutation records to the audit_log table. Writes are
// best-effort: a failed insert is logged and never blocks the caller.
type Trail struct {
	db  *bun.DB
	log *logger.Logger
}

func NewTrail(db *bun.DB, log *logger.Logger) *Trail {
	return &Trail{db: db, log: log}
}

func (t *Trail) Record(actor, action, entity, entityID, detail string) {
	entry := &models.AuditEntry{
		Actor:     actor,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if _, err := t.db.NewInsert().Model(entry).Exec(context.Background()); err != nil {
		t.log.Error("DATABASE", fmt.Sprintf("audit insert failed for %s/%s: %v", entity, entityID, err))
	}
}

// Recent returns the newest entries for the back-office view.
func (t *Trail) Recent(limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.AuditEntry
	err := t.db.NewSelect().
		Model(&entries).
		Order("created_at DESC").
		Limit(limit).
		Scan(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load audit entries: %w", err)
	}
	return entries, nil
}

// ForEntity returns the trail for one entity, newest first.
func (t *Trail) ForEntity(entity, entityID string) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := t.db.NewSelect().
		Model(&entries).
		Where("entity = ?", entity).
		Where("entity_id = ?", entityID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load audit entries for %s/%s: %w", entity, entityID, err)
	}
	return entries, nil
}
