package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smilecare/clinic-api/internal/model"
)

func (r *auditRepository) Create(ctx context.Context, entry *model.AuditEntry) error {
	query := `
		INSERT INTO audit_log (
			id, actor_id, action, entity_type, entity_id, changes,
			ip_address, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Changes,
		entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit entries: %w", err)
	}
	return result.RowsAffected()
}

func (r *auditRepository) List(ctx context.Context, entityID uuid.UUID) ([]*model.AuditEntry, error) {
	query := `
		SELECT id, actor_id, action, entity_type, entity_id, changes,
			   ip_address, created_at
		FROM audit_log
		WHERE entity_id = $1
		ORDER BY created_at ASC
	`
	var entries []*model.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, entityID); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}
