package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/smilecare/clinic-api/internal/model"
	"github.com/smilecare/clinic-api/internal/repository"
)

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

// Log records an audit entry. Audit failures are logged, never propagated:
// a transition that already happened must not be reported as failed because
// the trail write lagged.
func (s *Service) Log(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, changes interface{}) {
	var payload json.RawMessage
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			log.Error().Err(err).Str("action", action).Msg("failed to marshal audit changes")
		} else {
			payload = data
		}
	}

	entry := &model.AuditEntry{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    payload,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", entityID.String()).
			Msg("failed to write audit entry")
	}
}

// Trail returns the audit history for one entity.
func (s *Service) Trail(ctx context.Context, entityID uuid.UUID) ([]*model.AuditEntry, error) {
	return s.repo.List(ctx, entityID)
}
