package services

import (
	"context"
	"fmt"

	"github.com/sjperalta/cbms-api/internal/models"
	"github.com/sjperalta/cbms-api/internal/repository"
)

type AuditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// AuditEntry describes one action to record
type AuditEntry struct {
	Action     string
	Entity     string
	EntityID   uint
	FromStatus string
	ToStatus   string
	Details    string
}

// Record writes an audit entry for actor. Inside RunInTx it commits with the change it describes.
func (s *AuditService) Record(ctx context.Context, actor models.Actor, e AuditEntry) error {
	entry := &models.AuditLog{
		UserID:     actor.UserID,
		Role:       actor.Role,
		Action:     e.Action,
		Entity:     e.Entity,
		EntityID:   e.EntityID,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Details:    e.Details,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// History lists the audit trail of one entity
func (s *AuditService) History(ctx context.Context, entity string, entityID uint) ([]models.AuditLog, error) {
	return s.repo.ListByEntity(ctx, entity, entityID)
}
