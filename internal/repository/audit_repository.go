package repository

import (
	"context"

	"github.com/sjperalta/cbms-api/internal/models"

	"gorm.io/gorm"
)

// AuditRepository defines the interface for audit log access
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByEntity(ctx context.Context, entity string, entityID uint) ([]models.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) ListByEntity(ctx context.Context, entity string, entityID uint) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := GetDB(ctx, r.db).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	return logs, err
}
