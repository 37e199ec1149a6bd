package repository

import (
	"context"

	"github.com/sjperalta/cbms-api/internal/models"

	"gorm.io/gorm"
)

// EprocNotificationRepository stores finalize attempts
type EprocNotificationRepository interface {
	Create(ctx context.Context, n *models.EprocNotification) error
	ListByCheque(ctx context.Context, chequeID uint) ([]models.EprocNotification, error)
}

type eprocNotificationRepository struct {
	db *gorm.DB
}

// NewEprocNotificationRepository creates a new notification repository
func NewEprocNotificationRepository(db *gorm.DB) EprocNotificationRepository {
	return &eprocNotificationRepository{db: db}
}

func (r *eprocNotificationRepository) Create(ctx context.Context, n *models.EprocNotification) error {
	return GetDB(ctx, r.db).Create(n).Error
}

func (r *eprocNotificationRepository) ListByCheque(ctx context.Context, chequeID uint) ([]models.EprocNotification, error) {
	var out []models.EprocNotification
	err := GetDB(ctx, r.db).
		Where("asaan_cheque_id = ?", chequeID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
