package repository

import (
	"context"

	"github.com/sjperalta/cbms-api/internal/models"

	"gorm.io/gorm"
)

// ChequeRepository defines the interface for Asaan cheque data access
type ChequeRepository interface {
	FindByID(ctx context.Context, id uint) (*models.AsaanCheque, error)
	FindBySchedule(ctx context.Context, scheduleID uint) (*models.AsaanCheque, error)
	Create(ctx context.Context, cheque *models.AsaanCheque) error
	Update(ctx context.Context, cheque *models.AsaanCheque) error
	List(ctx context.Context, query *ListQuery) ([]models.AsaanCheque, int64, error)
}

type chequeRepository struct {
	db *gorm.DB
}

// NewChequeRepository creates a new cheque repository
func NewChequeRepository(db *gorm.DB) ChequeRepository {
	return &chequeRepository{db: db}
}

func (r *chequeRepository) FindByID(ctx context.Context, id uint) (*models.AsaanCheque, error) {
	var cheque models.AsaanCheque
	if err := GetDB(ctx, r.db).First(&cheque, id).Error; err != nil {
		return nil, err
	}
	return &cheque, nil
}

func (r *chequeRepository) FindBySchedule(ctx context.Context, scheduleID uint) (*models.AsaanCheque, error) {
	var cheque models.AsaanCheque
	err := GetDB(ctx, r.db).Where("schedule_of_payment_id = ?", scheduleID).First(&cheque).Error
	if err != nil {
		return nil, err
	}
	return &cheque, nil
}

func (r *chequeRepository) Create(ctx context.Context, cheque *models.AsaanCheque) error {
	return GetDB(ctx, r.db).Create(cheque).Error
}

// Update writes the cheque only if nobody changed it since it was read
func (r *chequeRepository) Update(ctx context.Context, cheque *models.AsaanCheque) error {
	return updateVersioned(GetDB(ctx, r.db), cheque, &cheque.Version)
}

func (r *chequeRepository) List(ctx context.Context, query *ListQuery) ([]models.AsaanCheque, int64, error) {
	var cheques []models.AsaanCheque
	var total int64

	db := GetDB(ctx, r.db).Model(&models.AsaanCheque{})
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}

	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db.Order("created_at DESC, id DESC"), query).Find(&cheques).Error
	if err != nil {
		return nil, 0, err
	}
	return cheques, total, nil
}
