package repository

import (
	"context"

	"github.com/sjperalta/cbms-api/internal/models"

	"gorm.io/gorm"
)

// ScheduleRepository defines the interface for schedule of payment data access
type ScheduleRepository interface {
	FindByID(ctx context.Context, id uint) (*models.ScheduleOfPayment, error)
	FindByIDWithBills(ctx context.Context, id uint) (*models.ScheduleOfPayment, error)
	Create(ctx context.Context, schedule *models.ScheduleOfPayment, billIDs []uint) error
	Update(ctx context.Context, schedule *models.ScheduleOfPayment) error
	List(ctx context.Context, query *ListQuery) ([]models.ScheduleOfPayment, int64, error)
	BatchedBillIDs(ctx context.Context, billIDs []uint) ([]uint, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) FindByID(ctx context.Context, id uint) (*models.ScheduleOfPayment, error) {
	var schedule models.ScheduleOfPayment
	if err := GetDB(ctx, r.db).First(&schedule, id).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) FindByIDWithBills(ctx context.Context, id uint) (*models.ScheduleOfPayment, error) {
	schedule, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = GetDB(ctx, r.db).
		Joins("JOIN schedule_of_payment_bills sb ON sb.contingent_bill_id = contingent_bills.id").
		Where("sb.schedule_of_payment_id = ?", id).
		Order("contingent_bills.id ASC").
		Find(&schedule.Bills).Error
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// Create persists the schedule and one join row per bill
func (r *scheduleRepository) Create(ctx context.Context, schedule *models.ScheduleOfPayment, billIDs []uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Create(schedule).Error; err != nil {
		return err
	}

	links := make([]models.ScheduleOfPaymentBill, 0, len(billIDs))
	for _, id := range billIDs {
		links = append(links, models.ScheduleOfPaymentBill{
			ScheduleOfPaymentID: schedule.ID,
			ContingentBillID:    id,
		})
	}
	return db.Create(&links).Error
}

// Update writes the schedule only if nobody changed it since it was read
func (r *scheduleRepository) Update(ctx context.Context, schedule *models.ScheduleOfPayment) error {
	return updateVersioned(GetDB(ctx, r.db), schedule, &schedule.Version)
}

func (r *scheduleRepository) List(ctx context.Context, query *ListQuery) ([]models.ScheduleOfPayment, int64, error) {
	var schedules []models.ScheduleOfPayment
	var total int64

	db := GetDB(ctx, r.db).Model(&models.ScheduleOfPayment{})
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}

	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db.Order("created_at DESC, id DESC"), query).Find(&schedules).Error
	if err != nil {
		return nil, 0, err
	}
	return schedules, total, nil
}

// BatchedBillIDs returns the subset of billIDs already linked to a schedule
func (r *scheduleRepository) BatchedBillIDs(ctx context.Context, billIDs []uint) ([]uint, error) {
	var ids []uint
	err := GetDB(ctx, r.db).
		Model(&models.ScheduleOfPaymentBill{}).
		Where("contingent_bill_id IN ?", billIDs).
		Order("contingent_bill_id ASC").
		Pluck("contingent_bill_id", &ids).Error
	return ids, err
}
