package repository

import (
	"context"
	"strings"
	"time"

	"github.com/sjperalta/cbms-api/internal/models"

	"gorm.io/gorm"
)

// BillRepository defines the interface for contingent bill data access
type BillRepository interface {
	FindByID(ctx context.Context, id uint) (*models.ContingentBill, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.ContingentBill, error)
	FindByEprocOrder(ctx context.Context, orderID string) (*models.ContingentBill, error)
	Create(ctx context.Context, bill *models.ContingentBill) error
	Update(ctx context.Context, bill *models.ContingentBill) error
	List(ctx context.Context, query *ListQuery) ([]models.ContingentBill, int64, error)
	NextSequence(ctx context.Context, day time.Time) (int, error)
}

type billRepository struct {
	db *gorm.DB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *gorm.DB) BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) FindByID(ctx context.Context, id uint) (*models.ContingentBill, error) {
	var bill models.ContingentBill
	if err := GetDB(ctx, r.db).First(&bill, id).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *billRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.ContingentBill, error) {
	var bills []models.ContingentBill
	err := GetDB(ctx, r.db).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&bills).Error
	return bills, err
}

func (r *billRepository) FindByEprocOrder(ctx context.Context, orderID string) (*models.ContingentBill, error) {
	var bill models.ContingentBill
	if err := GetDB(ctx, r.db).Where("eproc_order_id = ?", orderID).First(&bill).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *billRepository) Create(ctx context.Context, bill *models.ContingentBill) error {
	return GetDB(ctx, r.db).Create(bill).Error
}

// Update writes the bill only if nobody changed it since it was read
func (r *billRepository) Update(ctx context.Context, bill *models.ContingentBill) error {
	return updateVersioned(GetDB(ctx, r.db), bill, &bill.Version)
}

func (r *billRepository) List(ctx context.Context, query *ListQuery) ([]models.ContingentBill, int64, error) {
	var bills []models.ContingentBill
	var total int64

	db := GetDB(ctx, r.db).Model(&models.ContingentBill{})

	if query.Status != "" {
		statuses := strings.Split(query.Status, ",")
		for i, s := range statuses {
			statuses[i] = strings.TrimSpace(s)
		}
		db = db.Where("status IN ?", statuses)
	}
	if val := query.Filters["object_code"]; val != "" {
		db = db.Where("object_code = ?", val)
	}
	if val := query.Filters["fiscal_year"]; val != "" {
		db = db.Where("fiscal_year = ?", val)
	}
	if query.Search != "" {
		search := "%" + strings.ToLower(query.Search) + "%"
		db = db.Where("LOWER(bill_number) LIKE ? OR LOWER(supplier_name) LIKE ? OR LOWER(description) LIKE ?",
			search, search, search)
	}

	// Count on a separate session so the main query is not altered
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db.Order("created_at DESC, id DESC"), query).Find(&bills).Error
	if err != nil {
		return nil, 0, err
	}
	return bills, total, nil
}

// NextSequence returns the next per-day bill sequence for day
func (r *billRepository) NextSequence(ctx context.Context, day time.Time) (int, error) {
	prefix := strings.TrimSuffix(models.FormatBillNumber(day, 0), "0000")
	var count int64
	err := GetDB(ctx, r.db).
		Model(&models.ContingentBill{}).
		Where("bill_number LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}
