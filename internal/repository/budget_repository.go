package repository

import (
	"context"

	"github.com/sjperalta/cbms-api/internal/models"

	"gorm.io/gorm"
)

// BudgetRepository defines the interface for ledger data access
type BudgetRepository interface {
	FindByHead(ctx context.Context, objectCode, fiscalYear string) (*models.BudgetEntry, error)
	List(ctx context.Context, fiscalYear string) ([]models.BudgetEntry, error)
	Create(ctx context.Context, entry *models.BudgetEntry) error
	Update(ctx context.Context, entry *models.BudgetEntry) error
	CreateExpense(ctx context.Context, expense *models.ExpenseHistory) error
	ExpenseExists(ctx context.Context, billID uint) (bool, error)
	ListExpenses(ctx context.Context, objectCode, fiscalYear string) ([]models.ExpenseHistory, error)
}

type budgetRepository struct {
	db *gorm.DB
}

// NewBudgetRepository creates a new budget repository
func NewBudgetRepository(db *gorm.DB) BudgetRepository {
	return &budgetRepository{db: db}
}

func (r *budgetRepository) FindByHead(ctx context.Context, objectCode, fiscalYear string) (*models.BudgetEntry, error) {
	var entry models.BudgetEntry
	err := GetDB(ctx, r.db).
		Where("object_code = ? AND fiscal_year = ?", objectCode, fiscalYear).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *budgetRepository) List(ctx context.Context, fiscalYear string) ([]models.BudgetEntry, error) {
	var entries []models.BudgetEntry
	db := GetDB(ctx, r.db)
	if fiscalYear != "" {
		db = db.Where("fiscal_year = ?", fiscalYear)
	}
	err := db.Order("fiscal_year DESC, object_code ASC").Find(&entries).Error
	return entries, err
}

func (r *budgetRepository) Create(ctx context.Context, entry *models.BudgetEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

// Update writes the entry only if nobody changed it since it was read
func (r *budgetRepository) Update(ctx context.Context, entry *models.BudgetEntry) error {
	return updateVersioned(GetDB(ctx, r.db), entry, &entry.Version)
}

func (r *budgetRepository) CreateExpense(ctx context.Context, expense *models.ExpenseHistory) error {
	return GetDB(ctx, r.db).Create(expense).Error
}

func (r *budgetRepository) ExpenseExists(ctx context.Context, billID uint) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&models.ExpenseHistory{}).
		Where("bill_id = ?", billID).
		Count(&count).Error
	return count > 0, err
}

func (r *budgetRepository) ListExpenses(ctx context.Context, objectCode, fiscalYear string) ([]models.ExpenseHistory, error) {
	var expenses []models.ExpenseHistory
	err := GetDB(ctx, r.db).
		Where("object_code = ? AND fiscal_year = ?", objectCode, fiscalYear).
		Order("applied_at ASC, id ASC").
		Find(&expenses).Error
	return expenses, err
}
