package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrStaleVersion is returned when a versioned row changed since it was read
var ErrStaleVersion = errors.New("row version is stale")

// Repositories holds all repository instances
type Repositories struct {
	Tx       TransactionManager
	Budget   BudgetRepository
	Bill     BillRepository
	Schedule ScheduleRepository
	Cheque   ChequeRepository
	Eproc    EprocNotificationRepository
	Audit    AuditRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Tx:       NewTransactionManager(db),
		Budget:   NewBudgetRepository(db),
		Bill:     NewBillRepository(db),
		Schedule: NewScheduleRepository(db),
		Cheque:   NewChequeRepository(db),
		Eproc:    NewEprocNotificationRepository(db),
		Audit:    NewAuditRepository(db),
	}
}

// updateVersioned writes every column of model guarded by a compare-and-swap on version.
// On success *version is advanced; on a lost race it is left untouched and ErrStaleVersion returned.
func updateVersioned(db *gorm.DB, model interface{}, version *int) error {
	expected := *version
	*version = expected + 1

	res := db.Model(model).Where("version = ?", expected).Select("*").Updates(model)
	if res.Error != nil {
		*version = expected
		return res.Error
	}
	if res.RowsAffected == 0 {
		*version = expected
		return ErrStaleVersion
	}
	return nil
}

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	Status  string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// paginate applies offset and limit from q
func paginate(db *gorm.DB, q *ListQuery) *gorm.DB {
	if q.PerPage <= 0 {
		return db
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	return db.Offset((page - 1) * q.PerPage).Limit(q.PerPage)
}
