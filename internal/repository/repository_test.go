package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/cbms-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newBill(number string) *models.ContingentBill {
	return &models.ContingentBill{
		BillNumber:        number,
		SupplierName:      "Medi Supplies",
		ObjectCode:        "A03970",
		FiscalYear:        "2025-2026",
		FundingPool:       models.PoolAAA,
		AmountOfBill:      decimal.NewFromInt(100000),
		Status:            models.BillStatusDraft,
		DeductionProtocol: models.ProtocolTriSignature,
		Version:           1,
	}
}

func TestBillUpdate_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewBillRepository(newTestDB(t))

	bill := newBill("CB-20250307-0001")
	require.NoError(t, repo.Create(ctx, bill))

	first, err := repo.FindByID(ctx, bill.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, bill.ID)
	require.NoError(t, err)

	first.Status = models.BillStatusPendingAccountant
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.Status = models.BillStatusRejected
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, ErrStaleVersion)
	assert.Equal(t, 1, second.Version)

	stored, err := repo.FindByID(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusPendingAccountant, stored.Status)
}

func TestBillNextSequence(t *testing.T) {
	ctx := context.Background()
	repo := NewBillRepository(newTestDB(t))
	day := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

	seq, err := repo.NextSequence(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	require.NoError(t, repo.Create(ctx, newBill(models.FormatBillNumber(day, 1))))
	require.NoError(t, repo.Create(ctx, newBill(models.FormatBillNumber(day, 2))))
	require.NoError(t, repo.Create(ctx, newBill(models.FormatBillNumber(day.AddDate(0, 0, 1), 1))))

	seq, err = repo.NextSequence(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 3, seq)
}

func TestBillList_FiltersAndSearch(t *testing.T) {
	ctx := context.Background()
	repo := NewBillRepository(newTestDB(t))

	a := newBill("CB-20250307-0001")
	b := newBill("CB-20250307-0002")
	b.SupplierName = "Surgical House"
	b.Status = models.BillStatusApproved
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	q := NewListQuery()
	q.Status = models.BillStatusApproved
	bills, total, err := repo.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, b.ID, bills[0].ID)

	q = NewListQuery()
	q.Search = "surgical"
	_, total, err = repo.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestScheduleCreate_BillBatchedOnce(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	bills := NewBillRepository(db)
	schedules := NewScheduleRepository(db)

	a := newBill("CB-20250307-0001")
	b := newBill("CB-20250307-0002")
	require.NoError(t, bills.Create(ctx, a))
	require.NoError(t, bills.Create(ctx, b))

	s := &models.ScheduleOfPayment{ContingentBillID: a.ID, PayeeName: "Medi Supplies", Particulars: "x", Status: models.ScheduleStatusPending, Version: 1}
	require.NoError(t, schedules.Create(ctx, s, []uint{a.ID, b.ID}))

	loaded, err := schedules.FindByIDWithBills(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Bills, 2)
	assert.Equal(t, a.ID, loaded.Bills[0].ID)

	batched, err := schedules.BatchedBillIDs(ctx, []uint{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, b.ID}, batched)

	again := &models.ScheduleOfPayment{ContingentBillID: a.ID, PayeeName: "Medi Supplies", Particulars: "y", Status: models.ScheduleStatusPending, Version: 1}
	err = NewTransactionManager(db).RunInTx(ctx, func(txCtx context.Context) error {
		return schedules.Create(txCtx, again, []uint{a.ID})
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	_, total, err := schedules.List(ctx, NewListQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "failed batch rolls back")
}

func TestChequeOnePerSchedule(t *testing.T) {
	ctx := context.Background()
	repo := NewChequeRepository(newTestDB(t))

	c := &models.AsaanCheque{ScheduleOfPaymentID: 7, PayeeName: "Medi Supplies", Amount: decimal.NewFromInt(146800), Status: models.ChequeStatusPending, Version: 1}
	require.NoError(t, repo.Create(ctx, c))

	dup := &models.AsaanCheque{ScheduleOfPaymentID: 7, PayeeName: "Medi Supplies", Amount: decimal.NewFromInt(146800), Status: models.ChequeStatusPending, Version: 1}
	assert.ErrorIs(t, repo.Create(ctx, dup), gorm.ErrDuplicatedKey)

	found, err := repo.FindBySchedule(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)
}

func TestBudgetExpenseOncePerBill(t *testing.T) {
	ctx := context.Background()
	repo := NewBudgetRepository(newTestDB(t))

	entry := &models.BudgetEntry{ObjectCode: "A03970", FiscalYear: "2025-2026", ReleaseTranche1: decimal.NewFromInt(500000), Version: 1}
	entry.ComputeTotals()
	require.NoError(t, repo.Create(ctx, entry))

	found, err := repo.FindByHead(ctx, "A03970", "2025-2026")
	require.NoError(t, err)
	require.NoError(t, found.ApplyExpenditure(models.PoolAAA, decimal.NewFromInt(96800)))
	require.NoError(t, repo.Update(ctx, found))

	exp := &models.ExpenseHistory{BillID: 1, BillNumber: "CB-20250307-0001", ObjectCode: "A03970", FiscalYear: "2025-2026", Pool: models.PoolAAA, Amount: decimal.NewFromInt(96800), Protocol: models.ProtocolTriSignature, AppliedAt: time.Now()}
	require.NoError(t, repo.CreateExpense(ctx, exp))

	dup := *exp
	dup.ID = 0
	assert.ErrorIs(t, repo.CreateExpense(ctx, &dup), gorm.ErrDuplicatedKey)

	exists, err := repo.ExpenseExists(ctx, 1)
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := repo.FindByHead(ctx, "A03970", "2025-2026")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(96800).Equal(stored.TotalExpenditure))
	assert.True(t, decimal.NewFromInt(403200).Equal(stored.RemainingBalance))

	_, err = repo.FindByHead(ctx, "A03970", "2024-2025")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRunInTx_RollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewAuditRepository(db)

	err := NewTransactionManager(db).RunInTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, repo.Create(txCtx, &models.AuditLog{UserID: 1, Action: models.AuditActionCreate, Entity: models.EntityBill, EntityID: 1}))
		return ErrStaleVersion
	})
	assert.ErrorIs(t, err, ErrStaleVersion)

	logs, err := repo.ListByEntity(ctx, models.EntityBill, 1)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
