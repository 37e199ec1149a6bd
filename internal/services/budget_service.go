package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/cbms-api/internal/models"
	"github.com/sjperalta/cbms-api/internal/repository"
	"github.com/sjperalta/cbms-api/pkg/logger"
	"gorm.io/gorm"
)

// BudgetInput carries the reference-data components of a ledger entry.
// Nil fields are left unchanged on update.
type BudgetInput struct {
	ObjectCode            string           `json:"object_code"`
	FiscalYear            string           `json:"fiscal_year"`
	Description           *string          `json:"description"`
	TotalBudgetAllocation *decimal.Decimal `json:"total_budget_allocation"`
	ReleaseTranche1       *decimal.Decimal `json:"release_tranche_1"`
	ReleaseTranche2       *decimal.Decimal `json:"release_tranche_2"`
	ReleaseTranche3       *decimal.Decimal `json:"release_tranche_3"`
	ReleaseTranche4       *decimal.Decimal `json:"release_tranche_4"`
	SupplementaryBudget   *decimal.Decimal `json:"supplementary_budget"`
	AdditionalSurrender   *decimal.Decimal `json:"additional_surrender"`
	BudgetWithheldLapse   *decimal.Decimal `json:"budget_withheld_lapse"`
	ExpenditureAAA        *decimal.Decimal `json:"expenditure_aaa"`
	ExpenditurePLA        *decimal.Decimal `json:"expenditure_pla"`
	ExpenditureUHI        *decimal.Decimal `json:"expenditure_uhi"`
}

func setDecimal(dst *decimal.Decimal, src *decimal.Decimal) {
	if src != nil {
		*dst = *src
	}
}

func (in BudgetInput) applyTo(e *models.BudgetEntry) {
	if in.Description != nil {
		e.Description = *in.Description
	}
	setDecimal(&e.TotalBudgetAllocation, in.TotalBudgetAllocation)
	setDecimal(&e.ReleaseTranche1, in.ReleaseTranche1)
	setDecimal(&e.ReleaseTranche2, in.ReleaseTranche2)
	setDecimal(&e.ReleaseTranche3, in.ReleaseTranche3)
	setDecimal(&e.ReleaseTranche4, in.ReleaseTranche4)
	setDecimal(&e.SupplementaryBudget, in.SupplementaryBudget)
	setDecimal(&e.AdditionalSurrender, in.AdditionalSurrender)
	setDecimal(&e.BudgetWithheldLapse, in.BudgetWithheldLapse)
	setDecimal(&e.ExpenditureAAA, in.ExpenditureAAA)
	setDecimal(&e.ExpenditurePLA, in.ExpenditurePLA)
	setDecimal(&e.ExpenditureUHI, in.ExpenditureUHI)
}

type BudgetService struct {
	tx       repository.TransactionManager
	repo     repository.BudgetRepository
	auditSvc *AuditService
	now      func() time.Time
}

func NewBudgetService(tx repository.TransactionManager, repo repository.BudgetRepository, auditSvc *AuditService) *BudgetService {
	return &BudgetService{
		tx:       tx,
		repo:     repo,
		auditSvc: auditSvc,
		now:      time.Now,
	}
}

func (s *BudgetService) Get(ctx context.Context, objectCode, fiscalYear string) (*models.BudgetEntry, error) {
	entry, err := s.repo.FindByHead(ctx, objectCode, fiscalYear)
	return entry, translate(err)
}

func (s *BudgetService) List(ctx context.Context, fiscalYear string) ([]models.BudgetEntry, error) {
	return s.repo.List(ctx, fiscalYear)
}

func (s *BudgetService) Expenses(ctx context.Context, objectCode, fiscalYear string) ([]models.ExpenseHistory, error) {
	return s.repo.ListExpenses(ctx, objectCode, fiscalYear)
}

// Upsert creates or edits the ledger entry for a budget head. Admin only.
func (s *BudgetService) Upsert(ctx context.Context, in BudgetInput, actor models.Actor) (*models.BudgetEntry, error) {
	if !actor.Is(models.RoleAdmin) {
		return nil, ErrForbidden
	}
	in.ObjectCode = strings.TrimSpace(in.ObjectCode)
	in.FiscalYear = strings.TrimSpace(in.FiscalYear)
	if in.ObjectCode == "" || in.FiscalYear == "" {
		return nil, fmt.Errorf("%w: object code and fiscal year are required", ErrPrecondition)
	}

	var entry *models.BudgetEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		action := models.AuditActionUpdate
		existing, err := s.repo.FindByHead(ctx, in.ObjectCode, in.FiscalYear)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			action = models.AuditActionCreate
			entry = &models.BudgetEntry{ObjectCode: in.ObjectCode, FiscalYear: in.FiscalYear, Version: 1}
		case err != nil:
			return err
		default:
			entry = existing
		}

		in.applyTo(entry)
		entry.ComputeTotals()

		if action == models.AuditActionCreate {
			err = s.repo.Create(ctx, entry)
		} else {
			err = s.repo.Update(ctx, entry)
		}
		if err != nil {
			return err
		}

		return s.auditSvc.Record(ctx, actor, AuditEntry{
			Action:   action,
			Entity:   models.EntityBudget,
			EntityID: entry.ID,
			Details:  fmt.Sprintf("%s/%s net budget %s", entry.ObjectCode, entry.FiscalYear, entry.NetBudget.StringFixed(2)),
		})
	})
	if err != nil {
		return nil, translate(err)
	}
	return entry, nil
}

// ApplyBill books an approved bill's net payment against its budget head and records
// the expense. A missing head means no budget data and is skipped. Must run inside RunInTx.
func (s *BudgetService) ApplyBill(ctx context.Context, bill *models.ContingentBill, actor models.Actor) error {
	applied, err := s.repo.ExpenseExists(ctx, bill.ID)
	if err != nil {
		return err
	}
	if applied {
		logger.FromContext(ctx).Warn("Expenditure already booked for bill", "bill_id", bill.ID)
		return nil
	}

	entry, err := s.repo.FindByHead(ctx, bill.ObjectCode, bill.FiscalYear)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.FromContext(ctx).Debug("No ledger entry for bill head, skipping expenditure",
			"bill_id", bill.ID, "object_code", bill.ObjectCode, "fiscal_year", bill.FiscalYear)
		return nil
	}
	if err != nil {
		return err
	}

	pool := bill.FundingPool
	if pool == "" {
		pool = models.PoolAAA
	}
	if err := entry.ApplyExpenditure(pool, bill.NetPayment); err != nil {
		return fmt.Errorf("%w: %v", ErrPrecondition, err)
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return err
	}

	return s.repo.CreateExpense(ctx, &models.ExpenseHistory{
		BillID:     bill.ID,
		BillNumber: bill.BillNumber,
		ObjectCode: bill.ObjectCode,
		FiscalYear: bill.FiscalYear,
		Pool:       pool,
		Amount:     bill.NetPayment,
		Protocol:   bill.DeductionProtocol,
		ApprovedBy: actor.UserID,
		AppliedAt:  s.now(),
	})
}

// prefill copies ledger figures into a new bill when the caller left them zero
func (s *BudgetService) prefill(ctx context.Context, bill *models.ContingentBill) error {
	if bill.ObjectCode == "" || bill.FiscalYear == "" {
		return nil
	}
	entry, err := s.repo.FindByHead(ctx, bill.ObjectCode, bill.FiscalYear)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if bill.BudgetAllotment.IsZero() {
		bill.BudgetAllotment = entry.NetBudget
	}
	if bill.TotalPreviousBills.IsZero() {
		bill.TotalPreviousBills = entry.TotalExpenditure
	}
	return nil
}
