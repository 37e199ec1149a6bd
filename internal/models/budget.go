package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Funding pools tracked on every budget head
const (
	PoolAAA = "AAA" // general
	PoolPLA = "PLA" // local
	PoolUHI = "UHI" // insurance scheme
)

// ValidPool reports whether p names one of the three funding pools
func ValidPool(p string) bool {
	return p == PoolAAA || p == PoolPLA || p == PoolUHI
}

// BudgetEntry is the ledger row for one object code in one fiscal year.
// The consolidated columns are derived; always call ComputeTotals after touching components.
type BudgetEntry struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	ObjectCode            string          `gorm:"size:20;not null;uniqueIndex:idx_budget_head" json:"object_code"`
	FiscalYear            string          `gorm:"size:9;not null;uniqueIndex:idx_budget_head" json:"fiscal_year"`
	Description           string          `json:"description"`
	TotalBudgetAllocation decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_budget_allocation"`
	ReleaseTranche1       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"release_tranche_1"`
	ReleaseTranche2       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"release_tranche_2"`
	ReleaseTranche3       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"release_tranche_3"`
	ReleaseTranche4       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"release_tranche_4"`
	SupplementaryBudget   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"supplementary_budget"`
	AdditionalSurrender   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"additional_surrender"`
	BudgetWithheldLapse   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"budget_withheld_lapse"`
	ExpenditureAAA        decimal.Decimal `gorm:"column:expenditure_aaa;type:decimal(18,2);not null;default:0" json:"expenditure_aaa"`
	ExpenditurePLA        decimal.Decimal `gorm:"column:expenditure_pla;type:decimal(18,2);not null;default:0" json:"expenditure_pla"`
	ExpenditureUHI        decimal.Decimal `gorm:"column:expenditure_uhi;type:decimal(18,2);not null;default:0" json:"expenditure_uhi"`

	// Derived
	TotalReleased    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_released"`
	TotalExpenditure decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_expenditure"`
	NetBudget        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"net_budget"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"remaining_balance"`

	Version   int       `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for BudgetEntry
func (BudgetEntry) TableName() string {
	return "budget_entries"
}

// ComputeTotals recomputes every consolidated column from its components
func (b *BudgetEntry) ComputeTotals() {
	b.TotalReleased = b.ReleaseTranche1.Add(b.ReleaseTranche2).Add(b.ReleaseTranche3).Add(b.ReleaseTranche4)
	b.TotalExpenditure = b.ExpenditureAAA.Add(b.ExpenditurePLA).Add(b.ExpenditureUHI)
	b.NetBudget = b.TotalReleased.
		Add(b.SupplementaryBudget).
		Sub(b.AdditionalSurrender).
		Sub(b.BudgetWithheldLapse)
	b.RemainingBalance = b.NetBudget.Sub(b.TotalExpenditure)
}

// ApplyExpenditure books amount against a pool and recomputes totals.
// It carries no memory of what was applied; callers guard against repeats.
func (b *BudgetEntry) ApplyExpenditure(pool string, amount decimal.Decimal) error {
	switch pool {
	case PoolAAA, "":
		b.ExpenditureAAA = b.ExpenditureAAA.Add(amount)
	case PoolPLA:
		b.ExpenditurePLA = b.ExpenditurePLA.Add(amount)
	case PoolUHI:
		b.ExpenditureUHI = b.ExpenditureUHI.Add(amount)
	default:
		return fmt.Errorf("unknown funding pool %q", pool)
	}
	b.ComputeTotals()
	return nil
}

// PoolExpenditure returns the cumulative expenditure of a single pool
func (b *BudgetEntry) PoolExpenditure(pool string) decimal.Decimal {
	switch pool {
	case PoolPLA:
		return b.ExpenditurePLA
	case PoolUHI:
		return b.ExpenditureUHI
	default:
		return b.ExpenditureAAA
	}
}

// ExpenseHistory records one bill's expenditure booked into the ledger.
// BillID is unique so a bill can never be charged twice.
type ExpenseHistory struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	BillID     uint            `gorm:"not null;uniqueIndex" json:"bill_id"`
	BillNumber string          `gorm:"size:32;not null" json:"bill_number"`
	ObjectCode string          `gorm:"size:20;not null;index:idx_expense_head" json:"object_code"`
	FiscalYear string          `gorm:"size:9;not null;index:idx_expense_head" json:"fiscal_year"`
	Pool       string          `gorm:"size:3;not null" json:"pool"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Protocol   string          `gorm:"size:20;not null" json:"protocol"`
	ApprovedBy uint            `json:"approved_by"`
	AppliedAt  time.Time       `gorm:"not null" json:"applied_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName specifies the table name for ExpenseHistory
func (ExpenseHistory) TableName() string {
	return "expense_histories"
}
