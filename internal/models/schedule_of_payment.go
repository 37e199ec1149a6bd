package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Schedule status constants
const (
	ScheduleStatusPending  = "Pending"
	ScheduleStatusApproved = "Approved"
)

// Schedule approval types, in the order they must be given
const (
	ScheduleApprovalAccountant        = "accountant"
	ScheduleApprovalBudgetOfficer     = "budget_officer"
	ScheduleApprovalAuditOfficer      = "audit_officer"
	ScheduleApprovalAccountsOfficer   = "accounts_officer"
	ScheduleApprovalDirectorFinance   = "director_finance"
	ScheduleApprovalExecutiveDirector = "executive_director"
)

// ScheduleApprovalOrder is the sequence every schedule must follow
var ScheduleApprovalOrder = []string{
	ScheduleApprovalAccountant,
	ScheduleApprovalBudgetOfficer,
	ScheduleApprovalAuditOfficer,
	ScheduleApprovalAccountsOfficer,
	ScheduleApprovalDirectorFinance,
	ScheduleApprovalExecutiveDirector,
}

// scheduleApprovalRoles maps each approval type to the role allowed to give it
var scheduleApprovalRoles = map[string]string{
	ScheduleApprovalAccountant:        RoleAccountant,
	ScheduleApprovalBudgetOfficer:     RoleBudgetOfficer,
	ScheduleApprovalAuditOfficer:      RoleAuditOfficer,
	ScheduleApprovalAccountsOfficer:   RoleAccountOfficer,
	ScheduleApprovalDirectorFinance:   RoleDirectorFinance,
	ScheduleApprovalExecutiveDirector: RoleExecutiveDirector,
}

// ScheduleApprovalRole returns the role required for approvalType
func ScheduleApprovalRole(approvalType string) (string, bool) {
	role, ok := scheduleApprovalRoles[approvalType]
	return role, ok
}

// ScheduleSignoff is one approval slot on a schedule
type ScheduleSignoff struct {
	Approved bool       `gorm:"not null;default:false" json:"approved"`
	ByUserID *uint      `json:"by_user_id"`
	At       *time.Time `json:"at"`
}

// ScheduleOfPayment aggregates one batch of approved bills for payment
type ScheduleOfPayment struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// ContingentBillID is the first bill of the batch; the full set lives in the join table
	ContingentBillID uint            `gorm:"not null;index" json:"contingent_bill_id"`
	PayeeName        string          `gorm:"not null" json:"payee_name"`
	Particulars      string          `gorm:"type:text;not null" json:"particulars"`
	GrossAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"gross_amount"`
	StampDuty        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"stamp_duty"`
	GST              decimal.Decimal `gorm:"column:gst;type:decimal(18,2);not null;default:0" json:"gst"`
	IncomeTax        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"income_tax"`
	LaborDuty        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"labor_duty"`
	NetAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"net_amount"`
	Status           string          `gorm:"size:16;not null;default:Pending;index" json:"status"`
	CreatedByUserID  uint            `json:"created_by_user_id"`

	AccountantApproval        ScheduleSignoff `gorm:"embedded;embeddedPrefix:accountant_" json:"accountant"`
	BudgetOfficerApproval     ScheduleSignoff `gorm:"embedded;embeddedPrefix:budget_officer_" json:"budget_officer"`
	AuditOfficerApproval      ScheduleSignoff `gorm:"embedded;embeddedPrefix:audit_officer_" json:"audit_officer"`
	AccountsOfficerApproval   ScheduleSignoff `gorm:"embedded;embeddedPrefix:accounts_officer_" json:"accounts_officer"`
	DirectorFinanceApproval   ScheduleSignoff `gorm:"embedded;embeddedPrefix:director_finance_" json:"director_finance"`
	ExecutiveDirectorApproval ScheduleSignoff `gorm:"embedded;embeddedPrefix:executive_director_" json:"executive_director"`

	ApprovedAt *time.Time `json:"approved_at"`
	Version    int        `gorm:"not null;default:1" json:"version"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Loaded through the join table by the repository
	Bills []ContingentBill `gorm:"-" json:"bills,omitempty"`
}

// TableName specifies the table name for ScheduleOfPayment
func (ScheduleOfPayment) TableName() string {
	return "schedule_of_payments"
}

// ScheduleOfPaymentBill links a schedule to every bill it pays. A bill is batched at most once.
type ScheduleOfPaymentBill struct {
	ScheduleOfPaymentID uint      `gorm:"primaryKey" json:"schedule_of_payment_id"`
	ContingentBillID    uint      `gorm:"primaryKey;uniqueIndex:idx_schedule_bill_once" json:"contingent_bill_id"`
	CreatedAt           time.Time `json:"created_at"`
}

// TableName specifies the table name for ScheduleOfPaymentBill
func (ScheduleOfPaymentBill) TableName() string {
	return "schedule_of_payment_bills"
}

// Signoff returns the approval slot for approvalType
func (s *ScheduleOfPayment) Signoff(approvalType string) *ScheduleSignoff {
	switch approvalType {
	case ScheduleApprovalAccountant:
		return &s.AccountantApproval
	case ScheduleApprovalBudgetOfficer:
		return &s.BudgetOfficerApproval
	case ScheduleApprovalAuditOfficer:
		return &s.AuditOfficerApproval
	case ScheduleApprovalAccountsOfficer:
		return &s.AccountsOfficerApproval
	case ScheduleApprovalDirectorFinance:
		return &s.DirectorFinanceApproval
	case ScheduleApprovalExecutiveDirector:
		return &s.ExecutiveDirectorApproval
	}
	return nil
}

// PendingBefore returns the first approval type ahead of approvalType that is still missing,
// or "" when every earlier role has signed.
func (s *ScheduleOfPayment) PendingBefore(approvalType string) string {
	for _, t := range ScheduleApprovalOrder {
		if t == approvalType {
			return ""
		}
		if !s.Signoff(t).Approved {
			return t
		}
	}
	return ""
}

// FullyApproved returns true once all six roles have signed
func (s *ScheduleOfPayment) FullyApproved() bool {
	for _, t := range ScheduleApprovalOrder {
		if !s.Signoff(t).Approved {
			return false
		}
	}
	return true
}

// NextApproval returns the approval type expected next, or "" when complete
func (s *ScheduleOfPayment) NextApproval() string {
	for _, t := range ScheduleApprovalOrder {
		if !s.Signoff(t).Approved {
			return t
		}
	}
	return ""
}
