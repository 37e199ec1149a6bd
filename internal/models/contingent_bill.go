package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bill status constants. One canonical state serves both approval protocols.
const (
	BillStatusDraft                      = "Draft"
	BillStatusPendingAccountant          = "PendingAccountant"
	BillStatusPendingAccountOfficer      = "PendingAccountOfficer"
	BillStatusPendingAuditOfficer        = "PendingAuditOfficer"
	BillStatusPendingSeniorBudgetOfficer = "PendingSeniorBudgetOfficer"
	BillStatusPendingDirectorFinance     = "PendingDirectorFinance"
	BillStatusApproved                   = "Approved"
	BillStatusRejected                   = "Rejected"
)

// Legacy tri-signature view of the canonical status
const (
	LegacyStatusPending  = "Pending"
	LegacyStatusApproved = "Approved"
	LegacyStatusRejected = "Rejected"
)

// Deduction protocols. The tri-signature recompute only knows the four base deductions.
const (
	ProtocolTriSignature = "tri_signature"
	ProtocolWorkflow     = "workflow"
)

// Tri-signature approval types
const (
	SignatureMedicalSuperintendent = "medical_superintendent"
	SignatureExecutiveDirector     = "executive_director"
	SignaturePreAudit              = "pre_audit"
)

// Six-stage chain stages; each owns one ApprovalStamp on the bill
const (
	StageSubmission          = "submission"
	StageAccountant          = "accountant"
	StageAccountOfficer      = "account_officer"
	StageAuditOfficer        = "audit_officer"
	StageSeniorBudgetOfficer = "senior_budget_officer"
	StageDirectorFinance     = "director_finance"
)

// ApprovalStamp records who acted on a stage, when, and what they noted
type ApprovalStamp struct {
	ByUserID *uint      `json:"by_user_id"`
	At       *time.Time `json:"at"`
	Remarks  string     `gorm:"type:text" json:"remarks"`
}

// Set fills the stamp for a completed action
func (s *ApprovalStamp) Set(userID uint, at time.Time, remarks string) {
	s.ByUserID = &userID
	s.At = &at
	s.Remarks = remarks
}

// ContingentBill is a purchase bill travelling through the approval pipeline
type ContingentBill struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	BillNumber   string `gorm:"size:32;uniqueIndex;not null" json:"bill_number"`
	SupplierName string `gorm:"not null" json:"supplier_name"`
	Description  string `gorm:"type:text" json:"description"`
	ObjectCode   string `gorm:"size:20;index:idx_bill_head" json:"object_code"`
	FiscalYear   string `gorm:"size:9;index:idx_bill_head" json:"fiscal_year"`
	FundingPool  string `gorm:"size:3;not null;default:AAA" json:"funding_pool"`

	// E-procurement linkage (set on import)
	EprocOrderID  *string `gorm:"size:64;index" json:"eproc_order_id,omitempty"`
	EprocTenderID *string `gorm:"size:64" json:"eproc_tender_id,omitempty"`
	LOANumber     *string `gorm:"column:loa_number;size:64" json:"loa_number,omitempty"`

	BudgetAllotment    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"budget_allotment"`
	AmountOfBill       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount_of_bill"`
	TotalPreviousBills decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_previous_bills"`
	TotalUptoDate      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_upto_date"`
	AvailableBalance   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"available_balance"`
	GrandTotal         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"grand_total"`
	// GrandTotalExplicit is false while GrandTotal follows AmountOfBill
	GrandTotalExplicit bool `gorm:"not null;default:false" json:"grand_total_explicit"`

	StampDuty           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"stamp_duty"`
	GST                 decimal.Decimal `gorm:"column:gst;type:decimal(18,2);not null;default:0" json:"gst"`
	IncomeTax           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"income_tax"`
	LaborDuty           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"labor_duty"`
	LateDeliveryCharges decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"late_delivery_charges"`
	RiskPurchase        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"risk_purchase"`
	OtherDeductions     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"other_deductions"`
	NetPayment          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"net_payment"`

	Status            string           `gorm:"size:32;not null;default:Draft;index" json:"status"`
	DeductionProtocol string           `gorm:"size:20;not null;default:tri_signature" json:"deduction_protocol"`
	RejectionReason   *string          `gorm:"type:text" json:"rejection_reason,omitempty"`
	AmountLessDrawn   *decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount_less_drawn,omitempty"`
	CreatedByUserID   uint             `gorm:"index" json:"created_by_user_id"`

	// Tri-signature protocol
	MedicalSuperintendentApproved   bool       `gorm:"not null;default:false" json:"medical_superintendent_approved"`
	MedicalSuperintendentApprovedAt *time.Time `json:"medical_superintendent_approved_at"`
	ExecutiveDirectorApproved       bool       `gorm:"not null;default:false" json:"executive_director_approved"`
	ExecutiveDirectorApprovedAt     *time.Time `json:"executive_director_approved_at"`
	PreAuditPassed                  bool       `gorm:"not null;default:false" json:"pre_audit_passed"`
	PreAuditPassedAt                *time.Time `json:"pre_audit_passed_at"`

	// Six-stage chain
	Submission          ApprovalStamp `gorm:"embedded;embeddedPrefix:submitted_" json:"submission"`
	Accountant          ApprovalStamp `gorm:"embedded;embeddedPrefix:accountant_" json:"accountant"`
	AccountOfficer      ApprovalStamp `gorm:"embedded;embeddedPrefix:account_officer_" json:"account_officer"`
	AuditOfficer        ApprovalStamp `gorm:"embedded;embeddedPrefix:audit_officer_" json:"audit_officer"`
	SeniorBudgetOfficer ApprovalStamp `gorm:"embedded;embeddedPrefix:senior_budget_officer_" json:"senior_budget_officer"`
	DirectorFinance     ApprovalStamp `gorm:"embedded;embeddedPrefix:director_finance_" json:"director_finance"`

	ApprovedAt *time.Time `json:"approved_at"`
	Version    int        `gorm:"not null;default:1" json:"version"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for ContingentBill
func (ContingentBill) TableName() string {
	return "contingent_bills"
}

// BaseDeductions sums the four deductions known to both protocols
func (b *ContingentBill) BaseDeductions() decimal.Decimal {
	return b.StampDuty.Add(b.GST).Add(b.IncomeTax).Add(b.LaborDuty)
}

// ExtendedDeductions adds the chain-only deductions to the base set
func (b *ContingentBill) ExtendedDeductions() decimal.Decimal {
	return b.BaseDeductions().Add(b.LateDeliveryCharges).Add(b.RiskPurchase).Add(b.OtherDeductions)
}

// SetGrandTotal pins the grand total to v. Zero releases it back to the bill amount.
func (b *ContingentBill) SetGrandTotal(v decimal.Decimal) {
	b.GrandTotal = v
	b.GrandTotalExplicit = !v.IsZero()
}

// Recalculate re-derives every computed amount using the deduction set of protocol
func (b *ContingentBill) Recalculate(protocol string) {
	if !b.GrandTotalExplicit {
		b.GrandTotal = b.AmountOfBill
	}
	b.TotalUptoDate = b.TotalPreviousBills.Add(b.AmountOfBill)
	b.AvailableBalance = b.BudgetAllotment.Sub(b.TotalUptoDate)

	deductions := b.BaseDeductions()
	if protocol == ProtocolWorkflow {
		deductions = b.ExtendedDeductions()
	}
	b.NetPayment = b.GrandTotal.Sub(deductions)
	b.DeductionProtocol = protocol
}

// IsPending returns true while the bill sits in one of the chain's pending stages
func (b *ContingentBill) IsPending() bool {
	switch b.Status {
	case BillStatusPendingAccountant,
		BillStatusPendingAccountOfficer,
		BillStatusPendingAuditOfficer,
		BillStatusPendingSeniorBudgetOfficer,
		BillStatusPendingDirectorFinance:
		return true
	}
	return false
}

// IsTerminal returns true once the bill is approved or rejected
func (b *ContingentBill) IsTerminal() bool {
	return b.Status == BillStatusApproved || b.Status == BillStatusRejected
}

// MayEdit reports whether a caller holding role may change the bill's fields
func (b *ContingentBill) MayEdit(role string) bool {
	switch b.Status {
	case BillStatusDraft:
		return true
	case BillStatusPendingAccountOfficer:
		return role == RoleAccountOfficer
	}
	return false
}

// MaySign returns true if tri-signature flags can still be set
func (b *ContingentBill) MaySign() bool {
	return !b.IsTerminal()
}

// Sign sets one tri-signature flag. Re-signing refreshes the timestamp.
func (b *ContingentBill) Sign(signature string, at time.Time) error {
	switch signature {
	case SignatureMedicalSuperintendent:
		b.MedicalSuperintendentApproved = true
		b.MedicalSuperintendentApprovedAt = &at
	case SignatureExecutiveDirector:
		b.ExecutiveDirectorApproved = true
		b.ExecutiveDirectorApprovedAt = &at
	case SignaturePreAudit:
		b.PreAuditPassed = true
		b.PreAuditPassedAt = &at
	default:
		return fmt.Errorf("unknown approval type %q", signature)
	}
	return nil
}

// TriSignatureComplete returns true once all three legacy signatures are present
func (b *ContingentBill) TriSignatureComplete() bool {
	return b.MedicalSuperintendentApproved && b.ExecutiveDirectorApproved && b.PreAuditPassed
}

// StageStamp returns the chain stamp owned by stage, or nil for an unknown stage
func (b *ContingentBill) StageStamp(stage string) *ApprovalStamp {
	switch stage {
	case StageSubmission:
		return &b.Submission
	case StageAccountant:
		return &b.Accountant
	case StageAccountOfficer:
		return &b.AccountOfficer
	case StageAuditOfficer:
		return &b.AuditOfficer
	case StageSeniorBudgetOfficer:
		return &b.SeniorBudgetOfficer
	case StageDirectorFinance:
		return &b.DirectorFinance
	}
	return nil
}

// LegacyStatus renders the canonical status the way tri-signature clients expect it
func (b *ContingentBill) LegacyStatus() string {
	switch b.Status {
	case BillStatusApproved:
		return LegacyStatusApproved
	case BillStatusRejected:
		return LegacyStatusRejected
	}
	return LegacyStatusPending
}

// ContingentBillResponse is the JSON response format for bills
type ContingentBillResponse struct {
	ContingentBill
	LegacyStatus string `json:"legacy_status"`
}

// ToResponse converts ContingentBill to ContingentBillResponse
func (b *ContingentBill) ToResponse() ContingentBillResponse {
	return ContingentBillResponse{
		ContingentBill: *b,
		LegacyStatus:   b.LegacyStatus(),
	}
}

// FormatBillNumber builds CB-<yyyyMMdd>-<seq>
func FormatBillNumber(day time.Time, seq int) string {
	return fmt.Sprintf("CB-%s-%04d", day.Format("20060102"), seq)
}
