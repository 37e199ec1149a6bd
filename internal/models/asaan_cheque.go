package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cheque status constants
const (
	ChequeStatusPending   = "Pending"
	ChequeStatusApproved  = "Approved"
	ChequeStatusForwarded = "Forwarded"
)

// Cheque signatories
const (
	ChequeApprovalDirectorFinance   = "director_finance"
	ChequeApprovalExecutiveDirector = "executive_director"
)

// AsaanCheque is the payment instrument issued for one fully approved schedule
type AsaanCheque struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	ScheduleOfPaymentID uint            `gorm:"not null;uniqueIndex" json:"schedule_of_payment_id"`
	PayeeName           string          `gorm:"not null" json:"payee_name"`
	DDOName             string          `gorm:"column:ddo_name" json:"ddo_name"`
	CostCentre          string          `json:"cost_centre"`
	GrantNumber         string          `json:"grant_number"`
	Amount              decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Status              string          `gorm:"size:16;not null;default:Pending;index" json:"status"`

	CertificateConfirmed bool `gorm:"not null;default:false" json:"certificate_confirmed"`

	DirectorFinanceApproved   bool       `gorm:"not null;default:false" json:"director_finance_approved"`
	DirectorFinanceUserID     *uint      `json:"director_finance_user_id"`
	DirectorFinanceApprovedAt *time.Time `json:"director_finance_approved_at"`

	ExecutiveDirectorApproved   bool       `gorm:"not null;default:false" json:"executive_director_approved"`
	ExecutiveDirectorUserID     *uint      `json:"executive_director_user_id"`
	ExecutiveDirectorApprovedAt *time.Time `json:"executive_director_approved_at"`

	ForwardedToBank bool       `gorm:"not null;default:false" json:"forwarded_to_bank"`
	BankDetails     *string    `gorm:"type:text" json:"bank_details,omitempty"`
	ReferenceNumber *string    `gorm:"size:64" json:"reference_number,omitempty"`
	ForwardedDate   *time.Time `json:"forwarded_date,omitempty"`

	Version   int       `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for AsaanCheque
func (AsaanCheque) TableName() string {
	return "asaan_cheques"
}

// MayApprove returns true while signatures are still being collected
func (c *AsaanCheque) MayApprove() bool {
	return c.Status == ChequeStatusPending
}

// MayForward returns true once both signatures are in and the cheque has not left
func (c *AsaanCheque) MayForward() bool {
	return c.Status == ChequeStatusApproved && !c.ForwardedToBank
}

// BothSigned reports whether DF and ED have both approved
func (c *AsaanCheque) BothSigned() bool {
	return c.DirectorFinanceApproved && c.ExecutiveDirectorApproved
}
