package models

import "time"

// Notification outcomes, also echoed to clients in the X-Eproc-Notify header
const (
	EprocOutcomeOK      = "ok"
	EprocOutcomeFailed  = "failed"
	EprocOutcomeSkipped = "skipped"
	EprocOutcomeError   = "error"
)

// EprocNotification records one attempt to tell e-procurement that an award was paid
type EprocNotification struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AsaanChequeID  uint      `gorm:"not null;index" json:"asaan_cheque_id"`
	TenderID       string    `gorm:"size:64" json:"tender_id"`
	LOANumber      string    `gorm:"column:loa_number;size:64" json:"loa_number"`
	IdempotencyKey string    `gorm:"size:64;not null" json:"idempotency_key"`
	Outcome        string    `gorm:"size:16;not null;index" json:"outcome"`
	StatusCode     int       `json:"status_code"`
	Detail         string    `gorm:"type:text" json:"detail"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for EprocNotification
func (EprocNotification) TableName() string {
	return "eproc_notifications"
}
