package models

import (
	"time"
)

// AuditLog represents one workflow action taken by a caller
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Role       string    `gorm:"size:32" json:"role"`
	Action     string    `gorm:"size:50;not null" json:"action"`                        // CREATE, UPDATE, SIGN, APPROVE, REJECT, RETURN, FORWARD
	Entity     string    `gorm:"size:50;not null;index:idx_audit_entity" json:"entity"` // ContingentBill, ScheduleOfPayment, AsaanCheque, BudgetEntry
	EntityID   uint      `gorm:"index:idx_audit_entity" json:"entity_id"`
	FromStatus string    `gorm:"size:32" json:"from_status,omitempty"`
	ToStatus   string    `gorm:"size:32" json:"to_status,omitempty"`
	Details    string    `gorm:"type:text" json:"details"`
	IPAddress  string    `gorm:"size:45" json:"ip_address"`
	UserAgent  string    `gorm:"size:255" json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit entity names
const (
	EntityBill     = "ContingentBill"
	EntitySchedule = "ScheduleOfPayment"
	EntityCheque   = "AsaanCheque"
	EntityBudget   = "BudgetEntry"
)

// Audit actions
const (
	AuditActionCreate  = "CREATE"
	AuditActionUpdate  = "UPDATE"
	AuditActionSign    = "SIGN"
	AuditActionSubmit  = "SUBMIT"
	AuditActionApprove = "APPROVE"
	AuditActionReject  = "REJECT"
	AuditActionReturn  = "RETURN"
	AuditActionForward = "FORWARD"
)
