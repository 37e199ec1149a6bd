package models

// Role claims carried in the JWT issued by the hospital's identity service.
const (
	RoleAdmin                 = "admin"
	RoleClerk                 = "clerk"
	RoleAccountant            = "accountant"
	RoleAccountOfficer        = "account_officer"
	RoleAuditOfficer          = "audit_officer"
	RoleSeniorBudgetOfficer   = "senior_budget_officer"
	RoleBudgetOfficer         = "budget_officer"
	RoleDirectorFinance       = "director_finance"
	RoleExecutiveDirector     = "executive_director"
	RoleMedicalSuperintendent = "medical_superintendent"
	RolePreAudit              = "pre_audit"
)

// Actor identifies the caller performing a workflow action.
type Actor struct {
	UserID    uint
	Role      string
	IP        string
	UserAgent string
}

// Is reports whether the actor holds role
func (a Actor) Is(role string) bool {
	return a.Role == role
}

// All lists every persisted model, in migration order
func All() []interface{} {
	return []interface{}{
		&BudgetEntry{},
		&ExpenseHistory{},
		&ContingentBill{},
		&ScheduleOfPayment{},
		&ScheduleOfPaymentBill{},
		&AsaanCheque{},
		&EprocNotification{},
		&AuditLog{},
	}
}
