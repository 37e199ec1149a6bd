package services

import (
	"github.com/sjperalta/cbms-api/internal/config"
	"github.com/sjperalta/cbms-api/internal/eproc"
	"github.com/sjperalta/cbms-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Audit    *AuditService
	Budget   *BudgetService
	Bill     *BillService
	Schedule *ScheduleService
	Cheque   *ChequeService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, cfg *config.Config, portal *eproc.Client) *Services {
	auditSvc := NewAuditService(repos.Audit)
	budgetSvc := NewBudgetService(repos.Tx, repos.Budget, auditSvc)
	notifier := NewEprocNotifier(portal, repos.Schedule, repos.Bill, repos.Eproc)

	institution := Institution{
		DDOName:     cfg.DDOName,
		CostCentre:  cfg.CostCentre,
		GrantNumber: cfg.GrantNumber,
	}

	return &Services{
		Audit:    auditSvc,
		Budget:   budgetSvc,
		Bill:     NewBillService(repos.Tx, repos.Bill, budgetSvc, auditSvc, portal, cfg.LegacyTriSignEnabled),
		Schedule: NewScheduleService(repos.Tx, repos.Schedule, repos.Bill, repos.Cheque, auditSvc, institution),
		Cheque:   NewChequeService(repos.Tx, repos.Cheque, repos.Schedule, repos.Eproc, notifier, auditSvc),
	}
}
