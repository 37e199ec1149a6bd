package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/cbms-api/internal/models"
	"github.com/sjperalta/cbms-api/internal/repository"
	"github.com/sjperalta/cbms-api/pkg/logger"
)

// Institution identifies the drawing office printed on every cheque
type Institution struct {
	DDOName     string
	CostCentre  string
	GrantNumber string
}

type ScheduleService struct {
	tx          repository.TransactionManager
	repo        repository.ScheduleRepository
	billRepo    repository.BillRepository
	chequeRepo  repository.ChequeRepository
	auditSvc    *AuditService
	institution Institution
	now         func() time.Time
}

func NewScheduleService(
	tx repository.TransactionManager,
	repo repository.ScheduleRepository,
	billRepo repository.BillRepository,
	chequeRepo repository.ChequeRepository,
	auditSvc *AuditService,
	institution Institution,
) *ScheduleService {
	return &ScheduleService{
		tx:          tx,
		repo:        repo,
		billRepo:    billRepo,
		chequeRepo:  chequeRepo,
		auditSvc:    auditSvc,
		institution: institution,
		now:         time.Now,
	}
}

func (s *ScheduleService) FindByID(ctx context.Context, id uint) (*models.ScheduleOfPayment, error) {
	schedule, err := s.repo.FindByIDWithBills(ctx, id)
	return schedule, translate(err)
}

func (s *ScheduleService) List(ctx context.Context, query *repository.ListQuery) ([]models.ScheduleOfPayment, int64, error) {
	return s.repo.List(ctx, query)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func joinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}

// CreateBatch aggregates approved, unbatched bills into one schedule. All or nothing.
func (s *ScheduleService) CreateBatch(ctx context.Context, billIDs []uint, actor models.Actor) (*models.ScheduleOfPayment, error) {
	ids := uniqueIDs(billIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one bill is required", ErrPrecondition)
	}

	var schedule *models.ScheduleOfPayment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		found, err := s.billRepo.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uint]models.ContingentBill, len(found))
		for _, b := range found {
			byID[b.ID] = b
		}

		var missing, notApproved []uint
		bills := make([]models.ContingentBill, 0, len(ids))
		for _, id := range ids {
			b, ok := byID[id]
			switch {
			case !ok:
				missing = append(missing, id)
			case b.Status != models.BillStatusApproved:
				notApproved = append(notApproved, id)
			default:
				bills = append(bills, b)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: bills not found: %s", ErrPrecondition, joinIDs(missing))
		}
		if len(notApproved) > 0 {
			return fmt.Errorf("%w: bills not approved: %s", ErrPrecondition, joinIDs(notApproved))
		}

		batched, err := s.repo.BatchedBillIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(batched) > 0 {
			return fmt.Errorf("%w: bills already scheduled: %s", ErrPrecondition, joinIDs(batched))
		}

		schedule = aggregate(bills)
		schedule.CreatedByUserID = actor.UserID
		if err := s.repo.Create(ctx, schedule, ids); err != nil {
			return err
		}
		schedule.Bills = bills

		return s.auditSvc.Record(ctx, actor, AuditEntry{
			Action:   models.AuditActionCreate,
			Entity:   models.EntitySchedule,
			EntityID: schedule.ID,
			ToStatus: schedule.Status,
			Details:  schedule.Particulars,
		})
	})
	if err != nil {
		return nil, translate(err)
	}

	logger.FromContext(ctx).Info("Schedule of payment created",
		"schedule_id", schedule.ID, "bills", len(ids), "net_amount", schedule.NetAmount.StringFixed(2))
	return schedule, nil
}

// aggregate sums the bills into a new pending schedule
func aggregate(bills []models.ContingentBill) *models.ScheduleOfPayment {
	s := &models.ScheduleOfPayment{
		ContingentBillID: bills[0].ID,
		GrossAmount:      decimal.Zero,
		StampDuty:        decimal.Zero,
		GST:              decimal.Zero,
		IncomeTax:        decimal.Zero,
		LaborDuty:        decimal.Zero,
		NetAmount:        decimal.Zero,
		Status:           models.ScheduleStatusPending,
		Version:          1,
	}

	var payees, numbers []string
	seen := map[string]bool{}
	for _, b := range bills {
		s.GrossAmount = s.GrossAmount.Add(b.GrandTotal)
		s.StampDuty = s.StampDuty.Add(b.StampDuty)
		s.GST = s.GST.Add(b.GST)
		s.IncomeTax = s.IncomeTax.Add(b.IncomeTax)
		s.LaborDuty = s.LaborDuty.Add(b.LaborDuty)
		s.NetAmount = s.NetAmount.Add(b.NetPayment)

		numbers = append(numbers, b.BillNumber)
		if !seen[b.SupplierName] {
			seen[b.SupplierName] = true
			payees = append(payees, b.SupplierName)
		}
	}

	s.PayeeName = strings.Join(payees, ", ")
	s.Particulars = "Payment of contingent bills: " + strings.Join(numbers, ", ")
	return s
}

// Approve records one of the six sequential schedule approvals. The last one approves
// the schedule and issues its Asaan cheque in the same transaction.
func (s *ScheduleService) Approve(ctx context.Context, id uint, approvalType string, actor models.Actor) (*models.ScheduleOfPayment, *models.AsaanCheque, error) {
	role, ok := models.ScheduleApprovalRole(approvalType)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown approval type %q", ErrPrecondition, approvalType)
	}
	if !actor.Is(role) {
		return nil, nil, fmt.Errorf("%w: %s approval requires role %s", ErrForbidden, approvalType, role)
	}

	var schedule *models.ScheduleOfPayment
	var cheque *models.AsaanCheque
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		schedule, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		slot := schedule.Signoff(approvalType)
		if slot.Approved {
			return fmt.Errorf("%w: %s approval already given", ErrPrecondition, approvalType)
		}
		if pending := schedule.PendingBefore(approvalType); pending != "" {
			return fmt.Errorf("%w: waiting for %s approval", ErrPrecondition, pending)
		}

		from := schedule.Status
		now := s.now()
		slot.Approved = true
		slot.ByUserID = &actor.UserID
		slot.At = &now

		if schedule.FullyApproved() {
			schedule.Status = models.ScheduleStatusApproved
			schedule.ApprovedAt = &now
			cheque = &models.AsaanCheque{
				ScheduleOfPaymentID: schedule.ID,
				PayeeName:           schedule.PayeeName,
				DDOName:             s.institution.DDOName,
				CostCentre:          s.institution.CostCentre,
				GrantNumber:         s.institution.GrantNumber,
				Amount:              schedule.NetAmount,
				Status:              models.ChequeStatusPending,
				Version:             1,
			}
		}

		if err := s.repo.Update(ctx, schedule); err != nil {
			return err
		}
		if cheque != nil {
			if err := s.chequeRepo.Create(ctx, cheque); err != nil {
				return err
			}
		}

		return s.auditSvc.Record(ctx, actor, AuditEntry{
			Action:     models.AuditActionApprove,
			Entity:     models.EntitySchedule,
			EntityID:   schedule.ID,
			FromStatus: from,
			ToStatus:   schedule.Status,
			Details:    approvalType,
		})
	})
	if err != nil {
		return nil, nil, translate(err)
	}

	if cheque != nil {
		logger.FromContext(ctx).Info("Asaan cheque issued",
			"schedule_id", schedule.ID, "cheque_id", cheque.ID, "amount", cheque.Amount.StringFixed(2))
	}
	return schedule, cheque, nil
}
