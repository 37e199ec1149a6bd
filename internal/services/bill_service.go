package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/cbms-api/internal/eproc"
	"github.com/sjperalta/cbms-api/internal/models"
	"github.com/sjperalta/cbms-api/internal/repository"
	"github.com/sjperalta/cbms-api/internal/statemachine"
	"github.com/sjperalta/cbms-api/pkg/logger"
	"gorm.io/gorm"
)

// BillInput is the editable part of a contingent bill. Nil fields are left unchanged.
type BillInput struct {
	SupplierName        *string          `json:"supplier_name"`
	Description         *string          `json:"description"`
	ObjectCode          *string          `json:"object_code"`
	FiscalYear          *string          `json:"fiscal_year"`
	FundingPool         *string          `json:"funding_pool"`
	BudgetAllotment     *decimal.Decimal `json:"budget_allotment"`
	AmountOfBill        *decimal.Decimal `json:"amount_of_bill"`
	TotalPreviousBills  *decimal.Decimal `json:"total_previous_bills"`
	GrandTotal          *decimal.Decimal `json:"grand_total"`
	StampDuty           *decimal.Decimal `json:"stamp_duty"`
	GST                 *decimal.Decimal `json:"gst"`
	IncomeTax           *decimal.Decimal `json:"income_tax"`
	LaborDuty           *decimal.Decimal `json:"labor_duty"`
	LateDeliveryCharges *decimal.Decimal `json:"late_delivery_charges"`
	RiskPurchase        *decimal.Decimal `json:"risk_purchase"`
	OtherDeductions     *decimal.Decimal `json:"other_deductions"`
}

func (in BillInput) applyTo(b *models.ContingentBill) {
	if in.SupplierName != nil {
		b.SupplierName = strings.TrimSpace(*in.SupplierName)
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.ObjectCode != nil {
		b.ObjectCode = strings.TrimSpace(*in.ObjectCode)
	}
	if in.FiscalYear != nil {
		b.FiscalYear = strings.TrimSpace(*in.FiscalYear)
	}
	if in.FundingPool != nil {
		b.FundingPool = strings.ToUpper(strings.TrimSpace(*in.FundingPool))
	}
	setDecimal(&b.BudgetAllotment, in.BudgetAllotment)
	setDecimal(&b.AmountOfBill, in.AmountOfBill)
	setDecimal(&b.TotalPreviousBills, in.TotalPreviousBills)
	if in.GrandTotal != nil {
		b.SetGrandTotal(*in.GrandTotal)
	}
	setDecimal(&b.StampDuty, in.StampDuty)
	setDecimal(&b.GST, in.GST)
	setDecimal(&b.IncomeTax, in.IncomeTax)
	setDecimal(&b.LaborDuty, in.LaborDuty)
	setDecimal(&b.LateDeliveryCharges, in.LateDeliveryCharges)
	setDecimal(&b.RiskPurchase, in.RiskPurchase)
	setDecimal(&b.OtherDeductions, in.OtherDeductions)
}

func validateBill(b *models.ContingentBill) error {
	if b.SupplierName == "" {
		return fmt.Errorf("%w: supplier name is required", ErrPrecondition)
	}
	if b.FundingPool == "" {
		b.FundingPool = models.PoolAAA
	}
	if !models.ValidPool(b.FundingPool) {
		return fmt.Errorf("%w: unknown funding pool %q", ErrPrecondition, b.FundingPool)
	}
	for name, v := range map[string]decimal.Decimal{
		"amount of bill": b.AmountOfBill, "grand total": b.GrandTotal,
		"stamp duty": b.StampDuty, "gst": b.GST, "income tax": b.IncomeTax, "labor duty": b.LaborDuty,
		"late delivery charges": b.LateDeliveryCharges, "risk purchase": b.RiskPurchase, "other deductions": b.OtherDeductions,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s cannot be negative", ErrPrecondition, name)
		}
	}
	return nil
}

// recalculate re-derives the bill's amounts. A bill whose deductions exceed its
// grand total would book negative spending, so it is refused.
func recalculate(b *models.ContingentBill, protocol string) error {
	b.Recalculate(protocol)
	if b.NetPayment.IsNegative() {
		return fmt.Errorf("%w: deductions of %s exceed the grand total of %s", ErrPrecondition,
			b.GrandTotal.Sub(b.NetPayment).StringFixed(2), b.GrandTotal.StringFixed(2))
	}
	return nil
}

// recalcProtocol is the deduction set that applies to a bill in its current state.
// A rejected bill keeps the set that produced its last figures.
func recalcProtocol(b *models.ContingentBill) string {
	switch b.Status {
	case models.BillStatusDraft:
		return models.ProtocolTriSignature
	case models.BillStatusRejected:
		if b.DeductionProtocol != "" {
			return b.DeductionProtocol
		}
		return models.ProtocolTriSignature
	}
	return models.ProtocolWorkflow
}

// signatureRoles maps each tri-signature to the role that may give it
var signatureRoles = map[string]string{
	models.SignatureMedicalSuperintendent: models.RoleMedicalSuperintendent,
	models.SignatureExecutiveDirector:     models.RoleExecutiveDirector,
	models.SignaturePreAudit:              models.RolePreAudit,
}

// OrderSearcher finds purchase orders on the e-procurement portal
type OrderSearcher interface {
	SearchOrders(ctx context.Context, query string) ([]eproc.Order, error)
}

type BillService struct {
	tx             repository.TransactionManager
	repo           repository.BillRepository
	budgetSvc      *BudgetService
	auditSvc       *AuditService
	orders         OrderSearcher
	triSignEnabled bool
	now            func() time.Time
}

func NewBillService(
	tx repository.TransactionManager,
	repo repository.BillRepository,
	budgetSvc *BudgetService,
	auditSvc *AuditService,
	orders OrderSearcher,
	triSignEnabled bool,
) *BillService {
	return &BillService{
		tx:             tx,
		repo:           repo,
		budgetSvc:      budgetSvc,
		auditSvc:       auditSvc,
		orders:         orders,
		triSignEnabled: triSignEnabled,
		now:            time.Now,
	}
}

func (s *BillService) FindByID(ctx context.Context, id uint) (*models.ContingentBill, error) {
	bill, err := s.repo.FindByID(ctx, id)
	return bill, translate(err)
}

func (s *BillService) List(ctx context.Context, query *repository.ListQuery) ([]models.ContingentBill, int64, error) {
	return s.repo.List(ctx, query)
}

// History returns the audit trail of a bill
func (s *BillService) History(ctx context.Context, id uint) ([]models.AuditLog, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.auditSvc.History(ctx, models.EntityBill, id)
}

// Create registers a manually entered bill as a draft
func (s *BillService) Create(ctx context.Context, in BillInput, actor models.Actor) (*models.ContingentBill, error) {
	bill := &models.ContingentBill{}
	in.applyTo(bill)
	return s.create(ctx, bill, actor, "manual entry")
}

// CreateFromEproc imports a purchase order as a draft bill
func (s *BillService) CreateFromEproc(ctx context.Context, order eproc.Order, actor models.Actor) (*models.ContingentBill, error) {
	if order.ID != "" {
		existing, err := s.repo.FindByEprocOrder(ctx, order.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: order %s already imported as %s", ErrConflict, order.ID, existing.BillNumber)
		}
	}
	return s.create(ctx, order.ToBill(), actor, "e-procurement import "+order.ID)
}

func (s *BillService) create(ctx context.Context, bill *models.ContingentBill, actor models.Actor, source string) (*models.ContingentBill, error) {
	bill.Status = models.BillStatusDraft
	bill.CreatedByUserID = actor.UserID
	bill.Version = 1
	if err := validateBill(bill); err != nil {
		return nil, err
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.budgetSvc.prefill(ctx, bill); err != nil {
			return err
		}

		now := s.now()
		seq, err := s.repo.NextSequence(ctx, now)
		if err != nil {
			return err
		}
		bill.BillNumber = models.FormatBillNumber(now, seq)
		if err := recalculate(bill, models.ProtocolTriSignature); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, bill); err != nil {
			return err
		}

		return s.auditSvc.Record(ctx, actor, AuditEntry{
			Action:   models.AuditActionCreate,
			Entity:   models.EntityBill,
			EntityID: bill.ID,
			ToStatus: bill.Status,
			Details:  fmt.Sprintf("%s created from %s", bill.BillNumber, source),
		})
	})
	if err != nil {
		return nil, translate(err)
	}

	logger.FromContext(ctx).Info("Contingent bill created", "bill_id", bill.ID, "bill_number", bill.BillNumber)
	return bill, nil
}

// Update edits a bill while its current stage allows it
func (s *BillService) Update(ctx context.Context, id uint, in BillInput, actor models.Actor) (*models.ContingentBill, error) {
	var bill *models.ContingentBill
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		bill, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkEditable(bill, actor); err != nil {
			return err
		}

		in.applyTo(bill)
		if err := validateBill(bill); err != nil {
			return err
		}
		if err := recalculate(bill, recalcProtocol(bill)); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, bill); err != nil {
			return err
		}
		return s.auditSvc.Record(ctx, actor, AuditEntry{
			Action:     models.AuditActionUpdate,
			Entity:     models.EntityBill,
			EntityID:   bill.ID,
			FromStatus: bill.Status,
			ToStatus:   bill.Status,
		})
	})
	if err != nil {
		return nil, translate(err)
	}
	return bill, nil
}

func checkEditable(bill *models.ContingentBill, actor models.Actor) error {
	if bill.MayEdit(actor.Role) {
		return nil
	}
	if bill.Status == models.BillStatusPendingAccountOfficer {
		return fmt.Errorf("%w: only the account officer may edit at this stage", ErrForbidden)
	}
	return fmt.Errorf("%w: bill cannot be edited in state %s", ErrInvalidState, bill.Status)
}

// Sign sets one tri-signature. Once all three are present the bill is approved and
// its net payment is booked against the ledger.
func (s *BillService) Sign(ctx context.Context, id uint, approvalType string, actor models.Actor) (*models.ContingentBill, error) {
	if !s.triSignEnabled {
		return nil, fmt.Errorf("%w: tri-signature approvals are disabled", ErrPrecondition)
	}
	role, ok := signatureRoles[approvalType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown approval type %q", ErrPrecondition, approvalType)
	}
	if !actor.Is(role) {
		return nil, fmt.Errorf("%w: %s approval requires role %s", ErrForbidden, approvalType, role)
	}

	var bill *models.ContingentBill
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		bill, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !bill.MaySign() {
			return fmt.Errorf("%w: bill is already %s", ErrInvalidState, bill.Status)
		}

		from := bill.Status
		now := s.now()
		if err := bill.Sign(approvalType, now); err != nil {
			return fmt.Errorf("%w: %v", ErrPrecondition, err)
		}

		if bill.TriSignatureComplete() {
			if _, err := statemachine.NewBillFSM(bill).Fire(ctx, statemachine.ActionFinalize, actor.Role); err != nil {
				return err
			}
			if err := recalculate(bill, models.ProtocolTriSignature); err != nil {
				return err
			}
			bill.ApprovedAt = &now
			if err := s.budgetSvc.ApplyBill(ctx, bill, actor); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, bill); err != nil {
			return err
		}
		return s.auditSvc.Record(ctx, actor, AuditEntry{
			Action:     models.AuditActionSign,
			Entity:     models.EntityBill,
			EntityID:   bill.ID,
			FromStatus: from,
			ToStatus:   bill.Status,
			Details:    approvalType,
		})
	})
	if err != nil {
		return nil, translate(err)
	}
	return bill, nil
}

// Decline rejects a bill on behalf of a tri-signature signatory
func (s *BillService) Decline(ctx context.Context, id uint, reason string, amountLessDrawn *decimal.Decimal, actor models.Actor) (*models.ContingentBill, error) {
	if !s.triSignEnabled {
		return nil, fmt.Errorf("%w: tri-signature approvals are disabled", ErrPrecondition)
	}
	signatory := false
	for _, role := range signatureRoles {
		signatory = signatory || actor.Is(role)
	}
	if !signatory {
		return nil, fmt.Errorf("%w: only a signatory may reject", ErrForbidden)
	}

	return s.transition(ctx, id, statemachine.ActionDecline, WorkflowRequest{Reason: reason, AmountLessDrawn: amountLessDrawn}, actor)
}

// SearchEprocOrders proxies an order search to the portal
func (s *BillService) SearchEprocOrders(ctx context.Context, query string) ([]eproc.Order, error) {
	if s.orders == nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, eproc.ErrNotConfigured)
	}
	orders, err := s.orders.SearchOrders(ctx, query)
	if err != nil {
		logger.FromContext(ctx).Warn("E-procurement order search failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return orders, nil
}
