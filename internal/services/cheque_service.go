package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sjperalta/cbms-api/internal/models"
	"github.com/sjperalta/cbms-api/internal/repository"
	"github.com/sjperalta/cbms-api/internal/statemachine"
)

// ForwardInput carries the bank hand-off details of a cheque
type ForwardInput struct {
	BankDetails          string `json:"bankDetails"`
	ReferenceNumber      string `json:"referenceNumber"`
	CertificateConfirmed *bool  `json:"certificateConfirmed"`
}

// ChequeApproval is the result of a cheque signature. Notify is empty unless the
// signature approved the cheque and the portal was contacted.
type ChequeApproval struct {
	Cheque *models.AsaanCheque
	Notify string
}

var chequeSignatories = map[string]string{
	models.ChequeApprovalDirectorFinance:   models.RoleDirectorFinance,
	models.ChequeApprovalExecutiveDirector: models.RoleExecutiveDirector,
}

type ChequeService struct {
	tx           repository.TransactionManager
	repo         repository.ChequeRepository
	scheduleRepo repository.ScheduleRepository
	eprocRepo    repository.EprocNotificationRepository
	notifier     *EprocNotifier
	auditSvc     *AuditService
	now          func() time.Time
}

func NewChequeService(
	tx repository.TransactionManager,
	repo repository.ChequeRepository,
	scheduleRepo repository.ScheduleRepository,
	eprocRepo repository.EprocNotificationRepository,
	notifier *EprocNotifier,
	auditSvc *AuditService,
) *ChequeService {
	return &ChequeService{
		tx:           tx,
		repo:         repo,
		scheduleRepo: scheduleRepo,
		eprocRepo:    eprocRepo,
		notifier:     notifier,
		auditSvc:     auditSvc,
		now:          time.Now,
	}
}

func (s *ChequeService) FindByID(ctx context.Context, id uint) (*models.AsaanCheque, error) {
	cheque, err := s.repo.FindByID(ctx, id)
	return cheque, translate(err)
}

func (s *ChequeService) List(ctx context.Context, query *repository.ListQuery) ([]models.AsaanCheque, int64, error) {
	return s.repo.List(ctx, query)
}

// Notifications lists the finalize attempts recorded for a cheque
func (s *ChequeService) Notifications(ctx context.Context, id uint) ([]models.EprocNotification, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.eprocRepo.ListByCheque(ctx, id)
}

// Approve records a DF or ED signature. When the second one lands the cheque is approved,
// and after commit the e-procurement portal is told about the payment.
func (s *ChequeService) Approve(ctx context.Context, id uint, approvalType string, actor models.Actor) (*ChequeApproval, error) {
	role, ok := chequeSignatories[approvalType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown approval type %q", ErrPrecondition, approvalType)
	}
	if !actor.Is(role) {
		return nil, fmt.Errorf("%w: %s approval requires role %s", ErrForbidden, approvalType, role)
	}

	var cheque *models.AsaanCheque
	approved := false
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		cheque, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !cheque.MayApprove() {
			return fmt.Errorf("%w: cheque is already %s", ErrInvalidState, cheque.Status)
		}

		now := s.now()
		switch approvalType {
		case models.ChequeApprovalDirectorFinance:
			if cheque.DirectorFinanceApproved {
				return nil
			}
			cheque.DirectorFinanceApproved = true
			cheque.DirectorFinanceUserID = &actor.UserID
			cheque.DirectorFinanceApprovedAt = &now
		case models.ChequeApprovalExecutiveDirector:
			if cheque.ExecutiveDirectorApproved {
				return nil
			}
			cheque.ExecutiveDirectorApproved = true
			cheque.ExecutiveDirectorUserID = &actor.UserID
			cheque.ExecutiveDirectorApprovedAt = &now
		}

		from := cheque.Status
		if cheque.BothSigned() {
			if err := statemachine.NewChequeFSM(cheque).Approve(ctx); err != nil {
				return err
			}
			approved = true
		}

		if err := s.repo.Update(ctx, cheque); err != nil {
			return err
		}
		return s.auditSvc.Record(ctx, actor, AuditEntry{
			Action:     models.AuditActionApprove,
			Entity:     models.EntityCheque,
			EntityID:   cheque.ID,
			FromStatus: from,
			ToStatus:   cheque.Status,
			Details:    approvalType,
		})
	})
	if err != nil {
		return nil, translate(err)
	}

	result := &ChequeApproval{Cheque: cheque}
	if approved && s.notifier != nil {
		result.Notify = s.notifier.Notify(ctx, cheque)
	}
	return result, nil
}

// Forward hands an approved cheque to the bank. Forwarded is terminal.
func (s *ChequeService) Forward(ctx context.Context, id uint, in ForwardInput, actor models.Actor) (*models.AsaanCheque, error) {
	in.BankDetails = strings.TrimSpace(in.BankDetails)
	in.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	if in.BankDetails == "" || in.ReferenceNumber == "" {
		return nil, fmt.Errorf("%w: bank details and reference number are required", ErrPrecondition)
	}

	var cheque *models.AsaanCheque
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		cheque, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		from := cheque.Status
		if err := statemachine.NewChequeFSM(cheque).Forward(ctx); err != nil {
			return err
		}

		now := s.now()
		cheque.ForwardedToBank = true
		cheque.ForwardedDate = &now
		cheque.BankDetails = &in.BankDetails
		cheque.ReferenceNumber = &in.ReferenceNumber
		if in.CertificateConfirmed != nil {
			cheque.CertificateConfirmed = *in.CertificateConfirmed
		}

		if err := s.repo.Update(ctx, cheque); err != nil {
			return err
		}
		return s.auditSvc.Record(ctx, actor, AuditEntry{
			Action:     models.AuditActionForward,
			Entity:     models.EntityCheque,
			EntityID:   cheque.ID,
			FromStatus: from,
			ToStatus:   cheque.Status,
			Details:    "reference " + in.ReferenceNumber,
		})
	})
	if err != nil {
		return nil, translate(err)
	}
	return cheque, nil
}
