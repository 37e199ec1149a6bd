package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/cbms-api/internal/models"
	"github.com/sjperalta/cbms-api/internal/statemachine"
	"github.com/sjperalta/cbms-api/pkg/logger"
)

// WorkflowRequest carries the optional fields of a six-stage action
type WorkflowRequest struct {
	Remarks         string           `json:"remarks"`
	Reason          string           `json:"reason"`
	AmountLessDrawn *decimal.Decimal `json:"amountLessDrawn"`
	Bill            *BillInput       `json:"bill"`
}

// editingActions may carry field changes along with the transition
var editingActions = map[string]bool{
	statemachine.ActionSubmit:                true,
	statemachine.ActionSaveDraft:             true,
	statemachine.ActionAccountOfficerApprove: true,
}

var auditActions = map[string]string{
	statemachine.ActionSubmit:    models.AuditActionSubmit,
	statemachine.ActionSaveDraft: models.AuditActionUpdate,
	statemachine.ActionReject:    models.AuditActionReject,
	statemachine.ActionDecline:   models.AuditActionReject,
	statemachine.ActionReturn:    models.AuditActionReturn,
}

// Transition applies one six-stage workflow action to a bill
func (s *BillService) Transition(ctx context.Context, id uint, action string, req WorkflowRequest, actor models.Actor) (*models.ContingentBill, error) {
	switch action {
	case statemachine.ActionFinalize, statemachine.ActionDecline:
		return nil, fmt.Errorf("%w: %s is not a workflow action", ErrPrecondition, action)
	}
	return s.transition(ctx, id, action, req, actor)
}

func (s *BillService) transition(ctx context.Context, id uint, action string, req WorkflowRequest, actor models.Actor) (*models.ContingentBill, error) {
	rejecting := action == statemachine.ActionReject || action == statemachine.ActionDecline
	if rejecting && strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%w: a rejection reason is required", ErrPrecondition)
	}

	var bill *models.ContingentBill
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		bill, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		from := bill.Status

		t, err := statemachine.NewBillFSM(bill).Fire(ctx, action, actor.Role)
		if err != nil {
			return err
		}

		if req.Bill != nil {
			if !editingActions[action] {
				return fmt.Errorf("%w: %s does not accept bill changes", ErrPrecondition, action)
			}
			// Edits are judged against the state the caller saw
			if from != models.BillStatusRejected {
				seen := models.ContingentBill{Status: from}
				if err := checkEditable(&seen, actor); err != nil {
					return err
				}
			}
			req.Bill.applyTo(bill)
			if err := validateBill(bill); err != nil {
				return err
			}
		}

		now := s.now()
		if t.Stage != "" {
			bill.StageStamp(t.Stage).Set(actor.UserID, now, req.Remarks)
		}

		switch {
		case rejecting:
			reason := strings.TrimSpace(req.Reason)
			bill.RejectionReason = &reason
			bill.AmountLessDrawn = req.AmountLessDrawn
		case action == statemachine.ActionSubmit:
			bill.RejectionReason = nil
		}

		if err := recalculate(bill, recalcProtocol(bill)); err != nil {
			return err
		}

		if bill.Status == models.BillStatusApproved {
			bill.ApprovedAt = &now
			if err := s.budgetSvc.ApplyBill(ctx, bill, actor); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, bill); err != nil {
			return err
		}

		auditAction, ok := auditActions[action]
		if !ok {
			auditAction = models.AuditActionApprove
		}
		details := req.Remarks
		if rejecting {
			details = req.Reason
		}
		return s.auditSvc.Record(ctx, actor, AuditEntry{
			Action:     auditAction,
			Entity:     models.EntityBill,
			EntityID:   bill.ID,
			FromStatus: from,
			ToStatus:   bill.Status,
			Details:    details,
		})
	})
	if err != nil {
		return nil, translate(err)
	}

	logger.FromContext(ctx).Info("Bill transition applied",
		"bill_id", bill.ID, "action", action, "status", bill.Status, "user_id", actor.UserID)
	return bill, nil
}
