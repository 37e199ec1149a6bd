package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sjperalta/cbms-api/internal/models"
)

// Bill workflow actions
const (
	ActionSubmit                     = "submit"
	ActionAccountantApprove          = "accountant-approve"
	ActionAccountOfficerApprove      = "account-officer-approve"
	ActionAuditOfficerApprove        = "audit-officer-approve"
	ActionSeniorBudgetOfficerApprove = "senior-budget-officer-approve"
	ActionDirectorFinanceApprove     = "director-finance-approve"
	ActionReject                     = "reject"
	ActionReturn                     = "return"
	ActionSaveDraft                  = "save-draft"
	ActionFinalize                   = "finalize"
	// ActionDecline is the tri-signature rejection, open to signatories at any non-terminal state
	ActionDecline = "decline"
)

// AnyRole marks an action open to every authenticated caller
const AnyRole = "*"

var (
	// ErrTransitionNotAllowed is returned when an action is not valid from the bill's state
	ErrTransitionNotAllowed = errors.New("transition not allowed")
	// ErrRoleNotAllowed is returned when the caller's role does not own the current stage
	ErrRoleNotAllowed = errors.New("role not allowed for this stage")
)

// Transition is one row of the bill workflow table
type Transition struct {
	Action string
	From   string
	Role   string
	To     string
	// Stage names the approval stamp written by the action, empty when none
	Stage string
}

// pendingStages lists the chain in order with the role that owns each stage
var pendingStages = []struct {
	status string
	role   string
	stage  string
	action string
}{
	{models.BillStatusPendingAccountant, models.RoleAccountant, models.StageAccountant, ActionAccountantApprove},
	{models.BillStatusPendingAccountOfficer, models.RoleAccountOfficer, models.StageAccountOfficer, ActionAccountOfficerApprove},
	{models.BillStatusPendingAuditOfficer, models.RoleAuditOfficer, models.StageAuditOfficer, ActionAuditOfficerApprove},
	{models.BillStatusPendingSeniorBudgetOfficer, models.RoleSeniorBudgetOfficer, models.StageSeniorBudgetOfficer, ActionSeniorBudgetOfficerApprove},
	{models.BillStatusPendingDirectorFinance, models.RoleDirectorFinance, models.StageDirectorFinance, ActionDirectorFinanceApprove},
}

var billTransitions = buildBillTransitions()

func buildBillTransitions() map[string]map[string]Transition {
	table := map[string]map[string]Transition{}
	add := func(t Transition) {
		if table[t.From] == nil {
			table[t.From] = map[string]Transition{}
		}
		table[t.From][t.Action] = t
	}

	for _, from := range []string{models.BillStatusDraft, models.BillStatusRejected} {
		add(Transition{Action: ActionSubmit, From: from, Role: AnyRole, To: models.BillStatusPendingAccountant, Stage: models.StageSubmission})
		add(Transition{Action: ActionSaveDraft, From: from, Role: AnyRole, To: models.BillStatusDraft})
	}
	add(Transition{Action: ActionFinalize, From: models.BillStatusDraft, Role: AnyRole, To: models.BillStatusApproved})
	add(Transition{Action: ActionDecline, From: models.BillStatusDraft, Role: AnyRole, To: models.BillStatusRejected})

	for i, s := range pendingStages {
		next := models.BillStatusApproved
		if i+1 < len(pendingStages) {
			next = pendingStages[i+1].status
		}
		prev := models.BillStatusDraft
		if i > 0 {
			prev = pendingStages[i-1].status
		}

		add(Transition{Action: s.action, From: s.status, Role: s.role, To: next, Stage: s.stage})
		add(Transition{Action: ActionReject, From: s.status, Role: s.role, To: models.BillStatusRejected})
		add(Transition{Action: ActionReturn, From: s.status, Role: s.role, To: prev})
		add(Transition{Action: ActionFinalize, From: s.status, Role: AnyRole, To: models.BillStatusApproved})
		add(Transition{Action: ActionDecline, From: s.status, Role: AnyRole, To: models.BillStatusRejected})
	}
	return table
}

// LookupTransition returns the table row for (from, action)
func LookupTransition(from, action string) (Transition, bool) {
	t, ok := billTransitions[from][action]
	return t, ok
}

// StageRole returns the role that owns a pending status, or "" outside the chain
func StageRole(status string) string {
	for _, s := range pendingStages {
		if s.status == status {
			return s.role
		}
	}
	return ""
}

func billEvents() fsm.Events {
	// looplab/fsm keys transitions by (event, src); group rows sharing a destination
	type key struct{ action, to string }
	grouped := map[key][]string{}
	var order []key
	for from, actions := range billTransitions {
		for action, t := range actions {
			k := key{action, t.To}
			if _, seen := grouped[k]; !seen {
				order = append(order, k)
			}
			grouped[k] = append(grouped[k], from)
		}
	}

	events := make(fsm.Events, 0, len(order))
	for _, k := range order {
		events = append(events, fsm.EventDesc{Name: k.action, Src: grouped[k], Dst: k.to})
	}
	return events
}

// BillFSM wraps a contingent bill with its state machine
type BillFSM struct {
	bill *models.ContingentBill
	fsm  *fsm.FSM
}

// NewBillFSM creates a new bill state machine positioned at the bill's status
func NewBillFSM(bill *models.ContingentBill) *BillFSM {
	return &BillFSM{
		bill: bill,
		fsm:  fsm.NewFSM(bill.Status, billEvents(), fsm.Callbacks{}),
	}
}

// Fire applies action on behalf of role and updates the bill's status.
// The returned Transition tells the caller which stamp to write.
func (b *BillFSM) Fire(ctx context.Context, action, role string) (Transition, error) {
	t, ok := LookupTransition(b.bill.Status, action)
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s from %s", ErrTransitionNotAllowed, action, b.bill.Status)
	}
	if t.Role != AnyRole && t.Role != role {
		return Transition{}, fmt.Errorf("%w: %s requires %s", ErrRoleNotAllowed, action, t.Role)
	}

	if err := b.fsm.Event(ctx, action); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return Transition{}, fmt.Errorf("failed to %s bill: %w", action, err)
		}
	}

	b.bill.Status = b.fsm.Current()
	return t, nil
}

// Can checks if a transition is possible from the current state
func (b *BillFSM) Can(action string) bool {
	return b.fsm.Can(action)
}

// Current returns the current state
func (b *BillFSM) Current() string {
	return b.fsm.Current()
}
