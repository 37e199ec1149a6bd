package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sjperalta/cbms-api/internal/models"
)

// ChequeFSM wraps an Asaan cheque with its state machine
type ChequeFSM struct {
	cheque *models.AsaanCheque
	fsm    *fsm.FSM
}

// NewChequeFSM creates a new cheque state machine
func NewChequeFSM(cheque *models.AsaanCheque) *ChequeFSM {
	cfsm := &ChequeFSM{
		cheque: cheque,
	}

	cfsm.fsm = fsm.NewFSM(
		cheque.Status,
		fsm.Events{
			// pending → approved (both signatures present)
			{Name: "approve", Src: []string{models.ChequeStatusPending}, Dst: models.ChequeStatusApproved},

			// approved → forwarded
			{Name: "forward", Src: []string{models.ChequeStatusApproved}, Dst: models.ChequeStatusForwarded},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

// Approve transitions the cheque to approved once DF and ED have signed
func (c *ChequeFSM) Approve(ctx context.Context) error {
	if !c.cheque.BothSigned() {
		return fmt.Errorf("%w: cheque needs both signatures", ErrTransitionNotAllowed)
	}

	if err := c.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("%w: cannot approve cheque in state %s", ErrTransitionNotAllowed, c.cheque.Status)
	}

	c.cheque.Status = c.fsm.Current()
	return nil
}

// Forward transitions the cheque to forwarded
func (c *ChequeFSM) Forward(ctx context.Context) error {
	if !c.cheque.MayForward() {
		return fmt.Errorf("%w: cheque cannot be forwarded in state %s", ErrTransitionNotAllowed, c.cheque.Status)
	}

	if err := c.fsm.Event(ctx, "forward"); err != nil {
		return fmt.Errorf("failed to forward cheque: %w", err)
	}

	c.cheque.Status = c.fsm.Current()
	return nil
}

// Current returns the current state
func (c *ChequeFSM) Current() string {
	return c.fsm.Current()
}

// Can checks if a transition is possible
func (c *ChequeFSM) Can(event string) bool {
	return c.fsm.Can(event)
}
