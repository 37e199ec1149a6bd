package statemachine

import (
	"context"
	"testing"

	"github.com/sjperalta/cbms-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillFSM_FullChain(t *testing.T) {
	ctx := context.Background()
	bill := &models.ContingentBill{Status: models.BillStatusDraft}
	m := NewBillFSM(bill)

	steps := []struct {
		action string
		role   string
		want   string
		stage  string
	}{
		{ActionSubmit, models.RoleClerk, models.BillStatusPendingAccountant, models.StageSubmission},
		{ActionAccountantApprove, models.RoleAccountant, models.BillStatusPendingAccountOfficer, models.StageAccountant},
		{ActionAccountOfficerApprove, models.RoleAccountOfficer, models.BillStatusPendingAuditOfficer, models.StageAccountOfficer},
		{ActionAuditOfficerApprove, models.RoleAuditOfficer, models.BillStatusPendingSeniorBudgetOfficer, models.StageAuditOfficer},
		{ActionSeniorBudgetOfficerApprove, models.RoleSeniorBudgetOfficer, models.BillStatusPendingDirectorFinance, models.StageSeniorBudgetOfficer},
		{ActionDirectorFinanceApprove, models.RoleDirectorFinance, models.BillStatusApproved, models.StageDirectorFinance},
	}

	for _, s := range steps {
		tr, err := m.Fire(ctx, s.action, s.role)
		require.NoError(t, err, s.action)
		assert.Equal(t, s.want, bill.Status)
		assert.Equal(t, s.stage, tr.Stage)
	}

	_, err := m.Fire(ctx, ActionReject, models.RoleDirectorFinance)
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
}

func TestBillFSM_WrongRole(t *testing.T) {
	bill := &models.ContingentBill{Status: models.BillStatusPendingAuditOfficer}
	m := NewBillFSM(bill)

	_, err := m.Fire(context.Background(), ActionAuditOfficerApprove, models.RoleAccountant)
	assert.ErrorIs(t, err, ErrRoleNotAllowed)
	assert.Equal(t, models.BillStatusPendingAuditOfficer, bill.Status)

	_, err = m.Fire(context.Background(), ActionReject, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrRoleNotAllowed)
}

func TestBillFSM_WrongState(t *testing.T) {
	bill := &models.ContingentBill{Status: models.BillStatusDraft}
	m := NewBillFSM(bill)

	_, err := m.Fire(context.Background(), ActionAccountantApprove, models.RoleAccountant)
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
	assert.Equal(t, models.BillStatusDraft, bill.Status)
}

func TestBillFSM_ReturnGoesToPredecessor(t *testing.T) {
	cases := map[string]string{
		models.BillStatusPendingAccountant:          models.BillStatusDraft,
		models.BillStatusPendingAccountOfficer:      models.BillStatusPendingAccountant,
		models.BillStatusPendingAuditOfficer:        models.BillStatusPendingAccountOfficer,
		models.BillStatusPendingSeniorBudgetOfficer: models.BillStatusPendingAuditOfficer,
		models.BillStatusPendingDirectorFinance:     models.BillStatusPendingSeniorBudgetOfficer,
	}

	for from, want := range cases {
		bill := &models.ContingentBill{Status: from}
		_, err := NewBillFSM(bill).Fire(context.Background(), ActionReturn, StageRole(from))
		require.NoError(t, err, from)
		assert.Equal(t, want, bill.Status, from)
	}
}

func TestBillFSM_RejectAndResubmit(t *testing.T) {
	ctx := context.Background()
	bill := &models.ContingentBill{Status: models.BillStatusPendingAccountOfficer}
	m := NewBillFSM(bill)

	_, err := m.Fire(ctx, ActionReject, models.RoleAccountOfficer)
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusRejected, bill.Status)

	_, err = m.Fire(ctx, ActionSaveDraft, models.RoleClerk)
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusDraft, bill.Status)

	// Draft to Draft is a no-op, not an error
	_, err = m.Fire(ctx, ActionSaveDraft, models.RoleClerk)
	require.NoError(t, err)

	_, err = m.Fire(ctx, ActionSubmit, models.RoleClerk)
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusPendingAccountant, bill.Status)
}

func TestBillFSM_Finalize(t *testing.T) {
	for _, from := range []string{models.BillStatusDraft, models.BillStatusPendingAuditOfficer} {
		bill := &models.ContingentBill{Status: from}
		_, err := NewBillFSM(bill).Fire(context.Background(), ActionFinalize, models.RolePreAudit)
		require.NoError(t, err)
		assert.Equal(t, models.BillStatusApproved, bill.Status)
	}

	bill := &models.ContingentBill{Status: models.BillStatusRejected}
	_, err := NewBillFSM(bill).Fire(context.Background(), ActionFinalize, models.RolePreAudit)
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
}
