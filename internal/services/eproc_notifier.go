package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/sjperalta/cbms-api/internal/eproc"
	"github.com/sjperalta/cbms-api/internal/models"
	"github.com/sjperalta/cbms-api/internal/repository"
	"github.com/sjperalta/cbms-api/pkg/logger"
)

// AwardFinalizer reports a paid award to the e-procurement portal
type AwardFinalizer interface {
	Enabled() bool
	FinalizeAward(ctx context.Context, req eproc.FinalizeRequest) (*eproc.Result, error)
}

// EprocNotifier tells the portal that a cheque was approved. It never fails the caller:
// every attempt ends as a recorded outcome.
type EprocNotifier struct {
	client       AwardFinalizer
	scheduleRepo repository.ScheduleRepository
	billRepo     repository.BillRepository
	repo         repository.EprocNotificationRepository
}

func NewEprocNotifier(
	client AwardFinalizer,
	scheduleRepo repository.ScheduleRepository,
	billRepo repository.BillRepository,
	repo repository.EprocNotificationRepository,
) *EprocNotifier {
	return &EprocNotifier{
		client:       client,
		scheduleRepo: scheduleRepo,
		billRepo:     billRepo,
		repo:         repo,
	}
}

// linkage returns the tender and LOA of the schedule's first bill
func (n *EprocNotifier) linkage(ctx context.Context, cheque *models.AsaanCheque) (string, string, error) {
	schedule, err := n.scheduleRepo.FindByID(ctx, cheque.ScheduleOfPaymentID)
	if err != nil {
		return "", "", err
	}
	bill, err := n.billRepo.FindByID(ctx, schedule.ContingentBillID)
	if err != nil {
		return "", "", err
	}

	var tenderID, loaNumber string
	if bill.EprocTenderID != nil {
		tenderID = *bill.EprocTenderID
	}
	if bill.LOANumber != nil {
		loaNumber = *bill.LOANumber
	}
	return tenderID, loaNumber, nil
}

// Notify runs the finalize call for a freshly approved cheque and returns the
// X-Eproc-Notify value describing the outcome.
func (n *EprocNotifier) Notify(ctx context.Context, cheque *models.AsaanCheque) string {
	log := logger.FromContext(ctx).With("cheque_id", cheque.ID)
	record := &models.EprocNotification{
		AsaanChequeID:  cheque.ID,
		IdempotencyKey: eproc.IdempotencyKey(cheque.ID),
	}

	tenderID, loaNumber, err := n.linkage(ctx, cheque)
	record.TenderID, record.LOANumber = tenderID, loaNumber

	var header string
	switch {
	case err != nil:
		record.Outcome = models.EprocOutcomeError
		record.Detail = fmt.Sprintf("load tender linkage: %v", err)
		header = models.EprocOutcomeError
	case n.client == nil || !n.client.Enabled():
		record.Outcome = models.EprocOutcomeSkipped
		record.Detail = "integration not configured"
		header = models.EprocOutcomeSkipped
	case tenderID == "" || loaNumber == "":
		record.Outcome = models.EprocOutcomeSkipped
		record.Detail = "bill has no tender id or LOA number"
		header = models.EprocOutcomeSkipped
	default:
		header, err = n.finalize(ctx, cheque, record)
	}

	switch record.Outcome {
	case models.EprocOutcomeOK:
		log.Info("E-procurement award finalized", "tender_id", tenderID, "loa_number", loaNumber)
	case models.EprocOutcomeSkipped:
		log.Info("E-procurement finalize skipped", "reason", record.Detail)
	default:
		log.Error("E-procurement finalize failed", "tender_id", tenderID, "outcome", header, "error", record.Detail)
		captureEprocFailure(ctx, cheque, tenderID, err)
	}

	if err := n.repo.Create(ctx, record); err != nil {
		log.Error("Failed to record e-procurement notification", "error", err)
	}
	return header
}

func (n *EprocNotifier) finalize(ctx context.Context, cheque *models.AsaanCheque, record *models.EprocNotification) (string, error) {
	req := eproc.NewFinalizeRequest(record.TenderID, record.LOANumber, cheque.ID, cheque.Amount)
	res, err := n.client.FinalizeAward(ctx, req)
	if err == nil {
		record.Outcome = models.EprocOutcomeOK
		record.StatusCode = res.StatusCode
		return models.EprocOutcomeOK, nil
	}

	record.Detail = err.Error()
	var statusErr *eproc.StatusError
	if errors.As(err, &statusErr) {
		record.Outcome = models.EprocOutcomeFailed
		record.StatusCode = statusErr.StatusCode
		return fmt.Sprintf("%s:%d", models.EprocOutcomeFailed, statusErr.StatusCode), err
	}
	record.Outcome = models.EprocOutcomeError
	return models.EprocOutcomeError, err
}

func captureEprocFailure(ctx context.Context, cheque *models.AsaanCheque, tenderID string, err error) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", "eproc")
		scope.SetTag("cheque_id", fmt.Sprint(cheque.ID))
		scope.SetTag("tender_id", tenderID)
		hub.CaptureException(err)
	})
}
