package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sjperalta/cbms-api/internal/eproc"
	"github.com/sjperalta/cbms-api/internal/models"
	"github.com/sjperalta/cbms-api/internal/repository"
	"gorm.io/gorm"
)

// fakeTx runs the unit of work inline
type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeBillRepo struct {
	repository.BillRepository
	mu     sync.Mutex
	bills  map[uint]models.ContingentBill
	nextID uint
}

func newFakeBillRepo() *fakeBillRepo {
	return &fakeBillRepo{bills: map[uint]models.ContingentBill{}}
}

func (r *fakeBillRepo) FindByID(ctx context.Context, id uint) (*models.ContingentBill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (r *fakeBillRepo) FindByIDs(ctx context.Context, ids []uint) ([]models.ContingentBill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ContingentBill
	for _, id := range ids {
		if b, ok := r.bills[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBillRepo) FindByEprocOrder(ctx context.Context, orderID string) (*models.ContingentBill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bills {
		if b.EprocOrderID != nil && *b.EprocOrderID == orderID {
			return &b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBillRepo) Create(ctx context.Context, bill *models.ContingentBill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	bill.ID = r.nextID
	r.bills[bill.ID] = *bill
	return nil
}

func (r *fakeBillRepo) Update(ctx context.Context, bill *models.ContingentBill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bills[bill.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != bill.Version {
		return repository.ErrStaleVersion
	}
	bill.Version++
	r.bills[bill.ID] = *bill
	return nil
}

func (r *fakeBillRepo) NextSequence(ctx context.Context, day time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := strings.TrimSuffix(models.FormatBillNumber(day, 0), "0000")
	n := 0
	for _, b := range r.bills {
		if strings.HasPrefix(b.BillNumber, prefix) {
			n++
		}
	}
	return n + 1, nil
}

// put stores a bill as-is, for arranging test state
func (r *fakeBillRepo) put(b models.ContingentBill) *models.ContingentBill {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == 0 {
		r.nextID++
		b.ID = r.nextID
	}
	if b.Version == 0 {
		b.Version = 1
	}
	r.bills[b.ID] = b
	return &b
}

type fakeBudgetRepo struct {
	repository.BudgetRepository
	entries  map[string]models.BudgetEntry
	expenses map[uint]models.ExpenseHistory
	nextID   uint
}

func newFakeBudgetRepo() *fakeBudgetRepo {
	return &fakeBudgetRepo{entries: map[string]models.BudgetEntry{}, expenses: map[uint]models.ExpenseHistory{}}
}

func head(objectCode, fiscalYear string) string { return objectCode + "/" + fiscalYear }

func (r *fakeBudgetRepo) FindByHead(ctx context.Context, objectCode, fiscalYear string) (*models.BudgetEntry, error) {
	e, ok := r.entries[head(objectCode, fiscalYear)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (r *fakeBudgetRepo) Create(ctx context.Context, entry *models.BudgetEntry) error {
	r.nextID++
	entry.ID = r.nextID
	r.entries[head(entry.ObjectCode, entry.FiscalYear)] = *entry
	return nil
}

func (r *fakeBudgetRepo) Update(ctx context.Context, entry *models.BudgetEntry) error {
	key := head(entry.ObjectCode, entry.FiscalYear)
	if r.entries[key].Version != entry.Version {
		return repository.ErrStaleVersion
	}
	entry.Version++
	r.entries[key] = *entry
	return nil
}

func (r *fakeBudgetRepo) CreateExpense(ctx context.Context, expense *models.ExpenseHistory) error {
	if _, ok := r.expenses[expense.BillID]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.expenses[expense.BillID] = *expense
	return nil
}

func (r *fakeBudgetRepo) ExpenseExists(ctx context.Context, billID uint) (bool, error) {
	_, ok := r.expenses[billID]
	return ok, nil
}

type fakeScheduleRepo struct {
	repository.ScheduleRepository
	bills     *fakeBillRepo
	schedules map[uint]models.ScheduleOfPayment
	links     map[uint]uint // bill id -> schedule id
	nextID    uint
}

func newFakeScheduleRepo(bills *fakeBillRepo) *fakeScheduleRepo {
	return &fakeScheduleRepo{bills: bills, schedules: map[uint]models.ScheduleOfPayment{}, links: map[uint]uint{}}
}

func (r *fakeScheduleRepo) FindByID(ctx context.Context, id uint) (*models.ScheduleOfPayment, error) {
	s, ok := r.schedules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *fakeScheduleRepo) FindByIDWithBills(ctx context.Context, id uint) (*models.ScheduleOfPayment, error) {
	s, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for billID, scheduleID := range r.links {
		if scheduleID == id {
			b, _ := r.bills.FindByID(ctx, billID)
			s.Bills = append(s.Bills, *b)
		}
	}
	return s, nil
}

func (r *fakeScheduleRepo) Create(ctx context.Context, schedule *models.ScheduleOfPayment, billIDs []uint) error {
	for _, id := range billIDs {
		if _, ok := r.links[id]; ok {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	schedule.ID = r.nextID
	r.schedules[schedule.ID] = *schedule
	for _, id := range billIDs {
		r.links[id] = schedule.ID
	}
	return nil
}

func (r *fakeScheduleRepo) Update(ctx context.Context, schedule *models.ScheduleOfPayment) error {
	if r.schedules[schedule.ID].Version != schedule.Version {
		return repository.ErrStaleVersion
	}
	schedule.Version++
	stored := *schedule
	stored.Bills = nil
	r.schedules[schedule.ID] = stored
	return nil
}

func (r *fakeScheduleRepo) BatchedBillIDs(ctx context.Context, billIDs []uint) ([]uint, error) {
	var out []uint
	for _, id := range billIDs {
		if _, ok := r.links[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeChequeRepo struct {
	repository.ChequeRepository
	cheques map[uint]models.AsaanCheque
	nextID  uint
}

func newFakeChequeRepo() *fakeChequeRepo {
	return &fakeChequeRepo{cheques: map[uint]models.AsaanCheque{}}
}

func (r *fakeChequeRepo) FindByID(ctx context.Context, id uint) (*models.AsaanCheque, error) {
	c, ok := r.cheques[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *fakeChequeRepo) Create(ctx context.Context, cheque *models.AsaanCheque) error {
	for _, c := range r.cheques {
		if c.ScheduleOfPaymentID == cheque.ScheduleOfPaymentID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	cheque.ID = r.nextID
	r.cheques[cheque.ID] = *cheque
	return nil
}

func (r *fakeChequeRepo) Update(ctx context.Context, cheque *models.AsaanCheque) error {
	if r.cheques[cheque.ID].Version != cheque.Version {
		return repository.ErrStaleVersion
	}
	cheque.Version++
	r.cheques[cheque.ID] = *cheque
	return nil
}

type fakeEprocRepo struct {
	repository.EprocNotificationRepository
	records []models.EprocNotification
}

func (r *fakeEprocRepo) Create(ctx context.Context, n *models.EprocNotification) error {
	r.records = append(r.records, *n)
	return nil
}

func (r *fakeEprocRepo) ListByCheque(ctx context.Context, chequeID uint) ([]models.EprocNotification, error) {
	var out []models.EprocNotification
	for _, n := range r.records {
		if n.AsaanChequeID == chequeID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	repository.AuditRepository
	logs []models.AuditLog
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(ctx context.Context, entity string, entityID uint) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for _, l := range r.logs {
		if l.Entity == entity && l.EntityID == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakePortal struct {
	enabled bool
	calls   []eproc.FinalizeRequest
	result  *eproc.Result
	err     error
	orders  []eproc.Order
}

func (p *fakePortal) Enabled() bool { return p.enabled }

func (p *fakePortal) FinalizeAward(ctx context.Context, req eproc.FinalizeRequest) (*eproc.Result, error) {
	p.calls = append(p.calls, req)
	return p.result, p.err
}

func (p *fakePortal) SearchOrders(ctx context.Context, query string) ([]eproc.Order, error) {
	return p.orders, p.err
}

// harness wires every service over the fakes
type harness struct {
	bills     *fakeBillRepo
	budgets   *fakeBudgetRepo
	schedules *fakeScheduleRepo
	cheques   *fakeChequeRepo
	eprocs    *fakeEprocRepo
	audits    *fakeAuditRepo
	portal    *fakePortal

	budgetSvc   *BudgetService
	billSvc     *BillService
	scheduleSvc *ScheduleService
	chequeSvc   *ChequeService
}

var fixedNow = time.Date(2025, 3, 7, 10, 30, 0, 0, time.UTC)

func newHarness() *harness {
	h := &harness{
		bills:   newFakeBillRepo(),
		budgets: newFakeBudgetRepo(),
		cheques: newFakeChequeRepo(),
		eprocs:  &fakeEprocRepo{},
		audits:  &fakeAuditRepo{},
		portal:  &fakePortal{enabled: true, result: &eproc.Result{StatusCode: 200}},
	}
	h.schedules = newFakeScheduleRepo(h.bills)

	clock := func() time.Time { return fixedNow }
	auditSvc := NewAuditService(h.audits)

	h.budgetSvc = NewBudgetService(fakeTx{}, h.budgets, auditSvc)
	h.budgetSvc.now = clock

	h.billSvc = NewBillService(fakeTx{}, h.bills, h.budgetSvc, auditSvc, h.portal, true)
	h.billSvc.now = clock

	h.scheduleSvc = NewScheduleService(fakeTx{}, h.schedules, h.bills, h.cheques, auditSvc, Institution{
		DDOName: "Medical Superintendent, District Hospital", CostCentre: "LE4321", GrantNumber: "PC12037",
	})
	h.scheduleSvc.now = clock

	notifier := NewEprocNotifier(h.portal, h.schedules, h.bills, h.eprocs)
	h.chequeSvc = NewChequeService(fakeTx{}, h.cheques, h.schedules, h.eprocs, notifier, auditSvc)
	h.chequeSvc.now = clock
	return h
}

func actor(role string) models.Actor {
	return models.Actor{UserID: 10, Role: role, IP: "127.0.0.1"}
}
