package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/cbms-api/internal/config"
	"github.com/sjperalta/cbms-api/internal/eproc"
	"github.com/sjperalta/cbms-api/internal/middleware"
	"github.com/sjperalta/cbms-api/internal/models"
	"github.com/sjperalta/cbms-api/internal/repository"
	"github.com/sjperalta/cbms-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "handler-test-secret"

// portalStub records LOA finalize callbacks
type portalStub struct {
	mu       sync.Mutex
	paths    []string
	keys     []string
	payloads []eproc.FinalizeRequest
}

func (p *portalStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var req eproc.FinalizeRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	p.paths = append(p.paths, r.URL.Path)
	p.keys = append(p.keys, r.Header.Get("X-Callback-Key"))
	p.payloads = append(p.payloads, req)
	w.WriteHeader(http.StatusOK)
}

type testAPI struct {
	router *gin.Engine
	portal *portalStub
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	portal := &portalStub{}
	srv := httptest.NewServer(portal)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		JWTSecret:            testSecret,
		EprocBaseURL:         srv.URL,
		EprocCallbackKey:     "callback-key",
		LegacyTriSignEnabled: true,
		DDOName:              "Director Finance, Teaching Hospital",
		CostCentre:           "LO4587",
		GrantNumber:          "PC22036",
	}
	client := eproc.NewClient(eproc.Config{BaseURL: cfg.EprocBaseURL, CallbackKey: cfg.EprocCallbackKey})
	svcs := services.NewServices(repository.NewRepositories(db), cfg, client)

	router := gin.New()
	router.Use(middleware.RequestLogger())
	NewHandlers(svcs).RegisterRoutes(router.Group("/api/v1"), testSecret)
	return &testAPI{router: router, portal: portal}
}

func (a *testAPI) do(t *testing.T, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{UserID: 3, Role: role}).
			SignedString([]byte(testSecret))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type idStatus struct {
	ID     uint            `json:"id"`
	Status string          `json:"status"`
	Net    decimal.Decimal `json:"net_payment"`
	Legacy string          `json:"legacy_status"`
	Amount decimal.Decimal `json:"amount"`
	Total  decimal.Decimal `json:"net_amount"`
}

func decodeField(t *testing.T, w *httptest.ResponseRecorder, field string) idStatus {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	var out idStatus
	require.NoError(t, json.Unmarshal(body[field], &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/contingent-bills", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBillToChequeLifecycle(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPut, "/budgets", models.RoleAccountant, gin.H{"object_code": "A03970", "fiscal_year": "2025-2026"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPut, "/budgets", models.RoleAdmin, gin.H{
		"object_code": "A03970", "fiscal_year": "2025-2026", "release_tranche_1": "500000",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	order := gin.H{
		"id": "PO-1", "tenderId": "T-9", "loaNumber": "LOA-1", "supplierName": "Medi Supplies",
		"objectCode": "A03970", "fiscalYear": "2025-2026",
		"amount": 100000, "stampDuty": 500, "gst": 1700, "incomeTax": 1000, "laborDuty": 0,
	}
	w = api.do(t, http.MethodPost, "/contingent-bills/from-eproc", models.RoleClerk, order)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decodeField(t, w, "bill")
	assert.True(t, decimal.NewFromInt(96800).Equal(first.Net))

	w = api.do(t, http.MethodPost, "/contingent-bills/from-eproc", models.RoleClerk, order)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPost, "/contingent-bills", models.RoleClerk, gin.H{"bill": gin.H{
		"supplier_name": "Lab Traders", "object_code": "A03970", "fiscal_year": "2025-2026", "amount_of_bill": "50000",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	second := decodeField(t, w, "bill")

	// First bill through the tri-signature protocol
	for sig, role := range map[string]string{
		models.SignatureMedicalSuperintendent: models.RoleMedicalSuperintendent,
		models.SignatureExecutiveDirector:     models.RoleExecutiveDirector,
		models.SignaturePreAudit:              models.RolePreAudit,
	} {
		w = api.do(t, http.MethodPost, fmt.Sprintf("/contingent-bills/%d/approve", first.ID), role, gin.H{"approvalType": sig})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	bill := decodeField(t, w, "bill")
	assert.Equal(t, models.BillStatusApproved, bill.Status)
	assert.Equal(t, models.LegacyStatusApproved, bill.Legacy)

	// Second bill through the six-stage chain
	w = api.do(t, http.MethodPost, fmt.Sprintf("/workflow/bills/%d/accountant-approve", second.ID), models.RoleAccountant, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "draft must be submitted first")
	w = api.do(t, http.MethodPost, fmt.Sprintf("/workflow/bills/%d/finalize", second.ID), models.RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	steps := []struct{ action, role string }{
		{"submit-to-account-officer", models.RoleClerk},
		{"accountant-approve", models.RoleAccountant},
		{"account-officer-approve", models.RoleAccountOfficer},
		{"audit-officer-approve", models.RoleAuditOfficer},
		{"senior-budget-officer-approve", models.RoleSeniorBudgetOfficer},
		{"director-finance-approve", models.RoleDirectorFinance},
	}
	for i, step := range steps {
		if i == 2 {
			w = api.do(t, http.MethodPost, fmt.Sprintf("/workflow/bills/%d/%s", second.ID, step.action), models.RoleClerk, nil)
			assert.Equal(t, http.StatusForbidden, w.Code)
		}
		w = api.do(t, http.MethodPost, fmt.Sprintf("/workflow/bills/%d/%s", second.ID, step.action), step.role,
			gin.H{"remarks": step.action})
		require.Equal(t, http.StatusOK, w.Code, step.action+": "+w.Body.String())
	}
	assert.Equal(t, models.BillStatusApproved, decodeField(t, w, "bill").Status)

	w = api.do(t, http.MethodGet, "/budgets/A03970/2025-2026/expenses", models.RoleAccountant, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var expenses struct {
		Expenses []models.ExpenseHistory `json:"expenses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &expenses))
	assert.Len(t, expenses.Expenses, 2)

	// Batch and the six schedule approvals
	w = api.do(t, http.MethodPost, "/schedule-of-payments/batch", models.RoleAccountant, gin.H{"billIds": []uint{first.ID, second.ID}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	schedule := decodeField(t, w, "schedule")
	assert.True(t, decimal.NewFromInt(146800).Equal(schedule.Total))

	w = api.do(t, http.MethodPost, "/schedule-of-payments/batch", models.RoleAccountant, gin.H{"billIds": []uint{second.ID}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, approvalType := range models.ScheduleApprovalOrder {
		role, _ := models.ScheduleApprovalRole(approvalType)
		w = api.do(t, http.MethodPost, fmt.Sprintf("/schedule-of-payments/%d/approve", schedule.ID), role, gin.H{"approvalType": approvalType})
		require.Equal(t, http.StatusOK, w.Code, approvalType+": "+w.Body.String())
	}
	cheque := decodeField(t, w, "cheque")
	assert.Equal(t, models.ChequeStatusPending, cheque.Status)
	assert.True(t, decimal.NewFromInt(146800).Equal(cheque.Amount))

	// Cheque signatures, notification and forwarding
	chequePath := fmt.Sprintf("/asaan-cheques/%d", cheque.ID)
	w = api.do(t, http.MethodPost, chequePath+"/forward", models.RoleAccountant, gin.H{"bankDetails": "NBP", "referenceNumber": "R-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "pending cheques cannot be forwarded")

	w = api.do(t, http.MethodPost, chequePath+"/approve", models.RoleExecutiveDirector, gin.H{"approvalType": models.ChequeApprovalExecutiveDirector})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, w.Header().Get(middleware.EprocNotifyHeader))

	w = api.do(t, http.MethodPost, chequePath+"/approve", models.RoleDirectorFinance, gin.H{"approvalType": models.ChequeApprovalDirectorFinance})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ok", w.Header().Get(middleware.EprocNotifyHeader))
	assert.Equal(t, models.ChequeStatusApproved, decodeField(t, w, "cheque").Status)

	require.Len(t, api.portal.paths, 1)
	assert.Equal(t, "/api/tenders/T-9/loa/finalize", api.portal.paths[0])
	assert.Equal(t, "callback-key", api.portal.keys[0])
	assert.Equal(t, "LOA-1", api.portal.payloads[0].LOANumber)

	w = api.do(t, http.MethodGet, chequePath+"/notifications", models.RoleAccountant, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"ok"`)

	w = api.do(t, http.MethodPost, chequePath+"/forward", models.RoleAccountant, gin.H{
		"bankDetails": "National Bank, Mall Road", "referenceNumber": "R-1", "certificateConfirmed": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.ChequeStatusForwarded, decodeField(t, w, "cheque").Status)

	w = api.do(t, http.MethodGet, chequePath+"/advice", models.RoleAccountant, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bank_advice_AC-")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{UserID: 3, Role: models.RoleAccountant}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)
	for path, status := range map[string]int{
		chequePath + "/advice?token=" + token: http.StatusOK,
		chequePath + "?token=" + token:        http.StatusUnauthorized,
	} {
		w = httptest.NewRecorder()
		api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1"+path, nil))
		assert.Equal(t, status, w.Code, path)
	}
}

func TestErrorMapping(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/contingent-bills/999", models.RoleClerk, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/contingent-bills/abc", models.RoleClerk, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/contingent-bills", models.RoleClerk, gin.H{"amount_of_bill": "100"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "supplier name is required")

	w = api.do(t, http.MethodPost, "/asaan-cheques/1/approve", models.RoleClerk, gin.H{"approvalType": models.ChequeApprovalDirectorFinance})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodGet, "/eproc/orders", models.RoleClerk, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
