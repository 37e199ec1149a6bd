package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sjperalta/cbms-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims Claims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(), Auth(testSecret))
	r.GET("/me", func(c *gin.Context) {
		a := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": a.UserID, "role": a.Role})
	})
	r.PUT("/budgets", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func newDownloadRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/advice", Auth(testSecret, AllowQueryToken()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/me", Auth(testSecret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuth(t *testing.T) {
	valid := Claims{
		UserID: 7,
		Role:   models.RoleAccountant,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	roleless := valid
	roleless.Role = ""

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"valid bearer", "Bearer " + signToken(t, valid, testSecret), "", http.StatusOK},
		{"query token refused", "", "?token=" + signToken(t, valid, testSecret), http.StatusUnauthorized},
		{"missing", "", "", http.StatusUnauthorized},
		{"bad format", "Token abc", "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, valid, "other"), "", http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, expired, testSecret), "", http.StatusUnauthorized},
		{"no role", "Bearer " + signToken(t, roleless, testSecret), "", http.StatusUnauthorized},
	}

	r := newRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newRouter()

	for role, status := range map[string]int{
		models.RoleAdmin:      http.StatusNoContent,
		models.RoleAccountant: http.StatusForbidden,
	} {
		token := signToken(t, Claims{UserID: 1, Role: role}, testSecret)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/budgets", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, role)
	}
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	r := newRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestCORSExposesNotifyHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://cbms.example.org"}))
	r.GET("/ping", func(c *gin.Context) {
		c.Header(EprocNotifyHeader, "ok")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://cbms.example.org")
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://cbms.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), EprocNotifyHeader)
}

func TestLoggedPathMasksToken(t *testing.T) {
	u, err := url.Parse("/api/v1/asaan-cheques/4/advice?token=secret.jwt.value&inline=1")
	require.NoError(t, err)

	got := loggedPath(u)
	assert.NotContains(t, got, "secret.jwt.value")
	assert.Contains(t, got, "inline=1")
	assert.Equal(t, "/api/v1/health", loggedPath(&url.URL{Path: "/api/v1/health"}))
}

func TestAuthQueryTokenOnlyWhereAllowed(t *testing.T) {
	token := signToken(t, Claims{UserID: 3, Role: models.RoleDirectorFinance}, testSecret)
	r := newDownloadRouter()

	for path, status := range map[string]int{
		"/advice?token=" + token: http.StatusOK,
		"/me?token=" + token:     http.StatusUnauthorized,
		"/advice?token=garbage":  http.StatusUnauthorized,
		"/advice":                http.StatusUnauthorized,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, w.Code, path)
	}
}
