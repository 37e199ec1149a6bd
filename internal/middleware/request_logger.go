package middleware

import (
	"log/slog"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sjperalta/cbms-api/pkg/logger"
)

// RequestIDHeader carries the id that ties a request's log lines together
const RequestIDHeader = "X-Request-ID"

const healthPath = "/api/v1/health"

// RequestLogger tags each request with an id, hands handlers and GORM a
// request-scoped logger through the context, and writes one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		reqLogger := logger.Log.With(slog.String("request_id", requestID))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLogger))

		c.Next()

		if c.Request.URL.Path == healthPath {
			return
		}

		status := c.Writer.Status()
		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", loggedPath(c.Request.URL)),
			slog.Int("status", status),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Request.UserAgent()),
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			attrs = append(attrs, slog.String("error", msg))
		}
		if id := GetUserID(c); id != 0 {
			attrs = append(attrs, slog.Uint64("user_id", uint64(id)), slog.String("role", GetUserRole(c)))
		}
		if notify := c.Writer.Header().Get(EprocNotifyHeader); notify != "" {
			attrs = append(attrs, slog.String("eproc_notify", notify))
		}

		switch {
		case status >= 500:
			reqLogger.Error("Incoming request", attrs...)
		case status >= 400:
			reqLogger.Warn("Incoming request", attrs...)
		default:
			reqLogger.Info("Incoming request", attrs...)
		}
	}
}

// loggedPath renders the request path with any ?token= credential masked
func loggedPath(u *url.URL) string {
	if u.RawQuery == "" {
		return u.Path
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "[redacted]")
	}
	return u.Path + "?" + q.Encode()
}
