package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sjperalta/cbms-api/internal/models"
)

const (
	ctxUserID = "userID"
	ctxRole   = "userRole"
	ctxClaims = "claims"
)

var (
	errNoToken      = errors.New("authorization header is required")
	errTokenFormat  = errors.New("invalid authorization header format")
	errTokenExpired = errors.New("token has expired")
	errTokenInvalid = errors.New("invalid token")
	errNoRole       = errors.New("token carries no role")
)

// Claims is the token body issued by the hospital identity service. Role decides
// which workflow stage or signature the caller may act on.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthOption adjusts how Auth finds the token
type AuthOption func(*authOptions)

type authOptions struct {
	queryToken bool
}

// AllowQueryToken also accepts ?token= when the Authorization header is absent.
// Use it only on download links opened outside the API client.
func AllowQueryToken() AuthOption {
	return func(o *authOptions) { o.queryToken = true }
}

// Auth rejects requests without a valid HMAC-signed token and stores the caller on the context
func Auth(jwtSecret string, opts ...AuthOption) gin.HandlerFunc {
	key := []byte(jwtSecret)
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(c *gin.Context) {
		raw, err := tokenFromRequest(c, o.queryToken)
		if err == nil {
			var claims *Claims
			if claims, err = parseClaims(raw, key); err == nil {
				c.Set(ctxUserID, claims.UserID)
				c.Set(ctxRole, claims.Role)
				c.Set(ctxClaims, claims)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	}
}

// tokenFromRequest reads the bearer header, falling back to ?token= when allowed
func tokenFromRequest(c *gin.Context, allowQuery bool) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if t := c.Query("token"); allowQuery && t != "" {
			return t, nil
		}
		return "", errNoToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errTokenFormat
	}
	return token, nil
}

func parseClaims(raw string, key []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, errTokenExpired
	case err != nil:
		return nil, errTokenInvalid
	case claims.Role == "":
		return nil, errNoRole
	}
	return claims, nil
}

// GetUserID returns the authenticated user id, or 0 outside Auth
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// GetUserRole returns the authenticated role, or "" outside Auth
func GetUserRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

// ActorFrom builds the workflow actor for the authenticated caller
func ActorFrom(c *gin.Context) models.Actor {
	return models.Actor{
		UserID:    GetUserID(c),
		Role:      GetUserRole(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// RequireRole lets the request through only for one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := allowed[GetUserRole(c)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Your role cannot access this resource",
			})
			return
		}
		c.Next()
	}
}
