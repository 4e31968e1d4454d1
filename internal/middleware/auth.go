package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hooshmetr/internal/models"
	"hooshmetr/internal/services"
)

// Context keys set by the auth middleware.
const (
	CtxUser   = "current_user"
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// UserResolver turns a token subject into a live account. Verification
// of signature and expiry proves possession, but the account must
// still exist and be active right now.
type UserResolver interface {
	GetByID(id int) (*models.User, error)
}

type AuthGate struct {
	tokens *services.TokenService
	users  UserResolver
}

func NewAuthGate(tokens *services.TokenService, users UserResolver) *AuthGate {
	return &AuthGate{tokens: tokens, users: users}
}

func bearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// resolve returns the live user for the bearer token, or nil when the
// token is absent, malformed, expired, forged, or points at a deleted
// user. Inactive accounts are reported separately.
func (g *AuthGate) resolve(c *gin.Context) (*models.User, bool) {
	tokenStr := bearerToken(c)
	if tokenStr == "" {
		return nil, false
	}
	claims, err := g.tokens.Parse(tokenStr)
	if err != nil {
		return nil, false
	}
	user, err := g.users.GetByID(claims.UserID)
	if err != nil || user == nil || user.Mobile != claims.Subject {
		return nil, false
	}
	if !user.IsActive {
		return user, false
	}
	return user, true
}

// RequireAuth aborts with 401 unless the request carries a valid token
// for a live account; inactive accounts get 403.
func (g *AuthGate) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := g.resolve(c)
		if !ok {
			if user != nil {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is deactivated"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing credentials"})
			return
		}
		c.Set(CtxUser, user)
		c.Set(CtxUserID, user.ID)
		c.Set(CtxRole, user.Role)
		c.Next()
	}
}

// OptionalAuth resolves the caller when possible and stays silent
// otherwise; endpoints that personalize output but remain public use
// this.
func (g *AuthGate) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := g.resolve(c); ok {
			c.Set(CtxUser, user)
			c.Set(CtxUserID, user.ID)
			c.Set(CtxRole, user.Role)
		}
		c.Next()
	}
}

// CurrentUser returns the user placed in the context by RequireAuth or
// OptionalAuth.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CtxUser)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
