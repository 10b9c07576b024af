package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opencampus/sims-api/internal/models"
)

// SessionCookieName is the cookie carrying the access token for browser
// navigation, used when no Authorization header is present.
const SessionCookieName = "sims_session"

type guardTokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

type guardRoleLookup interface {
	FindRoleByID(ctx context.Context, id string) (models.UserRole, error)
}

// GuardConfig configures the role-scoped route guard.
type GuardConfig struct {
	// DevBypassAuth skips all checks. Forced off in production by config.Load.
	DevBypassAuth bool
	Logger        *zap.Logger
}

// Guard protects the role-prefixed dashboard routes. Unauthenticated
// requests are redirected to the landing page, authenticated requests whose
// role does not match the route prefix are redirected to their own
// dashboard. The role is re-read from the database on every request so a
// role change takes effect immediately, not at the next token refresh.
func Guard(validator guardTokenValidator, roles guardRoleLookup, requiredRole models.UserRole, cfg GuardConfig) gin.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if cfg.DevBypassAuth {
			c.Next()
			return
		}

		token := sessionToken(c)
		if token == "" {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}

		role, err := roles.FindRoleByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.Warn("guard role lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}

		if role != requiredRole {
			c.Redirect(http.StatusSeeOther, role.DashboardPath())
			c.Abort()
			return
		}

		claims.Role = role
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}
