package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tokengate/internal/authority"
	"github.com/orris-inc/tokengate/internal/interfaces/http/webctx"
	apperrors "github.com/orris-inc/tokengate/internal/shared/errors"
	"github.com/orris-inc/tokengate/internal/shared/logger"
	"github.com/orris-inc/tokengate/internal/shared/utils"
)

// Context keys populated by RequireLogin for downstream handlers.
const (
	ContextKeyLoginID = "login_id"
	ContextKeyToken   = "token"
)

// AuthMiddleware guards routes with the token engine's checks.
type AuthMiddleware struct {
	auth   *authority.Authority
	logger logger.Interface
}

func NewAuthMiddleware(auth *authority.Authority, log logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		auth:   auth,
		logger: log,
	}
}

// readToken pulls the presented token off the request by the configured name
// and strips the configured prefix. ok is false when the prefix is missing.
func (m *AuthMiddleware) readToken(c *gin.Context) (string, bool) {
	presented := webctx.ReadToken(webctx.FromGin(c), m.auth.Config().TokenName)
	return m.auth.UnwrapPrefix(presented)
}

// RequireLogin resolves the presented token and stores the identity in the
// gin context. Requests without a live login are rejected with 401.
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return m.guard(func(c *gin.Context, token string) error { return nil })
}

// RequireRole requires a live login holding every listed role.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return m.guard(func(c *gin.Context, token string) error {
		return m.auth.CheckRoleAnd(c.Request.Context(), token, roles...)
	})
}

// RequireAnyRole requires a live login holding at least one listed role.
func (m *AuthMiddleware) RequireAnyRole(roles ...string) gin.HandlerFunc {
	return m.guard(func(c *gin.Context, token string) error {
		return m.auth.CheckRoleOr(c.Request.Context(), token, roles...)
	})
}

// RequirePermission requires a live login holding every listed permission.
func (m *AuthMiddleware) RequirePermission(permissions ...string) gin.HandlerFunc {
	return m.guard(func(c *gin.Context, token string) error {
		return m.auth.CheckPermissionAnd(c.Request.Context(), token, permissions...)
	})
}

// RequireSafe requires a live step-up marker for service on the token.
func (m *AuthMiddleware) RequireSafe(service string) gin.HandlerFunc {
	return m.guard(func(c *gin.Context, token string) error {
		return m.auth.CheckSafe(c.Request.Context(), token, service)
	})
}

// RequireNotDisabled requires the account behind the token not to be banned
// from service at limitLevel or above.
func (m *AuthMiddleware) RequireNotDisabled(service string, limitLevel int) gin.HandlerFunc {
	return m.guard(func(c *gin.Context, token string) error {
		loginID, err := m.auth.LoginID(c.Request.Context(), token)
		if err != nil {
			return err
		}
		return m.auth.CheckDisableLevel(c.Request.Context(), loginID, service, limitLevel)
	})
}

func (m *AuthMiddleware) guard(check func(c *gin.Context, token string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := m.readToken(c)
		if !ok {
			utils.AuthErrorResponse(c, apperrors.NewNotLoggedInError(m.auth.LoginType(), apperrors.CodeNoPrefix))
			c.Abort()
			return
		}

		loginID, err := m.auth.LoginID(c.Request.Context(), token)
		if err == nil {
			err = check(c, token)
		}
		if err != nil {
			m.logger.Debug("auth check failed", "path", c.Request.URL.Path, "error", err)
			utils.AuthErrorResponse(c, err)
			c.Abort()
			return
		}

		c.Set(ContextKeyLoginID, loginID)
		c.Set(ContextKeyToken, token)
		c.Next()
	}
}
