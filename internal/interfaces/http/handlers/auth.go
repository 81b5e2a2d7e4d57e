package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tokengate/internal/authority"
	"github.com/orris-inc/tokengate/internal/interfaces/http/middleware"
	"github.com/orris-inc/tokengate/internal/interfaces/http/webctx"
	"github.com/orris-inc/tokengate/internal/shared/logger"
	"github.com/orris-inc/tokengate/internal/shared/utils"
)

// AuthHandler exposes the engine's login lifecycle over HTTP.
type AuthHandler struct {
	auth   *authority.Authority
	logger logger.Interface
}

func NewAuthHandler(auth *authority.Authority, log logger.Interface) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: log,
	}
}

type loginRequest struct {
	LoginID    string `json:"login_id" binding:"required"`
	DeviceType string `json:"device_type"`
	DeviceID   string `json:"device_id"`
	Timeout    int64  `json:"timeout"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenName string `json:"token_name"`
	LoginID   string `json:"login_id"`
	Timeout   int64  `json:"timeout"`
}

// Login creates a login session for the given account. Identity verification
// happens upstream; this endpoint only mints the credential.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := authority.LoginOptions{
		DeviceType: req.DeviceType,
		DeviceID:   req.DeviceID,
		Timeout:    req.Timeout,
	}
	token, err := h.auth.LoginWithOptions(c.Request.Context(), req.LoginID, opts)
	if err != nil {
		h.logger.Warn("login failed", "login_id", req.LoginID, "error", err)
		utils.AuthErrorResponse(c, err)
		return
	}

	presented := h.auth.WrapPrefix(token)
	ttl, err := h.auth.TokenTimeout(c.Request.Context(), token)
	if err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}

	ctx := webctx.FromGin(c)
	webctx.StashToken(ctx, presented)
	webctx.WriteToken(ctx, h.auth.Config().TokenName, presented, cookieMaxAge(ttl))

	utils.SuccessResponse(c, http.StatusOK, "logged in", loginResponse{
		Token:     presented,
		TokenName: h.auth.Config().TokenName,
		LoginID:   req.LoginID,
		Timeout:   ttl,
	})
}

// Logout ends the session behind the presented token.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(middleware.ContextKeyToken)
	if err := h.auth.LogoutByToken(c.Request.Context(), token); err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}

	// Drop the cookie so browsers stop presenting the dead token.
	webctx.WriteToken(webctx.FromGin(c), h.auth.Config().TokenName, "", -1)
	utils.SuccessResponse(c, http.StatusOK, "logged out", nil)
}

// TokenInfo reports the lifecycle facts of the caller's own token.
func (h *AuthHandler) TokenInfo(c *gin.Context) {
	token := c.GetString(middleware.ContextKeyToken)
	loginID := c.GetString(middleware.ContextKeyLoginID)

	ttl, err := h.auth.TokenTimeout(c.Request.Context(), token)
	if err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}
	lastActive, err := h.auth.LastActiveTime(c.Request.Context(), token)
	if err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"login_id":    loginID,
		"login_type":  h.auth.LoginType(),
		"token_name":  h.auth.Config().TokenName,
		"timeout":     ttl,
		"last_active": lastActive,
	})
}

// Renew extends the caller's token TTL.
func (h *AuthHandler) Renew(c *gin.Context) {
	var req struct {
		Timeout int64 `json:"timeout" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	token := c.GetString(middleware.ContextKeyToken)
	if err := h.auth.RenewTimeout(c.Request.Context(), token, req.Timeout); err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "renewed", nil)
}

// cookieMaxAge converts a token TTL into a cookie max-age; never-expire
// tokens get a session cookie.
func cookieMaxAge(ttl int64) int {
	if ttl < 0 {
		return 0
	}
	return int(ttl)
}
