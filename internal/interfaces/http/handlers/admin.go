package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tokengate/internal/authority"
	"github.com/orris-inc/tokengate/internal/shared/logger"
	"github.com/orris-inc/tokengate/internal/shared/utils"
)

// AdminHandler exposes the engine's administrative surface: forced logout,
// session browsing and the ban ladder.
type AdminHandler struct {
	auth   *authority.Authority
	logger logger.Interface
}

func NewAdminHandler(auth *authority.Authority, log logger.Interface) *AdminHandler {
	return &AdminHandler{
		auth:   auth,
		logger: log,
	}
}

type kickoutRequest struct {
	LoginID    string `json:"login_id" binding:"required"`
	DeviceType string `json:"device_type"`
}

// Kickout force-terminates an account's logins. With a device type only that
// device is kicked; without one every terminal goes.
func (h *AdminHandler) Kickout(c *gin.Context) {
	var req kickoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	if req.DeviceType != "" {
		err = h.auth.KickoutByDevice(c.Request.Context(), req.LoginID, req.DeviceType)
	} else {
		err = h.auth.Kickout(c.Request.Context(), req.LoginID)
	}
	if err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "kicked out", nil)
}

// Logout ends an account's sessions without leaving a kicked marker.
func (h *AdminHandler) Logout(c *gin.Context) {
	var req kickoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.auth.LogoutWithOptions(c.Request.Context(), req.LoginID, authority.LogoutOptions{
		DeviceType: req.DeviceType,
	})
	if err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "logged out", nil)
}

// Terminals lists an account's live terminals.
func (h *AdminHandler) Terminals(c *gin.Context) {
	loginID := c.Param("login_id")

	terminals, err := h.auth.TerminalList(c.Request.Context(), loginID)
	if err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"login_id":  loginID,
		"terminals": terminals,
	})
}

// SearchTokens enumerates live token values, paginated.
func (h *AdminHandler) SearchTokens(c *gin.Context) {
	keyword, start, size, ascending := searchParams(c)

	tokens, err := h.auth.SearchTokenValue(c.Request.Context(), keyword, start, size, ascending)
	if err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"tokens": tokens})
}

// SearchSessions enumerates account session ids, paginated.
func (h *AdminHandler) SearchSessions(c *gin.Context) {
	keyword, start, size, ascending := searchParams(c)

	ids, err := h.auth.SearchSessionID(c.Request.Context(), keyword, start, size, ascending)
	if err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"session_ids": ids})
}

type disableRequest struct {
	LoginID string `json:"login_id" binding:"required"`
	Service string `json:"service"`
	Level   int    `json:"level"`
	TTL     int64  `json:"ttl" binding:"required"`
}

// Disable bans an account from a service at the given level.
func (h *AdminHandler) Disable(c *gin.Context) {
	var req disableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Service == "" {
		req.Service = authority.DefaultDisableService
	}
	if req.Level == 0 {
		req.Level = 1
	}

	if err := h.auth.DisableLevel(c.Request.Context(), req.LoginID, req.Service, req.Level, req.TTL); err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "disabled", nil)
}

// UntieDisable lifts a ban.
func (h *AdminHandler) UntieDisable(c *gin.Context) {
	var req struct {
		LoginID string `json:"login_id" binding:"required"`
		Service string `json:"service"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Service == "" {
		req.Service = authority.DefaultDisableService
	}

	if err := h.auth.UntieDisable(c.Request.Context(), req.LoginID, req.Service); err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "ban lifted", nil)
}

// DisableStatus reports the ban level and remaining time for an account.
func (h *AdminHandler) DisableStatus(c *gin.Context) {
	loginID := c.Param("login_id")
	service := c.DefaultQuery("service", authority.DefaultDisableService)

	level, err := h.auth.GetDisableLevel(c.Request.Context(), loginID, service)
	if err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}
	remaining, err := h.auth.DisableTime(c.Request.Context(), loginID, service)
	if err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"login_id":  loginID,
		"service":   service,
		"level":     level,
		"remaining": remaining,
	})
}

func searchParams(c *gin.Context) (keyword string, start, size int, ascending bool) {
	keyword = c.Query("keyword")
	start, _ = strconv.Atoi(c.DefaultQuery("start", "0"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", "-1"))
	ascending = c.DefaultQuery("order", "asc") != "desc"
	return keyword, start, size, ascending
}
