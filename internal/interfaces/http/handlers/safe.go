package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tokengate/internal/authority"
	"github.com/orris-inc/tokengate/internal/interfaces/http/middleware"
	"github.com/orris-inc/tokengate/internal/shared/logger"
	"github.com/orris-inc/tokengate/internal/shared/utils"
)

// SafeHandler manages step-up authentication markers on the caller's token.
type SafeHandler struct {
	auth   *authority.Authority
	logger logger.Interface
}

func NewSafeHandler(auth *authority.Authority, log logger.Interface) *SafeHandler {
	return &SafeHandler{
		auth:   auth,
		logger: log,
	}
}

type openSafeRequest struct {
	Service string `json:"service"`
	TTL     int64  `json:"ttl" binding:"required"`
}

// Open marks the caller's token as step-up verified for a service. The
// second-factor verification itself happens upstream of this endpoint.
func (h *SafeHandler) Open(c *gin.Context) {
	var req openSafeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Service == "" {
		req.Service = authority.DefaultSafeService
	}

	token := c.GetString(middleware.ContextKeyToken)
	if err := h.auth.OpenSafe(c.Request.Context(), token, req.Service, req.TTL); err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "safe auth opened", nil)
}

// Close drops the step-up marker early.
func (h *SafeHandler) Close(c *gin.Context) {
	service := c.DefaultQuery("service", authority.DefaultSafeService)

	token := c.GetString(middleware.ContextKeyToken)
	if err := h.auth.CloseSafe(c.Request.Context(), token, service); err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "safe auth closed", nil)
}

// Status reports whether the caller's token holds a live marker and its TTL.
func (h *SafeHandler) Status(c *gin.Context) {
	service := c.DefaultQuery("service", authority.DefaultSafeService)

	token := c.GetString(middleware.ContextKeyToken)
	safe, err := h.auth.IsSafe(c.Request.Context(), token, service)
	if err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}
	remaining, err := h.auth.SafeTime(c.Request.Context(), token, service)
	if err != nil {
		utils.AuthErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"service":   service,
		"safe":      safe,
		"remaining": remaining,
	})
}
