// Package http wires the token engine to a gin server: the route table, the
// auth middleware chain and the framework-neutral request adapter.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tokengate/internal/authority"
	"github.com/orris-inc/tokengate/internal/interfaces/http/handlers"
	"github.com/orris-inc/tokengate/internal/interfaces/http/middleware"
	sharedConfig "github.com/orris-inc/tokengate/internal/shared/config"
	"github.com/orris-inc/tokengate/internal/shared/logger"
)

// NewRouter builds the gin engine with the full route table.
func NewRouter(auth *authority.Authority, serverCfg *sharedConfig.ServerConfig, log logger.Interface) *gin.Engine {
	if serverCfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger(log))

	authMW := middleware.NewAuthMiddleware(auth, log)
	authHandler := handlers.NewAuthHandler(auth, log)
	adminHandler := handlers.NewAdminHandler(auth, log)
	safeHandler := handlers.NewSafeHandler(auth, log)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authMW.RequireLogin(), authHandler.Logout)
		authGroup.GET("/token", authMW.RequireLogin(), authHandler.TokenInfo)
		authGroup.POST("/renew", authMW.RequireLogin(), authHandler.Renew)

		authGroup.POST("/safe", authMW.RequireLogin(), safeHandler.Open)
		authGroup.DELETE("/safe", authMW.RequireLogin(), safeHandler.Close)
		authGroup.GET("/safe", authMW.RequireLogin(), safeHandler.Status)
	}

	admin := api.Group("/admin", authMW.RequireRole("admin"))
	{
		admin.POST("/kickout", adminHandler.Kickout)
		admin.POST("/logout", adminHandler.Logout)
		admin.GET("/accounts/:login_id/terminals", adminHandler.Terminals)
		admin.GET("/accounts/:login_id/disable", adminHandler.DisableStatus)
		admin.GET("/tokens", adminHandler.SearchTokens)
		admin.GET("/sessions", adminHandler.SearchSessions)
		admin.POST("/disable", adminHandler.Disable)
		admin.POST("/untie-disable", adminHandler.UntieDisable)
	}

	return router
}
