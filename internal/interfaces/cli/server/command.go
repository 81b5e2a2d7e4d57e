// Package server implements the `tokengate server` command: it assembles the
// configured storage backend, the token authority and the HTTP surface, then
// runs until interrupted.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/orris-inc/tokengate/internal/authority"
	"github.com/orris-inc/tokengate/internal/infrastructure/config"
	"github.com/orris-inc/tokengate/internal/infrastructure/database"
	"github.com/orris-inc/tokengate/internal/infrastructure/permission"
	httpRouter "github.com/orris-inc/tokengate/internal/interfaces/http"
	"github.com/orris-inc/tokengate/internal/shared/logger"
	"github.com/orris-inc/tokengate/internal/shared/version"
	"github.com/orris-inc/tokengate/internal/storage"
	"github.com/orris-inc/tokengate/internal/storage/gormstore"
	"github.com/orris-inc/tokengate/internal/storage/memory"
	"github.com/orris-inc/tokengate/internal/storage/redisstore"
)

var (
	env       string
	loginType string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the tokengate HTTP server with the configured storage backend.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVar(&loginType, "login-type", "user", "Identity namespace served by this instance")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("starting server",
		"version", version.String(),
		"environment", env,
		"storage_backend", cfg.Storage.Backend,
		"login_type", loginType)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard

	store, cleanup, err := buildStore(cfg)
	if err != nil {
		logger.Fatal("failed to build storage backend", "error", err)
	}
	defer cleanup()

	if err := store.Init(); err != nil {
		logger.Fatal("failed to initialize storage backend", "error", err)
	}
	defer func() {
		if err := store.Destroy(); err != nil {
			logger.Error("failed to destroy storage backend", "error", err)
		}
	}()

	opts := []authority.Option{
		authority.WithConfig(authority.ConfigFromShared(cfg.Auth)),
		authority.WithLogger(logger.NewLogger()),
	}

	// The database backend doubles as the policy store for roles and
	// permissions.
	if cfg.Storage.Backend == "database" {
		ds, err := permission.NewDataSource(database.Get(), logger.NewLogger())
		if err != nil {
			logger.Fatal("failed to build permission data source", "error", err)
		}
		opts = append(opts, authority.WithDataSource(ds))
	}

	auth, err := authority.New(loginType, store, opts...)
	if err != nil {
		logger.Fatal("failed to build token authority", "error", err)
	}

	router := httpRouter.NewRouter(auth, &cfg.Server, logger.NewLogger())

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			"address", cfg.Server.GetAddr(),
			"mode", cfg.Server.Mode)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}

	logger.Info("server exited gracefully")
	return nil
}

// buildStore assembles the configured storage backend. The returned cleanup
// releases backend-owned connections; store.Destroy handles the rest.
func buildStore(cfg *config.Config) (storage.Storage, func(), error) {
	nop := func() {}

	switch cfg.Storage.Backend {
	case "memory":
		return storage.Wrap(memory.New(cfg.Auth.SweepInterval, logger.NewLogger())), nop, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Error("failed to close redis client", "error", err)
			}
		}
		return storage.Wrap(redisstore.New(client)), cleanup, nil

	case "database":
		if err := database.Init(&cfg.Database); err != nil {
			return nil, nop, err
		}
		cleanup := func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}
		store, err := gormstore.New(database.Get(), cfg.Auth.SweepInterval, logger.NewLogger())
		if err != nil {
			cleanup()
			return nil, nop, err
		}
		return storage.Wrap(store), cleanup, nil

	default:
		return nil, nop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
