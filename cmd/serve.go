package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/api"
	"github.com/killallgit/diagram-annotator/api/types"
	apiversion "github.com/killallgit/diagram-annotator/api/version"
	"github.com/killallgit/diagram-annotator/internal/database"
	"github.com/killallgit/diagram-annotator/internal/metrics"
	"github.com/killallgit/diagram-annotator/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Diagram Annotator API server",
		Long: `Start the HTTP server for the Diagram Annotator API.

The server exposes the annotation endpoints under /api/v1, health and
version checks, Prometheus metrics and the Swagger UI. It stops gracefully
on SIGINT or SIGTERM.`,
		RunE: runServer,
	}
	cmd.Flags().String("host", "", "host to bind (overrides settings)")
	cmd.Flags().Int("port", 0, "port to listen on (overrides settings)")
	return cmd
}

// openDatabase opens the configured database, migrating it when asked
func openDatabase(migrate bool) (*database.DB, error) {
	path := appConfig.Database.Path
	verbose := appConfig.Database.Verbose
	if migrate {
		return database.InitializeWithMigrations(path, verbose)
	}
	return database.Initialize(path, verbose)
}

func runServer(cmd *cobra.Command, args []string) error {
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		appConfig.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid server port: %d", port)
		}
		appConfig.Server.Port = port
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	apiversion.Version = Version
	apiversion.Commit = GitCommit
	apiversion.BuildDate = BuildTime

	db, err := openDatabase(appConfig.Database.AutoMigrate)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", zap.Error(err))
		}
	}()

	server := api.NewServer(appConfig.Addr(), appConfig.Server)
	server.SetDependencies(&types.Dependencies{
		DB:      db,
		Config:  appConfig,
		Logger:  logger,
		Metrics: metrics.New(),
	})
	if err := server.Initialize(); err != nil {
		return fmt.Errorf("initializing server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	logger.Info("server started",
		zap.String("addr", appConfig.Addr()),
		zap.String("environment", appConfig.Environment),
		zap.String("version", Version),
	)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
