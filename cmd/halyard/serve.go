package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/halyard-group/halyard-web/internal/api"
	"github.com/halyard-group/halyard-web/internal/auth"
	"github.com/halyard-group/halyard-web/internal/config"
	"github.com/halyard-group/halyard-web/internal/database"
	"github.com/halyard-group/halyard-web/internal/domain"
	"github.com/halyard-group/halyard-web/internal/identity"
	"github.com/halyard-group/halyard-web/internal/mailer"
	"github.com/halyard-group/halyard-web/internal/repository"
	"github.com/halyard-group/halyard-web/internal/scheduler"
	"github.com/halyard-group/halyard-web/internal/services"
	"github.com/halyard-group/halyard-web/internal/utils"
	"github.com/halyard-group/halyard-web/pkg/logger"
)

func newServeCommand() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending database migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrateFirst bool) error {
	// Installed first so a signal during startup still shuts down cleanly
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	validator, err := domain.NewValidator(domain.Config{
		ProductionDomain: cfg.Domain.ProductionDomain,
		StagingHosts:     cfg.Domain.StagingHosts,
		DevelopmentHosts: cfg.Domain.DevelopmentHosts,
		SiteURL:          cfg.Domain.SiteURL,
		RequireHTTPS:     cfg.Domain.RequireHTTPS,
	})
	if err != nil {
		return fmt.Errorf("invalid domain configuration: %w", err)
	}

	var provider identity.Provider
	if cfg.Auth.Method.SupportsPassword() {
		client, err := identity.NewGoTrueClient(cfg.Identity.URL, cfg.Identity.AnonKey, cfg.Identity.Timeout)
		if err != nil {
			return fmt.Errorf("failed to create identity client: %w", err)
		}
		provider = client
	}

	authService, err := auth.NewService(auth.NewConfig(cfg), provider, validator)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}
	stopAudit := authService.OnAuthStateChange(auditAuthEvent)
	defer stopAudit()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection: %v", err)
		}
	}()

	if migrateFirst {
		if err := database.Migrate(db, cfg.Database.Database); err != nil {
			return err
		}
	}

	sender, err := mailer.New(cfg.Email)
	if err != nil {
		return fmt.Errorf("failed to create email sender: %w", err)
	}
	logger.Info("Sending inquiry notifications via %s", sender.Name())

	inquiries, err := services.NewInquiryService(services.InquiryServiceDeps{
		Repo:      repository.NewInquiryRepository(db),
		TxManager: repository.NewTxManager(db),
		Sender:    sender,
		Config:    cfg.Inquiry,
	})
	if err != nil {
		return fmt.Errorf("failed to create inquiry service: %w", err)
	}

	utils.InitializeValidators()
	if cfg.Environment == config.EnvDevelopment {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := api.SetupRouter(api.Deps{
		Config:    cfg,
		Auth:      authService,
		Validator: validator,
		Inquiries: inquiries,
		DB:        db,
	})
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}

	// Cancelled on shutdown so open event streams end
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// No write timeout: /session/events responses stay open
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting Halyard API server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	retryService := scheduler.NewInquiryRetryService(inquiries, cfg.Inquiry.RetryInterval)
	retryService.Start()
	defer retryService.Stop()

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Shutting down server...")

	// Stop scheduler first
	retryService.Stop()
	cancelBase()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

// auditAuthEvent writes every auth-state transition to the log.
func auditAuthEvent(e auth.Event) {
	logger.Info("Auth event %s: session=%s user=%s method=%s", e.Type, e.SessionID, e.UserID, e.Method)
}
