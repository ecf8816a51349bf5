// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/hdnotes/internal/config"
	"codeberg.org/oliverandrich/hdnotes/internal/database"
	"codeberg.org/oliverandrich/hdnotes/internal/handlers"
	"codeberg.org/oliverandrich/hdnotes/internal/i18n"
	appmiddleware "codeberg.org/oliverandrich/hdnotes/internal/middleware"
	"codeberg.org/oliverandrich/hdnotes/internal/repository"
	authsvc "codeberg.org/oliverandrich/hdnotes/internal/services/auth"
	"codeberg.org/oliverandrich/hdnotes/internal/services/email"
	"codeberg.org/oliverandrich/hdnotes/internal/services/google"
	"codeberg.org/oliverandrich/hdnotes/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database and migrations
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	repo := repository.New(db)

	authService, err := newAuthService(cfg, repo)
	if err != nil {
		return err
	}

	e := newEcho(cfg, repo, authService)

	return startWithGracefulShutdown(ctx, e, cfg)
}

// newAuthService wires the auth orchestrator to its collaborators.
func newAuthService(cfg *config.Config, repo *repository.Repository) (*authsvc.Service, error) {
	tokens, err := session.NewManager(&cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}

	mailer, err := email.NewService(&cfg.SMTP)
	if err != nil {
		return nil, fmt.Errorf("failed to create email service: %w", err)
	}

	verifier, err := google.NewVerifier(cfg.Google.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to create google verifier: %w", err)
	}

	return authsvc.NewService(repo, tokens, verifier, mailer), nil
}

func newEcho(cfg *config.Config, repo *repository.Repository, authService *authsvc.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	setupMiddleware(e, cfg)
	setupRoutes(e, repo, authService)

	return e
}

func setupRoutes(e *echo.Echo, repo *repository.Repository, authService *authsvc.Service) {
	h := handlers.New(repo)
	ah := handlers.NewAuth(authService)
	requireToken := appmiddleware.RequireToken(authService)

	e.GET("/health", h.Health)

	api := e.Group("/api")

	// Public auth routes
	api.POST("/auth/signup", ah.Signup)
	api.POST("/auth/verify-otp", ah.VerifyOTP)
	api.POST("/auth/resend-otp", ah.ResendOTP)
	api.POST("/auth/login", ah.Login)
	api.POST("/auth/google", ah.Google)

	// Bearer token routes
	api.GET("/users/profile", h.Profile, requireToken)
	api.GET("/notes", h.ListNotes, requireToken)
	api.POST("/notes", h.CreateNote, requireToken)
	api.PUT("/notes/:id", h.UpdateNote, requireToken)
	api.DELETE("/notes/:id", h.DeleteNote, requireToken)
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	tlsConfig, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		var err error
		if tlsConfig != nil {
			err = startTLSServer(ctx, e, addr, tlsConfig)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
