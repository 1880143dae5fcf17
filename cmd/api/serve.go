package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/daily-diet/internal/config"
	"github.com/Dan9191/daily-diet/internal/handler"
	"github.com/Dan9191/daily-diet/internal/jobs"
	"github.com/Dan9191/daily-diet/internal/metrics"
	"github.com/Dan9191/daily-diet/internal/middleware"
	"github.com/Dan9191/daily-diet/internal/repository"
	"github.com/Dan9191/daily-diet/internal/service"
	"github.com/Dan9191/daily-diet/internal/utils"
	"github.com/Dan9191/daily-diet/internal/utils/email"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 15 * time.Second

func serveCmd(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(logger)
		},
	}
}

func runServe(logger *logrus.Logger) error {
	// Load configuration
	cfg, err := loadConfig(logger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.AutoMigrate {
		if err := migrateUp(cfg, logger); err != nil {
			return err
		}
	}

	// Initialize database
	db, err := sqlx.Open("postgres", cfg.DBConn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize layers
	m := metrics.New()
	repo := repository.NewRepository(db)
	var mailer service.Mailer
	if cfg.MailEnabled() {
		mailer = email.NewSender(cfg, logger)
	} else {
		logger.Info("SMTP_HOST not set, welcome mail disabled")
	}
	svc := service.NewService(repo, logger, m, mailer)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Close(ctx); err != nil {
			logger.Warnf("Failed to flush mail: %v", err)
		}
	}()

	codec, err := utils.NewSessionCodec(cfg.SessionSecret, config.SessionMaxAge, cfg.CookieSecure)
	if err != nil {
		return fmt.Errorf("failed to initialize sessions: %w", err)
	}
	h := handler.NewHandler(svc, codec, logger)

	scheduler := jobs.NewScheduler(logger)

	var limiter *middleware.RateLimiter
	if cfg.RegisterRate > 0 {
		limiter = middleware.NewRateLimiter(rate.Limit(cfg.RegisterRate), cfg.RegisterBurst)
		if err := scheduler.Add("ratelimit-cleanup", "@every 1m", limiter.Cleanup); err != nil {
			return err
		}
	}

	// Setup router
	r := handler.NewRouter(h, handler.RouterOptions{
		Auth:            middleware.NewAuthenticator(codec, svc),
		Metrics:         m,
		ExposeMetrics:   cfg.MetricsEnabled,
		RegisterLimiter: limiter,
	})

	if cfg.StatsCron != "" {
		stats := jobs.NewStatsJob(svc, m, logger)
		if err := scheduler.Add("stats", cfg.StatsCron, stats.Run); err != nil {
			return err
		}
		stats.Run()
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Infof("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
