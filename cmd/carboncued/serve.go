package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"carboncue-backend/config"
	"carboncue-backend/internal/api"
	"carboncue-backend/internal/auth"
	"carboncue-backend/internal/db"
	"carboncue-backend/internal/engine"
	"carboncue-backend/internal/notification"
	"carboncue-backend/internal/predictor"
	"carboncue-backend/internal/refdata"
	"carboncue-backend/internal/scraper"
	"carboncue-backend/internal/store"
)

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Init(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info().Msg("database initialized successfully")
	appStore := store.NewGormStore(gormDB)

	tables, err := loadTables(cfg.ReferenceData)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	estimator := engine.NewEstimator(nil)
	client, err := predictor.New(cfg.Predictor)
	if err != nil {
		log.Warn().Err(err).Msg("prediction service not configured; activity submissions will fail")
	} else {
		predictors := make(map[engine.ActivityType]engine.EmissionPredictor, len(engine.ActivityTypes))
		for _, t := range engine.ActivityTypes {
			predictors[t] = client
			log.Debug().Str("category", string(t)).Str("endpoint", client.Endpoint(t)).Msg("prediction endpoint")
		}
		estimator = engine.NewEstimator(predictors)
	}

	var webpushOptions *webpush.Options
	var alerts *notification.BudgetAlerts
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		if cfg.Notifications.Enabled {
			pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
			pool.Start(ctx)
			alerts = notification.NewBudgetAlerts(pool, cfg.Notifications.DailyBudgetKg)
			log.Info().Float64("budget_kg", cfg.Notifications.DailyBudgetKg).Int("workers", cfg.WorkerPool.Size).
				Msg("daily budget alerts enabled")
		}
	} else {
		log.Warn().Msg("VAPID keys are not configured; push notifications are disabled")
	}

	handler := api.NewHandler(api.Deps{
		Store:     appStore,
		AI:        engine.NewAICalculator(tables),
		Estimator: estimator,
		Website:   scraper.NewService(cfg.Website),
		Tokens:    tokens,
		Alerts:    alerts,
		WebPush:   webpushOptions,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(handler, cfg.Server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutdown signal received, stopping services...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info().Msg("server gracefully stopped")
	return nil
}

func loadTables(cfg config.ReferenceDataConfig) (*refdata.Tables, error) {
	if cfg.Path == "" {
		return refdata.Default()
	}
	tables, err := refdata.Load(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data from %s: %w", cfg.Path, err)
	}
	return tables, nil
}
