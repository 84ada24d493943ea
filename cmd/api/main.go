package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/card-offer-notifier/internal/app"
	"github.com/card-offer-notifier/internal/application/offerjob"
	"github.com/card-offer-notifier/internal/config"
	"github.com/card-offer-notifier/internal/pkg/logger"
	transporthttp "github.com/card-offer-notifier/internal/transport/http"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Info("no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	a, err := app.Build(ctx, cfg, log, true)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	deps := &transporthttp.Deps{
		Notifications: a.Notifications,
		Jobs:          a.Runner,
		Logger:        log.Named("http"),
	}
	if a.JWT != nil {
		deps.Verifier = a.JWT
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.AppPort),
		Handler:     transporthttp.NewRouter(cfg, deps),
		ReadTimeout: 15 * time.Second,
		// The job trigger answers only after the run finishes.
		WriteTimeout: cfg.JobRunTimeout + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	schedulerDone := make(chan struct{})
	if cfg.JobInterval > 0 {
		go func() {
			defer close(schedulerDone)
			offerjob.NewScheduler(a.Runner, cfg.JobInterval, log.Named("scheduler")).Start(ctx)
		}()
	} else {
		close(schedulerDone)
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	// A run in progress finishes its in-flight card products before returning.
	<-schedulerDone
	log.Info("server stopped")
}
