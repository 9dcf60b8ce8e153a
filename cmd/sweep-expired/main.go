// Command sweep-expired runs one expiry sweep and exits. It is meant for
// deployments that schedule the sweep from an external cron instead of the
// in-process sweeper.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/heartmarshall/clinic-consent/internal/adapter/postgres"
	"github.com/heartmarshall/clinic-consent/internal/app"
	"github.com/heartmarshall/clinic-consent/internal/config"
	"github.com/heartmarshall/clinic-consent/pkg/clock"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	svcs := app.NewServices(logger, pool, clock.Real{}, nil, cfg.Consent)

	res, err := svcs.Consent.SweepExpired(ctx)
	if err != nil {
		logger.Error("sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	attrs := []any{slog.Int("expired", res.Expired)}
	for status, n := range res.ByStatus {
		attrs = append(attrs, slog.Int("from_"+string(status), n))
	}
	logger.Info("sweep completed", attrs...)
}
