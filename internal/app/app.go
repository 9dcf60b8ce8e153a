package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/clinic-consent/internal/adapter/metrics"
	"github.com/heartmarshall/clinic-consent/internal/adapter/postgres"
	"github.com/heartmarshall/clinic-consent/internal/adapter/redis"
	"github.com/heartmarshall/clinic-consent/internal/config"
	"github.com/heartmarshall/clinic-consent/internal/transport/middleware"
	"github.com/heartmarshall/clinic-consent/internal/transport/rest"
	"github.com/heartmarshall/clinic-consent/internal/worker/expiry"
	"github.com/heartmarshall/clinic-consent/pkg/clock"
)

// Run is the application entry point. It loads configuration, connects to
// PostgreSQL (and Redis when configured), then serves HTTP and runs the
// expiry sweeper until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		applied, err := postgres.Migrate(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied", slog.Int("count", applied))
	}

	var rdb *goredis.Client
	if cfg.Redis.Enabled() {
		rdb, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()
	}

	collectors := metrics.New()
	svcs := NewServices(logger, pool, clock.Real{}, collectors, cfg.Consent)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
	defer limiter.Stop()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      newHandler(logger, cfg, svcs, pool.Ping, rdb, collectors, limiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweeper := expiry.NewSweeper(logger, svcs.Consent, nil, collectors, cfg.Consent.SweepInterval)
	if rdb != nil {
		sweeper.WithLock(redis.NewLocker(rdb, cfg.Redis.LockKey, cfg.Redis.LockTTL))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := sweeper.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("application stopped")
	return nil
}

func newHandler(
	logger *slog.Logger,
	cfg *config.Config,
	svcs *Services,
	dbPing rest.PingFunc,
	rdb *goredis.Client,
	collectors *metrics.Collectors,
	limiter *middleware.RateLimiter,
) http.Handler {
	health := rest.NewHealthHandler(dbPing, BuildVersion())
	if rdb != nil {
		health.WithComponent("redis", rest.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	}

	templates, records, public := svcs.Handlers(logger)
	rc := rest.RouterConfig{
		Templates:   templates,
		Records:     records,
		Public:      public,
		Health:      health,
		Logger:      logger,
		CORS:        cfg.CORS,
		TrustProxy:  cfg.Server.TrustProxy,
		PublicLimit: limiter.Limit(cfg.RateLimit.PublicPerMinute),
	}
	if cfg.Metrics.Enabled {
		rc.Instrument = middleware.Metrics(collectors)
		rc.MetricsHandler = collectors.Handler()
		rc.MetricsPath = cfg.Metrics.Path
	}
	return rest.NewRouter(rc)
}
