package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/config"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/postgres"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/redis"
	postgresrepo "github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository/postgres"
	redisrepo "github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository/redis"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/catalog"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/users"
	httpgin "github.com/Josan88/Kuching-ART-Online-System-sub000/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	rdb        *goredis.Client
	services   *service.Services
	pubsub     *redisrepo.NotificationsPubSub
	httpServer *http.Server
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.Postgres.DSN(),
		MaxConns: cfg.Postgres.MaxConns,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	store := postgresrepo.NewStore(pool)
	pubsub := redisrepo.NewNotificationsPubSub(rdb)
	idem := redisrepo.NewIdempotencyStore(rdb, cfg.Booking.IdempotencyTTL)

	services := service.NewServices(store, service.Redis{
		Cache:   redisrepo.NewCache(rdb),
		Drafts:  redisrepo.NewDraftStore(rdb, cfg.Booking.DraftTTL),
		PubSub:  pubsub,
		Limiter: redisrepo.NewSlidingWindowLimiter(rdb, "login", cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow),
	}, service.Config{
		Users:      users.Config{BcryptCost: cfg.Auth.BcryptCost, Logger: logger},
		Catalog:    catalog.Config{RoutesTTL: cfg.Booking.RoutesCacheTTL},
		PointsRate: cfg.Loyalty.PointsRate,
	})

	checks := []httpgin.HealthCheck{
		store.Ping,
		func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}

	router := httpgin.NewRouter(services, idem, logger, checks)

	return &App{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		rdb:      rdb,
		services: services,
		pubsub:   pubsub,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Run serves HTTP and runs the background workers until ctx is cancelled or
// the process receives SIGINT/SIGTERM, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.runNotificationLog(gCtx)
	})

	g.Go(func() error {
		a.runDepartedSweep(gCtx)
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

// runNotificationLog logs every notification published by any instance.
func (a *App) runNotificationLog(ctx context.Context) error {
	err := a.pubsub.Subscribe(ctx, func(_ context.Context, n domain.Notification) {
		a.logger.Info("notification",
			slog.String("user_id", n.UserID.String()),
			slog.String("type", string(n.Type)),
			slog.String("priority", string(n.Priority)),
			slog.String("title", n.Title),
		)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) runDepartedSweep(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Booking.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.services.Booking.MarkDeparted(ctx)
			if err != nil {
				if ctx.Err() == nil {
					a.logger.Error("departed ticket sweep failed", slog.Any("err", err))
				}
				continue
			}
			if n > 0 {
				a.logger.Info("tickets marked used", slog.Int64("count", n))
			}
		}
	}
}

func (a *App) close() {
	if err := a.rdb.Close(); err != nil {
		a.logger.Error("failed to close redis", slog.Any("err", err))
	}
	a.pool.Close()
}
