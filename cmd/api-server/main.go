package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/careloop/clinic-booking/internal/api"
	"github.com/careloop/clinic-booking/internal/auth"
	"github.com/careloop/clinic-booking/internal/booking"
	"github.com/careloop/clinic-booking/internal/config"
	"github.com/careloop/clinic-booking/internal/db"
	"github.com/careloop/clinic-booking/internal/logging"
	redisclient "github.com/careloop/clinic-booking/internal/redis"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		panic("logger init error: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("store_backend", cfg.StoreBackend))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		pgPool      *pgxpool.Pool
		rdb         *redis.Client
		bookingRepo booking.Repository
		authRepo    auth.Repository
		sessions    auth.SessionStore
		locker      redisclient.Locker
	)

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			logger.Fatal("postgres connection error", zap.Error(err))
		}
		defer pgPool.Close()
		logger.Info("connected to Postgres")

		migrator, err := db.NewMigrator(pgPool, cfg.MigrationsDir)
		if err != nil {
			logger.Fatal("migrator init error", zap.Error(err))
		}
		if err := migrator.Up(rootCtx); err != nil {
			logger.Fatal("migration error", zap.Error(err))
		}
		_ = migrator.Close()
		logger.Info("migrations applied")

		rdb, err = redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			logger.Fatal("redis connection error", zap.Error(err))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", zap.Error(err))
			}
		}()
		logger.Info("connected to Redis")

		bookingRepo = booking.NewPgRepository(pgPool)
		authRepo = auth.NewPgRepository(pgPool)
		sessions = auth.NewRedisSessionStore(rdb, cfg.SessionTTL)
		locker = redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)

	case config.BackendMemory:
		// The in-memory variant: single process owns all state, nothing
		// survives a restart.
		bookingRepo = booking.NewMemoryRepository()
		authRepo = auth.NewMemoryRepository()
		sessions = auth.NewMemorySessionStore()
		locker = redisclient.NewLocalSlotLocker()
		logger.Info("using in-memory store")
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	authSvc := auth.NewService(authRepo, sessions, tokens, logger)
	bookingSvc := booking.NewService(bookingRepo, locker, logger)

	router := api.NewRouter(api.RouterConfig{
		Booking: bookingSvc,
		Auth:    authSvc,
		Logger:  logger,
		PgPool:  pgPool,
		Redis:   rdb,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	logger.Info("api-server stopped")
}
