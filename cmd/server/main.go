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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"postbox/internal/api"
	"postbox/internal/config"
	"postbox/internal/jobs"
	"postbox/internal/models"
	"postbox/internal/repositories"
	"postbox/internal/routers"
	"postbox/internal/session"
	"postbox/internal/utils"
)

var (
	listenAndServe = func(srv *http.Server) error { return srv.ListenAndServe() }
	exitFunc       = func(err error) {
		fmt.Fprintln(os.Stderr, "postbox:", err)
		os.Exit(1)
	}
	gormOpen = func(driver, dsn string) (*gorm.DB, error) {
		if driver == "sqlite" {
			return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		}
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	shutdownTimeout = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx); err != nil {
		exitFunc(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, closeStore, err := buildProfileStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := session.NewHub(logger)

	statsJob := jobs.NewRoomStatsJob(hub, cfg.StatsSchedule, logger)
	if err := statsJob.Start(); err != nil {
		return err
	}
	defer statsJob.Stop()

	h := api.NewHandlers(logger, hub, store, api.Options{
		JWTSecret:      []byte(cfg.JWTSecret),
		SessionCookie:  cfg.SessionCookie,
		SessionTTL:     cfg.SessionTTL,
		CookieSecure:   cfg.CookieSecure,
		WriteTimeout:   cfg.WSWriteTimeout,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routers.New(h, cfg.AllowedOrigins()),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("postbox listening", zap.String("addr", srv.Addr), zap.String("profile_backend", cfg.ProfileBackend))
		errCh <- listenAndServe(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("postbox shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Hijacked WebSocket connections are not tracked by Shutdown and end with the process.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("postbox exited")
	return nil
}

func buildProfileStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.ProfileStore, func(), error) {
	switch cfg.ProfileBackend {
	case config.BackendSQL:
		db, err := gormOpen(cfg.SQLDriver, cfg.SQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.SQLDriver, err)
		}
		if err := db.AutoMigrate(&models.Profile{}); err != nil {
			return nil, nil, fmt.Errorf("migrate profiles: %w", err)
		}
		logger.Info("profile store ready", zap.String("backend", "sql"), zap.String("driver", cfg.SQLDriver))
		return &repositories.SQLProfileStore{DB: db}, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil

	case config.BackendMongo:
		client, err := repositories.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		logger.Info("profile store ready", zap.String("backend", "mongo"))
		return repositories.NewMongoProfileStore(client, cfg.MongoDB, "profiles"), func() {
			_ = client.Disconnect(context.Background())
		}, nil

	default:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("profile store ready", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
		return repositories.NewRedisProfileStore(rdb, cfg.ProfileTTL), func() { _ = rdb.Close() }, nil
	}
}
