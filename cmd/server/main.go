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

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/cinesocial/internal/config"
	"github.com/iliyamo/cinesocial/internal/database"
	"github.com/iliyamo/cinesocial/internal/handler"
	"github.com/iliyamo/cinesocial/internal/logger"
	"github.com/iliyamo/cinesocial/internal/middleware"
	"github.com/iliyamo/cinesocial/internal/queue"
	"github.com/iliyamo/cinesocial/internal/repository"
	"github.com/iliyamo/cinesocial/internal/router"
	"github.com/iliyamo/cinesocial/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "cinesocial:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New("cinesocial", cfg.Env, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.Warn("redis unavailable, running without cache and rate limiting", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	var notifier service.Notifier = service.NopNotifier{}
	broker := config.LoadBrokerConfig()
	if broker.Enabled {
		pub := queue.NewPublisher(broker.URL, broker.Queue, broker.PublishTimeout, log.Named("publisher"))
		notifier = &service.AsyncNotifier{Next: pub, Timeout: broker.PublishTimeout, Log: log}
		if broker.RunConsumer {
			consumer := &queue.Consumer{URL: broker.URL, Queue: broker.Queue, LogPath: broker.ActivityLog, Log: log.Named("consumer")}
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("activity consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	st := repository.NewStore(db)
	reviews := service.NewReviewService(st, notifier, log)
	watchlist := service.NewWatchlistService(st, notifier, log)
	events := service.NewEventService(st, notifier, log)
	accounts := service.NewUserService(st, notifier, log)

	movieRepo := repository.NewMovieRepo(db)
	eventRepo := repository.NewEventRepo(db)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb, log)
	limit := middleware.RateLimit(config.LoadRateLimitConfig(), rdb, log)

	router.RegisterRoutes(e, handler.Health(db))
	router.RegisterAuth(e,
		handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db), log),
		cfg.JWTSecret, limit)
	eventHandler := handler.NewEventHandler(events, eventRepo, log)
	router.RegisterPublic(e,
		handler.NewMovieHandler(movieRepo, repository.NewReviewRepo(db), log),
		eventHandler, cache, limit)
	router.RegisterUser(e,
		handler.NewReviewHandler(reviews, log),
		handler.NewWatchlistHandler(watchlist, repository.NewWatchlistRepo(db), log),
		eventHandler, cfg.JWTSecret, limit)
	router.RegisterAdmin(e,
		handler.NewAdminHandler(reviews, accounts, movieRepo, repository.NewAuditRepo(db), log),
		cfg.JWTSecret)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("grace", cfg.ShutdownGrace))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
