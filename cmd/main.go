package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cheatreport/backend/internal/api/handler"
	"cheatreport/backend/internal/cases"
	"cheatreport/backend/internal/config"
	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/feed"
	"cheatreport/backend/internal/localization"
	"cheatreport/backend/internal/logger"
	"cheatreport/backend/internal/nametracker"
	"cheatreport/backend/internal/notification"
	"cheatreport/backend/internal/resolver"
	"cheatreport/backend/internal/storage"
	"cheatreport/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnLifetime)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return db, rdb, nil
}

func newResolver(cfg *config.Config, rdb *redis.Client, log *logger.Logger) *resolver.Resolver {
	cache := resolver.NewRedisCache(rdb, cfg.Redis.ProfileTTL)
	sources := []resolver.Source{cache}
	for _, base := range cfg.Resolver.Sources {
		sources = append(sources, resolver.NewOriginClient(base, cfg.Resolver.RequestTimeout))
	}
	return resolver.New(sources, cache, log)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using the environment as is")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
		File:        cfg.Logger.File,
		MaxSize:     cfg.Logger.Rotation.MaxSize,
		MaxBackups:  cfg.Logger.Rotation.MaxBackups,
		MaxAge:      cfg.Logger.Rotation.MaxAge,
		Compress:    cfg.Logger.Rotation.Compress,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, rdb, err := setupDependencies(ctx, cfg)
	if err != nil {
		lg.Error("startup failed", err)
		os.Exit(1)
	}
	defer rdb.Close()

	store := storage.NewStorageService(db)
	if err := store.Migrate(); err != nil {
		lg.Error("migrations failed", err)
		os.Exit(1)
	}
	lg.Info("database and redis ready, migrations complete")

	texts := localization.Default()
	bus := eventbus.New(cfg.EventBus.QueueSize, lg.With(zap.String("component", "eventbus")))
	relay := storage.NewEventRelay(rdb, cfg.Redis.EventChannel)

	bus.Subscribe("notification", notification.New(store, texts, lg).Handle, notification.Kinds()...)
	bus.Subscribe("nametracker", nametracker.New(store, bus, lg).Handle, nametracker.Kinds()...)
	bus.Subscribe("relay", relay.Handle)
	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram.Token, lg)
		if err != nil {
			lg.Error("telegram alerts disabled", err)
		} else {
			alerts := telegram.NewAlerts(bot, cfg.Telegram.StaffChatID, texts, lg)
			bus.Subscribe("telegram", alerts.Handle, telegram.Kinds()...)
		}
	}

	// The bus outlives ctx so queued events drain after the signal.
	busDone := make(chan struct{})
	go func() {
		defer close(busDone)
		bus.Run(context.Background())
	}()

	hub := feed.NewHub(lg.With(zap.String("component", "feed")))
	go hub.Run(ctx)
	go hub.Listen(ctx, relay.Subscribe(ctx))

	svc := cases.NewService(store, newResolver(cfg, rdb, lg), bus, lg)
	tokens := handler.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	handler.NewHandler(svc, tokens, hub, lg).Register(r)

	server := &http.Server{
		Addr:           cfg.HTTP.Addr,
		Handler:        r,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
	go func() {
		lg.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("http server failed", err)
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown", err)
	}
	bus.Close()
	select {
	case <-busDone:
	case <-shutdownCtx.Done():
		lg.Warn("event queue not drained before shutdown deadline")
	}
}
