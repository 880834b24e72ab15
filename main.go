package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"opsboard/api"
	"opsboard/board"
	"opsboard/storage"
)

func main() {
	cfg := loadConfig()
	logger := log.New()
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	baserow, err := storage.NewBaserow(cfg.BaserowURL, cfg.BaserowToken, cfg.Tables, &storage.BaserowOptions{PageSize: cfg.PageSize})
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	var (
		rows    storage.RowStore = baserow
		deduper api.Deduper
		rc      *redis.Client
	)
	if cfg.RedisConn != "" {
		rc = redis.NewClient(redisOptions(cfg.RedisConn))
		rows = storage.NewCache(baserow, rc, cfg.RowCacheTTL)
		deduper = api.NewRedisDeduper(rc, cfg.DeduperTTL)
	} else {
		logger.Info("no redis configured, row cache and idempotency keys disabled")
	}

	var settings storage.SettingsStore = storage.NewMemorySettings()
	if cfg.StorageConn != "" && cfg.SettingsTable != "" {
		ts, err := storage.NewTableSettings(cfg.StorageConn, cfg.SettingsTable)
		if err != nil {
			log.Fatalf("settings storage: %v", err)
		}
		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = ts.EnsureTable(initCtx)
		cancel()
		if err != nil {
			log.Fatalf("create settings table: %v", err)
		}
		settings = ts
	}

	b := board.New(board.NewLoader(rows, cfg.Tables), logger)
	refresher := board.NewRefresher(b, logger, cfg.RefreshInterval, cfg.ReloadTimeout)
	refresher.Start()
	refresher.Trigger()

	e := echo.New()
	e.HideBanner = true
	e.IPExtractor = ipExtractor(cfg.TrustProxy)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
		AllowCredentials: true,
	}))

	api.Register(e, api.Deps{
		Board:      b,
		Writer:     rows,
		TasksTable: cfg.Tables.Tasks,
		Settings:   settings,
		Refresher:  refresher,
		Sessions:   api.NewSessions(cfg.SessionSecret, cfg.DashboardPIN, cfg.SessionTTL, cfg.SecureCookie),
		Deduper:    deduper,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	refresher.Stop()
	if rc != nil {
		if err := rc.Close(); err != nil {
			logger.Warnf("redis close: %v", err)
		}
	}
}
