package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/parcelworks/parcelworks-backend/internal/db"
	apphttp "github.com/parcelworks/parcelworks-backend/internal/http"
	httpMW "github.com/parcelworks/parcelworks-backend/internal/http/middleware"
	"github.com/parcelworks/parcelworks-backend/internal/observability"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Cfg      Config
	Repos    Repos
	Services Services

	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig()

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "parcelworks",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	registry := wireCarriers(log)
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, registry, reposet)
	handlerset := wireHandlers(log, cfg, registry, serviceset)

	server := apphttp.NewServer(apphttp.RouterConfig{
		Log:                log,
		IdentityMiddleware: httpMW.NewIdentityMiddleware(log),
		TracingEnabled:     cfg.TracingEnabled,
		CarrierHandler:     handlerset.Carrier,
		RateHandler:        handlerset.Rate,
		ShipmentHandler:    handlerset.Shipment,
		HealthHandler:      handlerset.Health,
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
