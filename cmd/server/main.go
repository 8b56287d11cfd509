package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/crush-connector/internal/app"
	"github.com/oggyb/crush-connector/internal/cache"
	"github.com/oggyb/crush-connector/internal/config"
	"github.com/oggyb/crush-connector/internal/crush"
	"github.com/oggyb/crush-connector/internal/db"
	"github.com/oggyb/crush-connector/internal/logger"
	"github.com/oggyb/crush-connector/internal/mail"
	"github.com/oggyb/crush-connector/internal/metrics"
	"github.com/oggyb/crush-connector/internal/server"
	crushsvc "github.com/oggyb/crush-connector/internal/service/crush"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Init mail + engine
	sender, err := mail.New(cfg, log)
	if err != nil {
		log.Error("failed to init mail", "err", err)
		return
	}
	engine, err := crush.NewEngine(database, crush.SettingsFromConfig(cfg), sender, log)
	if err != nil {
		log.Error("failed to init crush engine", "err", err)
		return
	}

	// Inject dependencies into app context
	appCtx := app.New(database, redisCache, log, engine)

	registrars := []server.Registrar{
		crushsvc.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, time.Now()); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	go func() {
		log.Info("serving metrics", "addr", cfg.Metrics.Addr)
		if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
			log.Error("metrics server stopped", "err", err)
		}
	}()

	addr := cfg.GRPC.Host + ":" + cfg.GRPC.Port
	log.Info("starting gRPC server", "addr", addr)

	if err := server.StartGRPCServer(ctx, cfg, registrars...); err != nil {
		log.Error("failed to start gRPC server", "err", err)
	}
}
