package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mobilitydash/mobility-data-aggregation/internal/analytics"
	httpapi "github.com/mobilitydash/mobility-data-aggregation/internal/api/http"
	"github.com/mobilitydash/mobility-data-aggregation/internal/config"
	"github.com/mobilitydash/mobility-data-aggregation/internal/fallback"
	"github.com/mobilitydash/mobility-data-aggregation/internal/logger"
	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
	"github.com/mobilitydash/mobility-data-aggregation/internal/redisconn"
	"github.com/mobilitydash/mobility-data-aggregation/internal/scheduler"
	"github.com/mobilitydash/mobility-data-aggregation/internal/sources"
	"github.com/mobilitydash/mobility-data-aggregation/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("error", true).Fatal("failed to load config", logger.Error(err))
	}

	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	// Durable cache layer: redis when configured, memory-only otherwise.
	var persistent fallback.PersistentStore
	if cfg.RedisAddr != "" {
		client, err := redisconn.Connect(redisconn.Options{
			Addr:     cfg.RedisAddr,
			User:     cfg.RedisUser,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, log)
		if err != nil {
			log.Fatal("redis connection failed", logger.Error(err))
		}
		defer client.Close()
		persistent = fallback.NewRedisStore(client)
	} else {
		log.Warn("REDIS_ADDR not set, fallback cache is memory-only and will not survive restarts")
	}

	cache := fallback.NewCache(persistent, log)

	// Shared HTTP client for outbound source calls.
	httpClient := &http.Client{
		Timeout: cfg.SourceTimeout,
	}

	geo := sources.NewGeocoder(cfg.GeocoderAPIKey)

	baseRegs := []mobility.Registration{
		{Source: sources.NewBikesSource(httpClient, cfg.BikesBaseURL), Params: mobility.Params{}},
		{Source: sources.NewTrafficSource(httpClient, cfg.TomTomAPIKey, cfg.TrafficBaseURL), Params: mobility.Params{}},
		{Source: sources.NewAirQualitySource(httpClient, geo, ""), Params: mobility.Params{}},
		{Source: sources.NewAttractionsSource(httpClient, geo, ""), Params: mobility.Params{}},
	}

	newAggregator := func(overrides map[string]mobility.Params) (*mobility.Aggregator, error) {
		regs := make([]mobility.Registration, len(baseRegs))
		for i, reg := range baseRegs {
			params := reg.Params
			if extra, ok := overrides[mobility.SourceName(reg.Source)]; ok {
				params = params.Merge(extra)
			}
			regs[i] = mobility.Registration{Source: reg.Source, Params: params}
		}
		return mobility.NewAggregator(mobility.AggregatorConfig{
			Registrations: regs,
			Cache:         cache,
			Hooks:         analytics.Default(),
			SourceTimeout: cfg.SourceTimeout,
			MaxConcurrent: cfg.MaxConcurrent,
			Logger:        log,
		})
	}

	agg, err := newAggregator(nil)
	if err != nil {
		log.Fatal("failed to build aggregator", logger.Error(err))
	}

	// In-memory snapshot history with configured retention.
	history := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Scheduler that periodically refreshes the snapshot.
	sched := scheduler.New(agg, history, cfg.Location, cfg.FetchInterval, log)
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", logger.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "mobility-data-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "mobility-data-aggregation",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		NewAggregator: newAggregator,
		History:       history,
		Cache:         cache,
		SourceNames:   agg.SourceNames(),
	})

	go func() {
		log.Info("http server listening", logger.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", logger.Error(err))
		}
	}()

	// Wait for termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", logger.Error(err))
	}
}
