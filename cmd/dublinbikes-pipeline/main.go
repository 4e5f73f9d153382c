package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	httpapi "github.com/dmolloy8/dublinbikes-pipeline/internal/api/http"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/config"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/meteo"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/metrics"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/reconcile"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/scheduler"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/stations"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/store"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/timeconv"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	stationClient := stations.NewClient(httpClient, cfg.StationsURL, cfg.StationsAPIKey, cfg.StationsContract)

	var weatherClient scheduler.WeatherSource
	if cfg.WeatherEnrichment {
		weatherClient = meteo.NewClient(httpClient, cfg.WeatherURL, cfg.WeatherAPIKey)
	}

	// The station feed reports epoch milliseconds.
	reconciler := reconcile.New(timeconv.UnitMillis)

	// Store: Postgres when configured, file capture otherwise.
	var (
		sink store.Store
		pg   *store.Postgres
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db pool init failed: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			log.Fatalf("db ping failed: %v", err)
		}

		pg = store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("schema setup failed: %v", err)
		}
		sink = pg
	} else {
		log.Printf("no DATABASE_URL configured, running in file capture mode (dir=%s)", cfg.FallbackDir)
	}

	sched := scheduler.New(stationClient, weatherClient, sink, store.NewFileSink(cfg.FallbackDir), reconciler, scheduler.Options{
		Interval:           cfg.FetchInterval,
		CycleTimeout:       cfg.FetchInterval,
		WeatherEnrichment:  cfg.WeatherEnrichment,
		WeatherConcurrency: cfg.WeatherConcurrency,
	})
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	go metrics.Serve(cfg.MetricsAddr)

	app := fiber.New(fiber.Config{
		AppName:               "dublinbikes-pipeline",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
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

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "dublinbikes-pipeline",
		})
	})

	// The read API needs a database; in file capture mode only /health runs.
	if pg != nil {
		httpapi.RegisterRoutes(app, pg)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
