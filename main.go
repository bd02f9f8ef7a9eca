package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"signal-scout/config"
	"signal-scout/internal/api"
	"signal-scout/internal/app"
	"signal-scout/monitor"
	"signal-scout/notify"
	"signal-scout/observability"
	"signal-scout/repository"
	"signal-scout/scanner"
	"signal-scout/services"
	"signal-scout/trading"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		observability.Info("no .env file found, using environment variables")
	}

	observability.InitLogger(os.Getenv("APP_ENV") == "production")
	observability.InitMetrics()

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()

	// Database (optional; scanning works without it, trading does not)
	var repo *repository.Repository
	if cfg.HasDatabase() {
		repo, err = repository.NewRepository(ctx, cfg.Database.URL)
		if err != nil {
			observability.Warn("failed to initialize database, trade persistence disabled", "error", err)
			repo = nil
		}
	} else {
		observability.Warn("DATABASE_URL not set, trade persistence disabled")
	}

	// Redis fundamentals cache (optional)
	var cache *redis.Client
	if cfg.HasRedis() {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			observability.Warn("invalid REDIS_URL, fundamentals cache disabled", "error", err)
		} else {
			cache = redis.NewClient(redisOpts)
		}
	}

	// Price provider
	var prices services.PriceDataProvider
	switch cfg.Data.Provider {
	case "alpaca":
		if !cfg.HasAlpaca() {
			observability.Fatal("DATA_PROVIDER is alpaca but Alpaca credentials are not set")
		}
		prices = services.NewAlpacaService(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
	default:
		prices = services.NewYahooService()
	}

	fundamentals := services.NewFundamentalsService(cache, cfg.Fundamentals.CacheTTLHours)
	scn := scanner.New(prices, fundamentals, cfg)
	sink := notify.NewLogSink()

	var application *app.App
	var mon *monitor.Monitor
	if repo != nil {
		engine := trading.NewEngine(repo, prices, sink, &cfg.Risk)
		mon = monitor.New(engine, repo, sink, &cfg.Monitor)
		application = app.New(cfg, repo, scn, engine)
	} else {
		application = app.New(cfg, nil, scn, nil)
	}
	defer application.Shutdown()

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	monitorDone := make(chan struct{})
	if mon != nil {
		go func() {
			defer close(monitorDone)
			mon.Run(monitorCtx)
		}()
	} else {
		close(monitorDone)
	}

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: api.NewRouter(api.NewHandler(application)),
	}

	go func() {
		observability.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Fatal("http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down")

	stopMonitor()
	<-monitorDone

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("http shutdown failed", "error", err)
	}
}
