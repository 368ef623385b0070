package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/stockdesk/internal/account"
	"github.com/odyssey-erp/stockdesk/internal/api"
	"github.com/odyssey-erp/stockdesk/internal/app"
	"github.com/odyssey-erp/stockdesk/internal/draft"
	"github.com/odyssey-erp/stockdesk/internal/invoice"
	invoicehttp "github.com/odyssey-erp/stockdesk/internal/invoice/http"
	"github.com/odyssey-erp/stockdesk/internal/lookup"
	"github.com/odyssey-erp/stockdesk/internal/observability"
	"github.com/odyssey-erp/stockdesk/internal/platform/cache"
	"github.com/odyssey-erp/stockdesk/internal/refdata"
	"github.com/odyssey-erp/stockdesk/jobs"
)

func main() {
	_ = godotenv.Load()
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	upstream := api.NewClient(cfg.UpstreamURL, cfg.UpstreamTimeout,
		api.WithHTTPClient(&http.Client{
			Timeout:   cfg.UpstreamTimeout,
			Transport: metrics.UpstreamTransport(http.DefaultTransport),
		}),
		api.WithServiceToken(cfg.ServiceToken),
	)
	if err := upstream.Ping(ctx); err != nil {
		logger.Warn("upstream ping", slog.Any("error", err))
	}

	refMetrics, err := refdata.NewMetrics(metrics.Registerer())
	if err != nil {
		logger.Error("register refdata metrics", slog.Any("error", err))
		os.Exit(1)
	}
	loader := refdata.NewLoader(upstream, refdata.NewCache(redisClient, cfg.RefDataTTL), refMetrics, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		_ = inspector.Close()
	}()
	ref := jobs.NewWarmingRefData(loader, jobClient, logger)

	invoiceService := invoice.NewService(upstream, ref, draft.NewStore(redisClient, cfg.DraftTTL), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Metrics:        metrics,
		Upstream:       upstream,
		InvoiceHandler: invoicehttp.NewHandler(logger, invoiceService),
		LookupHandler:  lookup.NewHandler(logger, upstream, ref),
		AccountHandler: account.NewHandler(logger, upstream),
		JobHandler:     jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	logger.Info("http server stopped")
}
