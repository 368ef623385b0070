package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/stockdesk/internal/api"
	"github.com/odyssey-erp/stockdesk/internal/app"
	"github.com/odyssey-erp/stockdesk/internal/observability"
	"github.com/odyssey-erp/stockdesk/internal/platform/cache"
	"github.com/odyssey-erp/stockdesk/internal/refdata"
	"github.com/odyssey-erp/stockdesk/jobs"
)

func main() {
	_ = godotenv.Load()
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
	if cfg.ServiceToken == "" {
		logger.Warn("SERVICE_TOKEN is empty, warm runs will fail upstream authentication")
	}
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
	refMetrics, err := refdata.NewMetrics(metrics.Registerer())
	if err != nil {
		logger.Error("register refdata metrics", slog.Any("error", err))
		os.Exit(1)
	}
	loader := refdata.NewLoader(upstream, refdata.NewCache(redisClient, cfg.RefDataTTL), refMetrics, logger)
	warmJob := jobs.NewRefDataWarmJob(loader, logger, nil)

	warmTask, err := jobs.NewRefDataWarmTask("cron")
	if err != nil {
		logger.Error("build warm task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRefDataWarm, Handler: warmJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.RefDataWarmCron, Task: warmTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
