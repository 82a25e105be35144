package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/ivgord/stockfolio/config"
	"github.com/ivgord/stockfolio/data"
	"github.com/ivgord/stockfolio/data/cache"
	"github.com/ivgord/stockfolio/data/repository/postgres"
	"github.com/ivgord/stockfolio/data/session"
	"github.com/ivgord/stockfolio/internal/externalApi/chartApi"
	"github.com/ivgord/stockfolio/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/ivgord/stockfolio/internal/reportGenerator/xlsxGenerator"
	"github.com/ivgord/stockfolio/internal/scheduler"
	"github.com/ivgord/stockfolio/internal/service/portfolioService"
	"github.com/ivgord/stockfolio/internal/transport/cli"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSession := session.NewRedisSession(redisClient, cfg)

	chartApiClient := chartApi.New(cfg)

	reportGenerator := xlsxGenerator.New()

	var cloudStorage portfolioService.CloudStorage
	if cfg.GoogleDrive.Enabled {
		cloudStorage = googleDriveApi.New(ctx, cfg)
	}

	portfolioSrv := portfolioService.New(cfg, pgRepo, redisCache, chartApiClient, reportGenerator, cloudStorage)

	sched := scheduler.New()
	sched.NewIntervalJob("warm quotes cache", portfolioSrv.WarmQuotesCache, cfg.Jobs.WarmQuotesInterval, true)
	sched.Start()
	defer sched.Stop()

	controller := cli.NewController(cfg, portfolioSrv, redisSession, uuid.NewString(), os.Stdin, os.Stdout)

	app := cli.NewApp(controller)
	if err := app.Run(ctx); err != nil {
		slog.Error("app stopped with error", slog.String("err", err.Error()))
	}
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
