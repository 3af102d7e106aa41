package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"bossai/internal/bootstrap"
	"bossai/internal/cache"
	"bossai/internal/http/handlers"
	httpapi "bossai/internal/http/httpapi"
	"bossai/internal/infra"
	"bossai/internal/infra/geoip"
	"bossai/internal/infra/google"
	"bossai/internal/queue"
	"bossai/internal/storage"
	"bossai/internal/ws"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	if cfg.AppEnv == "development" {
		if err := bootstrap.EnsureSchema(ctx, runner); err != nil {
			logger.Fatal().Err(err).Msg("schema bootstrap failed")
		}
		if err := bootstrap.SeedDemo(ctx, runner, logger); err != nil {
			logger.Fatal().Err(err).Msg("demo seed failed")
		}
	}

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer rdb.Close()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid redis url for task queue")
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	// The hub fans events out to connected sockets; the subscriber
	// re-broadcasts worker-side transitions arriving over Redis.
	hub := ws.NewHub(logger)
	go hub.Run(ctx)
	go ws.NewRedisSubscriber(rdb, hub, logger).Run(ctx)

	app := &handlers.App{
		SQL:      runner,
		Logger:   logger,
		Config:   cfg,
		Cache:    cache.New(cache.NewRedisStore(rdb), logger),
		Enqueuer: queue.NewEnqueuer(asynqClient, logger),
		Events:   ws.NewHubPublisher(hub),
		Hub:      hub,
		DB:       handlers.PingerFunc(pool.Ping),
		Redis:    handlers.PingerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	}
	if cfg.GoogleClientID != "" {
		app.GoogleVerifier = google.NewVerifier(cfg.GoogleIssuer, cfg.GoogleClientID)
	}
	if cfg.GeoIPDBPath != "" {
		geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("geoip database unavailable")
		} else {
			app.Geo = geo
		}
	}
	if exports, err := storage.NewFileStore(cfg.ExportDir); err != nil {
		logger.Warn().Err(err).Str("dir", cfg.ExportDir).Msg("export archive disabled")
	} else {
		app.Exports = exports
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	cancel()
	logger.Info().Msg("server stopped")
}
