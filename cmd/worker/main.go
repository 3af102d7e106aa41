package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"bossai/internal/cache"
	"bossai/internal/infra"
	"bossai/internal/infra/credentials"
	"bossai/internal/providers"
	"bossai/internal/queue"
	"bossai/internal/ws"
)

const (
	stuckAfter     = 30 * time.Minute
	requeueAfter   = 2 * time.Minute
	purgeAfterDays = 90
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: redis connection failed")
	}
	defer rdb.Close()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: invalid redis uri")
	}

	router := buildRouter(ctx, cfg, runner, logger)
	if len(router.Names()) == 0 {
		logger.Fatal().Msg("worker: no generation providers registered")
	}
	logger.Info().Strs("providers", router.Names()).Msg("worker: providers registered")

	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	enqueuer := queue.NewEnqueuer(asynqClient, logger)
	events := ws.NewRedisPublisher(rdb)
	tier := cache.New(cache.NewRedisStore(rdb), logger)

	processor := &queue.Processor{
		SQL:        runner,
		Generator:  router,
		Events:     events,
		Cache:      tier,
		Scheduler:  enqueuer,
		Logger:     logger,
		JobTimeout: cfg.JobTimeout,
	}

	reaper := &queue.Reaper{
		SQL:            runner,
		Scheduler:      enqueuer,
		Events:         events,
		Cache:          tier,
		Logger:         logger,
		StuckAfter:     stuckAfter,
		RequeueAfter:   requeueAfter,
		PurgeAfterDays: purgeAfterDays,
	}
	schedule, err := reaper.Start()
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to start maintenance schedule")
	}
	defer schedule.Stop()

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      queue.QueuePriorities,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("type", task.Type()).Msg("worker: task failed")
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeGenerationProcess, processor.HandleGenerationTask)

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker: started")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// buildRouter registers every provider that has a positive weight and a
// usable credential. API keys come from the environment first, then from
// the provider_credentials table.
func buildRouter(ctx context.Context, cfg *infra.Config, runner *infra.SQLRunner, logger zerolog.Logger) *providers.Router {
	creds := credentials.NewStore(runner)
	router := providers.NewRouter(logger)

	if w := cfg.ProviderWeights[providers.NameOpenAI]; w > 0 {
		key := resolveKey(ctx, cfg.OpenAIAPIKey, providers.NameOpenAI, creds, logger)
		if key == "" {
			logger.Warn().Msg("worker: openai api key missing, provider disabled")
		} else {
			gen, err := providers.NewOpenAIGenerator(providers.OpenAIOptions{
				APIKey:  key,
				Model:   cfg.OpenAIModel,
				BaseURL: cfg.OpenAIBaseURL,
			})
			if err != nil {
				logger.Warn().Err(err).Msg("worker: failed to configure openai provider")
			} else {
				router.Register(gen, w)
			}
		}
	}

	if w := cfg.ProviderWeights[providers.NameGemini]; w > 0 {
		key := resolveKey(ctx, cfg.GeminiAPIKey, providers.NameGemini, creds, logger)
		if key == "" {
			logger.Warn().Msg("worker: gemini api key missing, provider disabled")
		} else {
			gen, err := providers.NewGeminiGenerator(ctx, providers.GeminiOptions{
				APIKey: key,
				Model:  cfg.GeminiModel,
			})
			if err != nil {
				logger.Warn().Err(err).Msg("worker: failed to configure gemini provider")
			} else {
				router.Register(gen, w)
			}
		}
	}

	if w := cfg.ProviderWeights[providers.NameWebhook]; w > 0 {
		client := &http.Client{Timeout: cfg.WebhookTimeout}
		router.Register(providers.NewWebhookGenerator(runner, client), w)
	}

	return router
}

func resolveKey(ctx context.Context, envKey, provider string, creds *credentials.Store, logger zerolog.Logger) string {
	if key := strings.TrimSpace(envKey); key != "" {
		return key
	}
	key, err := creds.APIKey(ctx, provider)
	if err != nil {
		logger.Warn().Err(err).Str("provider", provider).Msg("worker: failed to load api key from store")
		return ""
	}
	return strings.TrimSpace(key)
}
