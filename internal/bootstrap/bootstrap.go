// Package bootstrap builds the infrastructure shared by the binaries: the
// database pool, the catalog cache, the analytics recorder and the model.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crm_messaging_backend/internal/analytics"
	"crm_messaging_backend/internal/evaluation"
	"crm_messaging_backend/internal/evaluation/agent"
	"crm_messaging_backend/internal/evaluation/catalog"
	"crm_messaging_backend/internal/evaluation/domain"
	"crm_messaging_backend/internal/events"
	"crm_messaging_backend/migrations"
	"crm_messaging_backend/platform/ai/openaicompat"
	"crm_messaging_backend/platform/cache"
	"crm_messaging_backend/platform/config"
	"crm_messaging_backend/platform/db"
	"crm_messaging_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	retryAttempts  = 5
	retryBaseDelay = 2 * time.Second
)

// Options selects the optional startup steps.
type Options struct {
	RunMigrations bool
}

// Infra holds the opened infrastructure and the evaluation engine built on it.
type Infra struct {
	Pool     *pgxpool.Pool
	Bus      *events.InMemoryBus
	Engine   *evaluation.Engine
	Recorder *analytics.AsyncRecorder

	redis *redis.Client
	kafka *analytics.KafkaSink
	log   *logger.Logger
}

// Open connects to Postgres (retrying), optionally migrates, then wires the
// cache, analytics sinks and model into an evaluation engine. Redis and Kafka
// are optional; failures to reach them are logged and the feature disabled.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (*Infra, error) {
	defaults, err := domain.LoadDefaultsFile(cfg.GetEvaluationDefaultsFile())
	if err != nil {
		return nil, err
	}

	infra := &Infra{log: log}
	if err := WithRetry(ctx, log, "database connection", retryAttempts, retryBaseDelay, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		infra.Pool = p
		return nil
	}); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("database connection established")

	if opts.RunMigrations {
		if err := WithRetry(ctx, log, "database migrations", retryAttempts, retryBaseDelay, func() error {
			return db.RunMigrations(ctx, infra.Pool, migrations.FS)
		}); err != nil {
			infra.Pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Info("database migrations complete")
	}

	infra.Bus = events.NewInMemoryBus(log)
	infra.Recorder = analytics.NewAsyncRecorder(log, cfg.GetAnalyticsWorkers(), cfg.GetAnalyticsQueueSize(), infra.sinks(cfg)...)

	infra.Engine = evaluation.NewEngine(
		infra.Pool,
		NewEvaluator(cfg, log),
		infra.catalogCache(ctx, cfg),
		infra.Recorder,
		infra.Bus,
		defaults,
		log,
	)
	return infra, nil
}

// NewEvaluator builds the model client from the process defaults. Tenants
// with their own LLM configuration get a derived client sharing the limiter.
func NewEvaluator(cfg config.LLMConfig, log *logger.Logger) *agent.Evaluator {
	var limiter *rate.Limiter
	if cfg.GetLLMRatePerSecond() > 0 {
		burst := cfg.GetLLMBurst()
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.GetLLMRatePerSecond()), burst)
	}
	base := openaicompat.Config{
		APIKey:  cfg.GetLLMAPIKey(),
		BaseURL: cfg.GetLLMBaseURL(),
		Model:   cfg.GetLLMModel(),
		Timeout: cfg.GetLLMTimeout(),
		Limiter: limiter,
	}
	return agent.NewEvaluator(openaicompat.NewModel(base), agent.OpenAICompatFactory(base), log)
}

func (i *Infra) sinks(cfg *config.Config) []analytics.Sink {
	sinks := []analytics.Sink{analytics.NewPostgresSink(i.Pool)}
	if !cfg.IsKafkaEnabled() {
		return sinks
	}
	k, err := analytics.NewKafkaSink(cfg)
	if err != nil {
		i.log.Warn("kafka analytics sink disabled", "error", err)
		return sinks
	}
	i.kafka = k
	i.log.Info("kafka analytics sink enabled", "topic", cfg.GetKafkaEventsTopic())
	return append(sinks, k)
}

func (i *Infra) catalogCache(ctx context.Context, cfg config.CacheConfig) catalog.Cache {
	if !cfg.IsCatalogCacheEnabled() {
		return catalog.NopCache{}
	}
	client, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		i.log.Warn("catalog cache disabled", "error", err)
		return catalog.NopCache{}
	}
	i.redis = client
	return catalog.NewRedisCache(client, cfg.GetCatalogCacheTTL())
}

// Close flushes pending analytics and releases connections in reverse order.
func (i *Infra) Close(ctx context.Context) {
	if i.Recorder != nil {
		if err := i.Recorder.Close(ctx); err != nil {
			i.log.Warn("analytics recorder did not drain", "error", err, "dropped", i.Recorder.Dropped())
		}
	}
	if i.kafka != nil {
		_ = i.kafka.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.Pool != nil {
		i.Pool.Close()
	}
}

// WithRetry calls fn up to attempts times with quadratic backoff.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
