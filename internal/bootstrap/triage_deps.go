package bootstrap

import (
	"context"
	"errors"

	"triage_server/adapter/out/mongodb"
	"triage_server/adapter/out/persistence"
	"triage_server/config"
	"triage_server/core/agent/llm"
	"triage_server/core/domain"
	"triage_server/core/port/out"
	"triage_server/core/service/conversation"
	metricsservice "triage_server/core/service/metrics"
	"triage_server/core/service/suggest"
	"triage_server/core/service/triage"
	"triage_server/infra/database"
	"triage_server/internal/stream"
	"triage_server/pkg/cache"
	"triage_server/pkg/logger"
	pkgmetrics "triage_server/pkg/metrics"
	"triage_server/pkg/snowflake"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependencies struct {
	Config  *config.Config
	MongoDB *mongo.Client
	Redis   *redis.Client
	SQLDB   *sqlx.DB

	// Repositories
	ConvRepo      domain.ConversationRepository
	MetricsRepo   out.MetricsRepository
	EvaluationLog out.EvaluationLog

	// Infrastructure
	Cache    out.Cache
	Stream   *stream.RedisStream
	Producer out.EvaluationProducer
	IDGen    *snowflake.Generator

	// Services
	Ranker              *triage.Ranker
	MetricsService      *metricsservice.Service
	ConversationService *conversation.Service
	SuggestService      *suggest.Service
	LLMClient           *llm.Client

	// Observability
	HTTPLatency *pkgmetrics.LatencyRegistry
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// MongoDB holds conversations and the consolidated metrics document.
	if cfg.MongoDBURL == "" {
		return nil, nil, errors.New("MONGODB_URL is required")
	}
	mongoClient, err := mongodb.NewClient(cfg.MongoDBURL, cfg.MongoDBName)
	if err != nil {
		return nil, nil, err
	}
	deps.MongoDB = mongoClient
	cleanups = append(cleanups, func() {
		mongoClient.Disconnect(context.Background())
	})

	mongoDB := mongoClient.Database(cfg.MongoDBName)

	convAdapter := mongodb.NewConversationAdapter(mongoDB)
	if err := convAdapter.EnsureIndexes(context.Background()); err != nil {
		logger.Warn("Failed to ensure conversation indexes: %v", err)
	}
	deps.ConvRepo = convAdapter

	metricsAdapter := mongodb.NewMetricsAdapter(mongoDB)
	if err := metricsAdapter.EnsureIndexes(context.Background()); err != nil {
		logger.Warn("Failed to ensure metrics indexes: %v", err)
	}
	deps.MetricsRepo = metricsAdapter

	// Redis (cache + streams)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed: %v", err)
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })

			deps.Cache = cache.NewRedisCache(redisClient)
			deps.Stream = stream.NewRedisStream(redisClient, cfg.ConsumerGroup)
			deps.Producer = stream.NewProducer(deps.Stream)
			logger.Info("Redis cache and streams initialized")
		}
	} else {
		logger.Warn("REDIS_URL not set, running without cache and async ingestion")
	}

	// Postgres (append-only evaluation archive)
	if cfg.DatabaseURL != "" {
		sqlDB, err := database.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.Warn("Postgres connection failed: %v", err)
		} else {
			deps.SQLDB = sqlDB
			cleanups = append(cleanups, func() { sqlDB.Close() })

			// Register with global pool monitor
			pkgmetrics.RegisterPool("postgres", sqlDB.DB)

			logAdapter := persistence.NewEvaluationLogAdapter(sqlDB)
			if err := logAdapter.EnsureSchema(context.Background()); err != nil {
				logger.Warn("Failed to ensure evaluation_log schema: %v", err)
			}
			deps.EvaluationLog = logAdapter
			logger.Info("Postgres evaluation archive initialized")
		}
	} else {
		logger.Info("DATABASE_URL not set, evaluation archive disabled")
	}

	// ID generation
	idGen, err := snowflake.NewGenerator(cfg.SnowflakeNodeID)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.IDGen = idGen

	// Priority ranker
	deps.Ranker = triage.NewRanker(&triage.RankerConfig{
		UrgencyWeight:  cfg.UrgencyWeight,
		WaitWeight:     cfg.WaitWeight,
		ReopenWeight:   cfg.ReopenWeight,
		CategoryWeight: cfg.CategoryWeight,
		WaitCap:        cfg.WaitCap,
	})

	// Metrics aggregator
	metricsOpts := []metricsservice.Option{
		metricsservice.WithMaxRetries(cfg.AggregatorMaxRetries),
	}
	if deps.EvaluationLog != nil {
		metricsOpts = append(metricsOpts, metricsservice.WithArchive(deps.EvaluationLog))
	}
	if deps.Cache != nil {
		metricsOpts = append(metricsOpts, metricsservice.WithCache(deps.Cache, cfg.MetricsCacheTTL))
	}
	deps.MetricsService = metricsservice.NewService(deps.MetricsRepo, deps.IDGen, metricsOpts...)

	// Conversation service
	deps.ConversationService = conversation.NewService(deps.ConvRepo, deps.Ranker, deps.Producer)

	// Reply suggestions (optional, needs OpenAI)
	if cfg.OpenAIAPIKey != "" {
		deps.LLMClient = llm.NewClient(llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		})
		deps.SuggestService = suggest.NewService(deps.ConvRepo, deps.LLMClient)
		logger.Info("LLM reply suggestions enabled (model: %s)", cfg.LLMModel)
	} else {
		logger.Info("OPENAI_API_KEY not set, reply suggestions disabled")
	}

	deps.HTTPLatency = pkgmetrics.NewLatencyRegistry(1000)

	return deps, cleanup, nil
}
