package bootstrap

import (
	"context"
	"os"
	"sync"

	"triage_server/adapter/in/worker"
	"triage_server/config"
	"triage_server/internal/stream"
	"triage_server/pkg/logger"

	"github.com/rs/zerolog"
)

type Worker struct {
	pool     *worker.Pool
	consumer *stream.Consumer
	deps     *Dependencies
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	zlog     zerolog.Logger
}

func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "worker").Logger()

	// Processors
	evaluationProcessor := worker.NewEvaluationProcessor(deps.MetricsService)
	conversationProcessor := worker.NewConversationProcessor(deps.ConversationService)

	handler := worker.NewHandler(evaluationProcessor, conversationProcessor)

	defaultConfig := worker.DefaultPoolConfig()
	poolConfig := &worker.PoolConfig{
		Workers:          cfg.PoolWorkers,
		BatchSize:        cfg.PoolBatchSize,
		WorkerChanSize:   cfg.PoolWorkerChanSize,
		MaxRetries:       cfg.PoolMaxRetries,
		JobTimeout:       defaultConfig.JobTimeout,
		JobTimeoutByType: defaultConfig.JobTimeoutByType,
	}
	if poolConfig.Workers == 0 {
		poolConfig.Workers = defaultConfig.Workers
	}
	if poolConfig.BatchSize == 0 {
		poolConfig.BatchSize = defaultConfig.BatchSize
	}
	if poolConfig.WorkerChanSize == 0 {
		poolConfig.WorkerChanSize = defaultConfig.WorkerChanSize
	}

	pool := worker.NewPool(handler, poolConfig, zlog)

	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		pool:   pool,
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
		zlog:   zlog,
	}

	// Redis Stream consumer (only when Redis is available)
	if deps.Stream != nil {
		w.consumer = stream.NewConsumer(deps.Stream, handler, pool, cfg.ConsumerName)
		logger.Info("Redis Stream consumer configured (group: %s, consumer: %s)",
			cfg.ConsumerGroup, cfg.ConsumerName)
	} else {
		logger.Warn("Redis not available, worker will only process direct submissions")
	}

	return w, cleanup, nil
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pool.Start()
	}()

	if w.consumer != nil {
		w.zlog.Info().Msg("Starting Redis Stream consumer...")
		w.consumer.Start(w.ctx)
	}

	// Block until context is cancelled
	<-w.ctx.Done()
}

func (w *Worker) Stop() {
	w.cancel()
	w.pool.Stop()
	w.wg.Wait()
}

func (w *Worker) Submit(msg *worker.Message) bool {
	return w.pool.Submit(msg)
}

func (w *Worker) GetMetrics() worker.PoolMetrics {
	return w.pool.GetMetrics()
}

func (w *Worker) Dependencies() *Dependencies {
	return w.deps
}
