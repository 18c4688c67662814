// Package main is the entry point for the stock ledger background worker.
// It relays outbox events and expires idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"stockledger/internal/config"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting stockledger worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DB.ConnectionString())
	poolCfg.ApplicationName = "stockledger-worker"
	poolCfg.MaxConns = 5
	poolCfg.MinConns = 1
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool, cfg.DB.StatementTimeout)

	batchSize := cfg.Worker.OutboxBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	worker := NewWorker(
		postgres.NewOutboxRelay(pool, batchSize, &logHandler{log: log.WithComponent("outbox")}),
		postgres.NewIdempotencyStore(txManager, cfg.HTTP.IdempotencyTTL),
		pool,
		cfg.Worker,
		log,
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Relay moves outbox messages to their consumers.
type Relay interface {
	ProcessBatch(ctx context.Context) (int, error)
	MoveToDLQ(ctx context.Context) (int64, error)
}

// KeyCleaner removes expired idempotency keys.
type KeyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Worker runs the periodic jobs.
type Worker struct {
	relay Relay
	keys  KeyCleaner
	pool  *postgres.Pool
	cfg   config.WorkerConfig
	log   *logger.Logger
}

// NewWorker creates a worker. pool is only used for stats logging and may
// be nil.
func NewWorker(relay Relay, keys KeyCleaner, pool *postgres.Pool, cfg config.WorkerConfig, log *logger.Logger) *Worker {
	if cfg.OutboxInterval <= 0 {
		cfg.OutboxInterval = 5 * time.Second
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	if cfg.OutboxBatchSize <= 0 {
		cfg.OutboxBatchSize = 100
	}
	return &Worker{
		relay: relay,
		keys:  keys,
		pool:  pool,
		cfg:   cfg,
		log:   log.WithComponent("worker"),
	}
}

// Run blocks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	outboxTicker := time.NewTicker(w.cfg.OutboxInterval)
	defer outboxTicker.Stop()

	cleanupTicker := time.NewTicker(w.cfg.CleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-outboxTicker.C:
			w.drainOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

// drainOutbox processes full batches until the queue is empty.
func (w *Worker) drainOutbox(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Debugw("processed outbox batch", "count", n)
		}
		if n < w.cfg.OutboxBatchSize {
			return
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if moved, err := w.relay.MoveToDLQ(ctx); err != nil {
		w.log.Errorw("failed to move outbox messages to DLQ", "error", err)
	} else if moved > 0 {
		w.log.Warnw("moved outbox messages to DLQ", "count", moved)
	}

	if removed, err := w.keys.CleanupExpired(ctx); err != nil {
		w.log.Errorw("failed to clean up idempotency keys", "error", err)
	} else if removed > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", removed)
	}

	if w.pool != nil {
		postgres.LogPoolStats(logger.WithLogger(ctx, w.log), w.pool.Pool)
	}
}

// logHandler is the outbox consumer: it writes each event to the log.
type logHandler struct {
	log *logger.Logger
}

func (h *logHandler) Handle(_ context.Context, msg *postgres.OutboxMessage) error {
	h.log.Infow("event",
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
		"payload", string(msg.Payload),
	)
	return nil
}
