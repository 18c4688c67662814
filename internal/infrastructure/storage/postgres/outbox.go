package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/events"
	"stockledger/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"`
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// OutboxPublisher writes domain events to sys_outbox in the caller's
// transaction, so an event exists exactly when its stock change committed.
type OutboxPublisher struct {
	txManager *TxManager
}

var _ events.Publisher = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish writes an event to the outbox within the current transaction.
func (p *OutboxPublisher) Publish(ctx context.Context, event events.Event) error {
	tx, err := p.txManager.RequireTx(ctx, "outbox publish")
	if err != nil {
		return err
	}

	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id.New(), event.AggregateType, event.AggregateID, event.EventType, payloadBytes, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}

	return nil
}

// OutboxRelay reads and processes messages from the outbox.
// Used by the background worker.
type OutboxRelay struct {
	pool       *pgxpool.Pool
	batchSize  int
	maxRetries int
	handler    OutboxHandler
}

// OutboxHandler processes outbox messages.
type OutboxHandler interface {
	// Handle processes a message and returns error if failed
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(pool *Pool, batchSize int, handler OutboxHandler) *OutboxRelay {
	return &OutboxRelay{
		pool:       pool.Pool,
		batchSize:  batchSize,
		maxRetries: 5,
		handler:    handler,
	}
}

// ProcessBatch fetches and processes pending messages.
// The rows stay locked (FOR UPDATE SKIP LOCKED) until the batch
// transaction ends, so parallel workers never handle the same message.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin outbox batch: %w", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
		       retry_count, last_error, next_retry_at, created_at, published_at
		FROM sys_outbox
		WHERE status = $1
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, OutboxStatusPending, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox messages: %w", err)
	}

	var messages []*OutboxMessage
	for rows.Next() {
		var msg OutboxMessage
		err := rows.Scan(
			&msg.ID, &msg.AggregateType, &msg.AggregateID, &msg.EventType,
			&msg.Payload, &msg.Status, &msg.RetryCount, &msg.LastError,
			&msg.NextRetryAt, &msg.CreatedAt, &msg.PublishedAt,
		)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan outbox message: %w", err)
		}
		messages = append(messages, &msg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate outbox messages: %w", err)
	}

	processed := 0
	for _, msg := range messages {
		if err := r.processMessage(ctx, tx, msg); err != nil {
			logger.Warn(ctx, "outbox message failed",
				"id", msg.ID.String(), "event_type", msg.EventType, "error", err)
			continue
		}
		processed++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit outbox batch: %w", err)
	}
	return processed, nil
}

// processMessage handles a single outbox message.
func (r *OutboxRelay) processMessage(ctx context.Context, q Querier, msg *OutboxMessage) error {
	err := r.handler.Handle(ctx, msg)

	if err != nil {
		// Linear backoff, one minute per attempt.
		nextRetry := time.Now().Add(time.Duration(msg.RetryCount+1) * time.Minute)

		_, updateErr := q.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = retry_count + 1,
			    last_error = $1,
			    next_retry_at = $2,
			    status = CASE WHEN retry_count + 1 >= $3 THEN $4 ELSE status END
			WHERE id = $5
		`, err.Error(), nextRetry, r.maxRetries, OutboxStatusFailed, msg.ID)
		if updateErr != nil {
			return fmt.Errorf("update failed message: %w", updateErr)
		}
		return err
	}

	_, err = q.Exec(ctx, `
		UPDATE sys_outbox
		SET status = $1, published_at = $2
		WHERE id = $3
	`, OutboxStatusPublished, time.Now().UTC(), msg.ID)

	return err
}

// MoveToDLQ moves failed messages to dead letter queue.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox
			WHERE status = $1
			RETURNING *
		)
		INSERT INTO sys_outbox_dlq
		SELECT *, NOW() AS failed_at, last_error AS failure_reason FROM moved
	`, OutboxStatusFailed)
	
	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}
	
	return result.RowsAffected(), nil
}
