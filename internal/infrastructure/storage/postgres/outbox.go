package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"smartsupply/internal/core/id"
	"smartsupply/pkg/logger"
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
	ID              id.ID           `db:"id"`
	AggregateType   string          `db:"aggregate_type"` // e.g. "movement"
	AggregateID     id.ID           `db:"aggregate_id"`
	EventType       string          `db:"event_type"` // e.g. "movement.recorded"
	Payload         []byte          `db:"payload"`
	CompressionAlgo CompressionAlgo `db:"compression_algo"`
	Status          OutboxStatus    `db:"status"`
	RetryCount      int             `db:"retry_count"`
	LastError       *string         `db:"last_error"`
	NextRetryAt     *time.Time      `db:"next_retry_at"`
	CreatedAt       time.Time       `db:"created_at"`
	PublishedAt     *time.Time      `db:"published_at"`
}

// DomainEvent represents an event to be published via outbox.
type DomainEvent struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// OutboxPublisher writes events to the outbox table.
type OutboxPublisher struct {
	txManager *TxManager
	codec     *PayloadCodec
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager, codec *PayloadCodec) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager, codec: codec}
}

// Publish writes an event to the outbox within the current transaction.
// MUST be called inside a transaction context.
func (p *OutboxPublisher) Publish(ctx context.Context, event DomainEvent) (id.ID, error) {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return id.Nil(), fmt.Errorf("outbox publish requires transaction context")
	}

	raw, err := json.Marshal(event.Payload)
	if err != nil {
		return id.Nil(), fmt.Errorf("marshal event payload: %w", err)
	}
	payload, algo := p.codec.Encode(raw)

	eventID := id.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, compression_algo, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, eventID, event.AggregateType, event.AggregateID, event.EventType, payload, algo, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return id.Nil(), fmt.Errorf("insert outbox message: %w", err)
	}

	return eventID, nil
}

// OutboxHandler processes outbox messages. Handle receives the decoded payload
// and must tolerate redelivery.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// RelayConfig tunes the relay.
type RelayConfig struct {
	BatchSize   int
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRelayConfig returns 100 messages per batch, 5 retries, 30s..1h backoff.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		BatchSize:   100,
		MaxRetries:  5,
		BaseBackoff: 30 * time.Second,
		MaxBackoff:  time.Hour,
	}
}

// OutboxRelay claims pending messages with FOR UPDATE SKIP LOCKED, so several
// workers can run side by side, and finalizes each one after its handler returns.
type OutboxRelay struct {
	txManager *TxManager
	codec     *PayloadCodec
	handler   OutboxHandler
	cfg       RelayConfig
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, codec *PayloadCodec, handler OutboxHandler, cfg RelayConfig) *OutboxRelay {
	def := DefaultRelayConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	return &OutboxRelay{txManager: txManager, codec: codec, handler: handler, cfg: cfg}
}

// ProcessBatch fetches and processes pending messages.
// Returns number of messages delivered.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var messages []*OutboxMessage
		err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, compression_algo, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, OutboxStatusPending, r.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			if err := r.processMessage(ctx, msg); err != nil {
				logger.Warn(ctx, "outbox delivery failed",
					"event_id", msg.ID,
					"event_type", msg.EventType,
					"retry_count", msg.RetryCount,
					"error", err,
				)
				continue
			}
			processed++
		}
		return nil
	})
	return processed, err
}

func (r *OutboxRelay) processMessage(ctx context.Context, msg *OutboxMessage) error {
	querier := r.txManager.GetQuerier(ctx)

	payload, err := r.codec.Decode(msg.Payload, msg.CompressionAlgo)
	if err == nil {
		decoded := *msg
		decoded.Payload = payload
		err = r.handler.Handle(ctx, &decoded)
	}

	if err != nil {
		retries := msg.RetryCount + 1
		status := OutboxStatusPending
		if retries >= r.cfg.MaxRetries {
			status = OutboxStatusFailed
		}
		_, updateErr := querier.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = $1,
			    last_error = $2,
			    next_retry_at = $3,
			    status = $4
			WHERE id = $5
		`, retries, err.Error(), time.Now().UTC().Add(r.Backoff(msg.RetryCount)), status, msg.ID)
		if updateErr != nil {
			return fmt.Errorf("update failed message: %w", updateErr)
		}
		return err
	}

	_, err = querier.Exec(ctx, `
		UPDATE sys_outbox
		SET status = $1, published_at = $2, last_error = NULL
		WHERE id = $3
	`, OutboxStatusPublished, time.Now().UTC(), msg.ID)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

// Backoff returns the delay before retry number retryCount+1: BaseBackoff
// doubled per previous attempt, capped at MaxBackoff.
func (r *OutboxRelay) Backoff(retryCount int) time.Duration {
	d := r.cfg.BaseBackoff
	for i := 0; i < retryCount; i++ {
		d *= 2
		if d >= r.cfg.MaxBackoff {
			return r.cfg.MaxBackoff
		}
	}
	return d
}

// MoveToDLQ moves failed messages to the dead letter queue.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
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
