package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"smartsupply/internal/core/apperror"
)

// IdempotencyStatus represents the state of an idempotent operation.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// staleAfter is how long a pending key may sit before another request reclaims it.
const staleAfter = time.Minute

// IdempotencyRecord stores the result of an idempotent operation.
type IdempotencyRecord struct {
	Key         string            `db:"idempotency_key"`
	Operation   string            `db:"operation"`
	Status      IdempotencyStatus `db:"status"`
	RequestHash string            `db:"request_hash"` // SHA256 of request body
	Response    []byte            `db:"response"`
	StatusCode  *int              `db:"response_status"`
	ContentType *string           `db:"response_content_type"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
	ExpiresAt   time.Time         `db:"expires_at"`
	Inserted    bool              `db:"inserted"`
}

// IdempotencyReplay is the cached HTTP response for replay.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore manages idempotency keys in sys_idempotency.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{txManager: txManager, ttl: ttl}
}

// AcquireKey attempts to acquire an idempotency key.
// Returns:
//   - (nil, nil) if key acquired successfully
//   - (cachedResponse, nil) if operation already completed (success or failed)
//   - (nil, error) if key is held by another request or reused for a different request
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, operation, requestHash string) (*IdempotencyReplay, error) {
	now := time.Now().UTC()
	querier := s.txManager.GetQuerier(ctx)

	var record IdempotencyRecord
	err := querier.QueryRow(ctx, `
		INSERT INTO sys_idempotency (idempotency_key, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $5, $6)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			expires_at = GREATEST(sys_idempotency.expires_at, EXCLUDED.expires_at)
		RETURNING idempotency_key, operation, status, request_hash, response,
		          response_status, response_content_type, updated_at, (xmax = 0) AS inserted
	`, key, operation, IdempotencyStatusPending, requestHash, now, now.Add(s.ttl)).Scan(
		&record.Key, &record.Operation, &record.Status, &record.RequestHash, &record.Response,
		&record.StatusCode, &record.ContentType, &record.UpdatedAt, &record.Inserted,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}

	if record.Inserted {
		return nil, nil
	}

	// Key exists: protect against reuse for a different request.
	if record.Operation != operation || record.RequestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("stored_operation", record.Operation).
			WithDetail("request_operation", operation)
	}

	switch record.Status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return record.replay(), nil

	case IdempotencyStatusPending:
		if now.Sub(record.UpdatedAt) <= staleAfter {
			return nil, apperror.NewIdempotencyConflict(key)
		}
		// Likely a crashed request; reclaim only if nobody else did meanwhile.
		tag, err := querier.Exec(ctx, `
			UPDATE sys_idempotency
			SET updated_at = $1
			WHERE idempotency_key = $2 AND status = $3 AND updated_at = $4
		`, now, key, IdempotencyStatusPending, record.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("reclaim stale key: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, apperror.NewIdempotencyConflict(key)
		}
		return nil, nil
	}

	return nil, nil
}

func (r *IdempotencyRecord) replay() *IdempotencyReplay {
	out := &IdempotencyReplay{StatusCode: http.StatusOK, ContentType: "application/json", Body: r.Response}
	if r.StatusCode != nil && *r.StatusCode != 0 {
		out.StatusCode = *r.StatusCode
	}
	if r.ContentType != nil && *r.ContentType != "" {
		out.ContentType = *r.ContentType
	}
	return out
}

// CompleteKey marks an idempotency key as completed with HTTP response.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, key, IdempotencyStatusSuccess, statusCode, contentType, body)
}

// FailKey marks an idempotency key as failed with HTTP response.
func (s *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	if !json.Valid(body) {
		body, _ = json.Marshal(map[string]string{"error": string(body)})
	}
	return s.finish(ctx, key, IdempotencyStatusFailed, statusCode, contentType, body)
}

func (s *IdempotencyStore) finish(ctx context.Context, key string, status IdempotencyStatus, statusCode int, contentType string, body []byte) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1,
		    response = $2,
		    response_status = $3,
		    response_content_type = $4,
		    updated_at = $5
		WHERE idempotency_key = $6
	`, status, body, statusCode, contentType, time.Now().UTC(), key)
	if err != nil {
		return fmt.Errorf("finish idempotency key: %w", err)
	}
	return nil
}

// Release deletes a pending key so the client may retry, used when the
// handler produced no cacheable response (e.g. panic).
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency WHERE idempotency_key = $1 AND status = $2
	`, key, IdempotencyStatusPending)
	return err
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency WHERE expires_at < $1
	`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
