package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/infrastructure/storage/postgres"
	"smartsupply/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

// IdempotencyStore persists idempotency keys and the responses they produced.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	Release(ctx context.Context, key string) error
}

// captureWriter tees the response body so it can be stored for replay.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency middleware protects against duplicate requests.
// Used for POST/PUT/PATCH operations that should be idempotent. It must run
// outside ErrorHandler so it sees the final envelope.
//
// 2xx responses are stored as success and 4xx as failed; both replay verbatim.
// 5xx, 428 and panics release the key so the client may retry.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, err := io.ReadAll(limited)
		if err != nil {
			logger.Warn(c.Request.Context(), "idempotent request body unreadable", "error", err)
			writeError(c, http.StatusBadRequest, apperror.NewValidation("request body could not be read"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency").
				WithDetail("max_bytes", maxIdempotencyBodyBytes)
			writeError(c, http.StatusRequestEntityTooLarge, appErr)
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		operation := c.Request.Method + " " + c.FullPath()

		ctx := c.Request.Context()
		replay, err := store.AcquireKey(ctx, key, operation, requestHash)
		if err != nil {
			appErr, ok := apperror.AsAppError(err)
			if !ok {
				logger.Error(ctx, "idempotency acquire failed", "error", err)
				appErr = apperror.NewInternal(nil).WithDetail("component", "idempotency")
			}
			writeError(c, appErr.HTTPStatus, appErr)
			c.Abort()
			return
		}

		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w

		// Completion must survive a cancelled request context.
		finishCtx := context.WithoutCancel(ctx)
		finished := false
		defer func() {
			if !finished {
				if err := store.Release(finishCtx, key); err != nil {
					logger.Warn(finishCtx, "idempotency release failed", "key", key, "error", err)
				}
			}
		}()

		c.Next()

		status := w.Status()
		contentType := w.Header().Get("Content-Type")
		var finishErr error
		switch {
		case status >= 200 && status < 300:
			finishErr = store.CompleteKey(finishCtx, key, status, contentType, w.body.Bytes())
		case status >= 400 && status < 500 && status != http.StatusPreconditionRequired:
			finishErr = store.FailKey(finishCtx, key, status, contentType, w.body.Bytes())
		default:
			return
		}
		finished = true
		if finishErr != nil {
			logger.Warn(finishCtx, "idempotency finish failed", "key", key, "status", status, "error", finishErr)
		}
	}
}
