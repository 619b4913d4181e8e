package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dormbill/backend/internal/infrastructure/cache"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotencyReplayedHeader = "Idempotent-Replayed"
	MaxIdempotencyKeyLength   = 255
)

// Idempotency replays the first response recorded for an Idempotency-Key
// header. Keys are scoped to the property. Reusing a key for a different
// request is rejected with IDEMPOTENCY_KEY_REUSED, and a key whose first
// request is still running yields REQUEST_IN_FLIGHT. Server errors release
// the key so the client may retry. Requests without the header pass through.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			abortWithError(c, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			abortWithError(c, dto.ErrCodeBadRequest, "Failed to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		log := logger.L(ctx)
		storeKey := scopedIdempotencyKey(c, key)
		fingerprint := requestFingerprint(c.Request.Method, c.Request.URL.Path, body)

		stored, err := store.Reserve(ctx, storeKey, ttl)
		switch {
		case errors.Is(err, cache.ErrRequestInFlight):
			abortWithError(c, dto.ErrCodeInFlight, "A request with this Idempotency-Key is still being processed")
			return
		case err != nil:
			log.Warn("Idempotency store unavailable, processing without replay protection", zap.Error(err))
			c.Next()
			return
		case stored != nil:
			if stored.Fingerprint != fingerprint {
				abortWithError(c, dto.ErrCodeKeyReused, "Idempotency-Key was already used for a different request")
				return
			}
			if stored.Replayable() {
				c.Header(IdempotencyReplayedHeader, "true")
				c.Data(stored.Status, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
		}

		recorder := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		// the client may have gone away; the outcome must still be recorded
		cleanupCtx := context.WithoutCancel(ctx)
		status := recorder.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Release(cleanupCtx, storeKey); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
			return
		}
		resp := cache.StoredResponse{
			Status:      status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
			Fingerprint: fingerprint,
			StoredAt:    time.Now().UTC(),
		}
		if err := store.Complete(cleanupCtx, storeKey, resp, ttl); err != nil {
			log.Warn("Failed to store idempotent response", zap.Error(err))
		}
	}
}

func scopedIdempotencyKey(c *gin.Context, key string) string {
	if propertyID, ok := GetPropertyID(c); ok {
		return propertyID.String() + ":" + key
	}
	return key
}

func requestFingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// responseRecorder tees the response body so it can be stored
type responseRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
