// Package cache provides the redis-backed utility rate cache and the
// Idempotency-Key response store, each with an in-memory fallback.
package cache

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrRequestInFlight is returned when a request with the same idempotency
// key is still being processed
var ErrRequestInFlight = errors.New("idempotency: request with this key is in progress")

// StoredResponse is the replayable result of a completed request
type StoredResponse struct {
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	Fingerprint string    `json:"fingerprint"`
	StoredAt    time.Time `json:"stored_at"`
}

// Replayable reports whether the response should be served again for a
// repeated key. Server errors are never cached.
func (r *StoredResponse) Replayable() bool {
	return r != nil && r.Status < http.StatusInternalServerError
}

// IdempotencyStore keeps the first response for each idempotency key.
//
// Reserve claims a key. It returns the stored response when the key has
// already completed, ErrRequestInFlight while another request holds it, and
// (nil, nil) when the caller now owns the key and must either Complete or
// Release it.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (*StoredResponse, error)
	Complete(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	Release(ctx context.Context, key string) error
	Close() error
}
