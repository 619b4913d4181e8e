package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestLimiter(limit int, every time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, every)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_Window(t *testing.T) {
	rl, clock := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("p1"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("p1"))
	assert.Equal(t, 0, rl.Remaining("p1"))

	assert.True(t, rl.Allow("p2"), "keys are independent")
	assert.Equal(t, 2, rl.Remaining("p2"))

	clock.t = clock.t.Add(time.Minute)
	assert.Equal(t, 3, rl.Remaining("p1"))
	assert.True(t, rl.Allow("p1"))
}

func TestRateLimiter_PrunesIdleKeys(t *testing.T) {
	rl, clock := newTestLimiter(1, time.Second)
	rl.Allow("old")

	clock.t = clock.t.Add(5 * time.Second)
	rl.Allow("new")

	_, exists := rl.clients["old"]
	assert.False(t, exists)
	assert.Len(t, rl.clients, 1)
}

func TestRateLimitByProperty(t *testing.T) {
	rl, _ := newTestLimiter(2, time.Minute)
	busy, quiet := uuid.New(), uuid.New()

	r := gin.New()
	r.Use(RequestID())
	scoped := r.Group("/api/v1/properties/:property_id", PropertyScope(false))
	scoped.POST("/invoices/send", RateLimitByProperty(rl), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(pid uuid.UUID) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/properties/"+pid.String()+"/invoices/send", nil))
		return w
	}

	w := send(busy)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send(busy).Code)

	w = send(busy)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusOK, send(quiet).Code)
}
