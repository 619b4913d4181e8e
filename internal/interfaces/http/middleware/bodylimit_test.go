package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	echo := func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusBadRequest, "body too large")
			return
		}
		c.String(http.StatusOK, "ok")
	}

	tests := []struct {
		name          string
		limit         int64
		body          string
		contentLength int64
		wantStatus    int
		wantBody      string
	}{
		{name: "within limit", limit: 1024, body: `{"amount":"500"}`, contentLength: 16, wantStatus: http.StatusOK},
		{name: "declared length too large", limit: 100, body: strings.Repeat("x", 200), contentLength: 200, wantStatus: http.StatusRequestEntityTooLarge, wantBody: "REQUEST_TOO_LARGE"},
		{name: "streamed body too large", limit: 50, body: strings.Repeat("x", 100), contentLength: -1, wantStatus: http.StatusBadRequest},
		{name: "zero limit disables the check", limit: 0, body: strings.Repeat("x", 100), contentLength: 100, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RequestID(), BodyLimit(tt.limit))
			router.POST("/payments", echo)

			req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
				assert.Contains(t, w.Body.String(), w.Header().Get(RequestIDHeader))
			}
		})
	}
}
