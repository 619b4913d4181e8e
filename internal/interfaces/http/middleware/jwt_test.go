package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dormbill/backend/internal/infrastructure/auth"
	"github.com/dormbill/backend/internal/infrastructure/config"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.AuthConfig{
		Enabled: true,
		Secret:  "test-secret-key-at-least-32-chars",
		Issuer:  "dormbill-test",
	})
}

func newTestToken(t *testing.T, svc *auth.JWTService, input auth.GenerateTokenInput) string {
	t.Helper()
	token, _, err := svc.GenerateToken(input)
	require.NoError(t, err)
	return token
}

func newScopedRouter(svc *auth.JWTService, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), JWTAuth(DefaultJWTConfig(svc)))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	scoped := router.Group("/api/v1/properties/:property_id", PropertyScope(true))
	scoped.GET("/invoices", handler)
	return router
}

func TestJWTAuth_ValidTokenForProperty(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()
	propertyID := uuid.New()
	token := newTestToken(t, svc, auth.GenerateTokenInput{
		UserID:      userID,
		Username:    "manager",
		PropertyIDs: []uuid.UUID{propertyID},
	})

	router := newScopedRouter(svc, func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, userID.String(), GetJWTUserID(c))
		assert.Equal(t, userID.String(), logger.GetUserID(c.Request.Context()))

		pid, ok := GetPropertyID(c)
		assert.True(t, ok)
		assert.Equal(t, propertyID, pid)
		assert.Equal(t, propertyID.String(), logger.GetPropertyID(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/"+propertyID.String()+"/invoices", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuth_Rejections(t *testing.T) {
	svc := newTestJWTService()
	managed := uuid.New()
	validToken := newTestToken(t, svc, auth.GenerateTokenInput{UserID: uuid.New(), PropertyIDs: []uuid.UUID{managed}})

	expired := auth.NewJWTService(config.AuthConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "dormbill-test"})
	expiredToken := newTestToken(t, expired, auth.GenerateTokenInput{UserID: uuid.New(), PropertyIDs: []uuid.UUID{managed}, TTL: time.Nanosecond})
	time.Sleep(time.Second)

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"missing header", "/api/v1/properties/" + managed.String() + "/invoices", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"not bearer", "/api/v1/properties/" + managed.String() + "/invoices", "Basic abc", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage token", "/api/v1/properties/" + managed.String() + "/invoices", BearerPrefix + "garbage", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"expired token", "/api/v1/properties/" + managed.String() + "/invoices", BearerPrefix + expiredToken, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"other property", "/api/v1/properties/" + uuid.New().String() + "/invoices", BearerPrefix + validToken, http.StatusForbidden, "FORBIDDEN"},
		{"malformed property id", "/api/v1/properties/not-a-uuid/invoices", BearerPrefix + validToken, http.StatusBadRequest, "INVALID_INPUT"},
	}

	router := newScopedRouter(svc, func(c *gin.Context) {
		t.Error("handler must not run")
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}
}

func TestJWTAuth_SkipPaths(t *testing.T) {
	router := newScopedRouter(newTestJWTService(), func(c *gin.Context) {})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPropertyScope_WithoutAuth(t *testing.T) {
	propertyID := uuid.New()
	router := gin.New()
	router.GET("/api/v1/properties/:property_id/invoices", PropertyScope(false), func(c *gin.Context) {
		pid, ok := GetPropertyID(c)
		assert.True(t, ok)
		assert.Equal(t, propertyID, pid)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/properties/"+propertyID.String()+"/invoices", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
