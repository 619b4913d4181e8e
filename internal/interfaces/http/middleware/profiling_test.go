package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/dormbill/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProfiling_AttachesLabels(t *testing.T) {
	propertyID := uuid.New()
	got := map[string]string{}

	r := gin.New()
	scoped := r.Group("/api/v1/properties/:property_id", PropertyScope(false), Profiling(true))
	scoped.POST("/invoices/:invoice_id/payments", func(c *gin.Context) {
		for _, key := range []string{
			telemetry.ProfilingLabelMethod,
			telemetry.ProfilingLabelRoute,
			telemetry.ProfilingLabelController,
			telemetry.ProfilingLabelPropertyID,
		} {
			if v, ok := pprof.Label(c.Request.Context(), key); ok {
				got[key] = v
			}
		}
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost,
		"/api/v1/properties/"+propertyID.String()+"/invoices/"+uuid.NewString()+"/payments", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, map[string]string{
		telemetry.ProfilingLabelMethod:     http.MethodPost,
		telemetry.ProfilingLabelRoute:      "/api/v1/properties/:property_id/invoices/:invoice_id/payments",
		telemetry.ProfilingLabelController: "invoices",
		telemetry.ProfilingLabelPropertyID: propertyID.String(),
	}, got)
}

func TestProfiling_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(Profiling(false))
	r.GET("/health", func(c *gin.Context) {
		_, ok := pprof.Label(c.Request.Context(), telemetry.ProfilingLabelRoute)
		assert.False(t, ok)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractControllerFromRoute(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"/api/v1/properties/:property_id/meter-cycles", "meter-cycles"},
		{"/api/v1/properties/:property_id/meter-cycles/:cycle_id/candidates", "meter-cycles"},
		{"/api/v1/properties/:property_id/invoices/:invoice_id/lines/:line_id", "invoices"},
		{"/api/v1/health", "health"},
		{"/swagger/*any", "swagger"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			assert.Equal(t, tt.want, extractControllerFromRoute(tt.route))
		})
	}
}

func TestIsVersionSegment(t *testing.T) {
	assert.True(t, isVersionSegment("v1"))
	assert.True(t, isVersionSegment("V12"))
	assert.False(t, isVersionSegment("v"))
	assert.False(t, isVersionSegment("vat"))
	assert.False(t, isVersionSegment("invoices"))
}
