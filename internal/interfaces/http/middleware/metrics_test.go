package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dormbill/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestHTTPMetrics_DisabledProvider(t *testing.T) {
	for name, provider := range map[string]*telemetry.MeterProvider{
		"nil":      nil,
		"disabled": {},
	} {
		t.Run(name, func(t *testing.T) {
			router := gin.New()
			router.Use(HTTPMetrics(provider))
			router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestHTTPMetricsWithMeter_RequestCounter(t *testing.T) {
	mp, reader := setupTestMeter(t)
	propertyID := uuid.New()

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("test")))
	scoped := router.Group("/api/v1/properties/:property_id", PropertyScope(false))
	scoped.GET("/invoices", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"success": true}) })
	scoped.DELETE("/invoices/unpaid", func(c *gin.Context) { c.JSON(http.StatusConflict, gin.H{"success": false}) })

	base := "/api/v1/properties/" + propertyID.String()
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, base+"/invoices", nil),
		httptest.NewRequest(http.MethodGet, base+"/invoices", nil),
		httptest.NewRequest(http.MethodDelete, base+"/invoices/unpaid", nil),
	} {
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	rm := collectMetrics(t, reader)
	counter := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, counter)

	sum, ok := counter.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byRoute := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
		pid, _ := dp.Attributes.Value(telemetry.AttrPropertyID)
		assert.Equal(t, propertyID.String(), pid.AsString())
		byRoute[route.AsString()] += dp.Value

		status, _ := dp.Attributes.Value(telemetry.AttrHTTPStatusCode)
		class, _ := dp.Attributes.Value(attribute.Key("http.status_class"))
		assert.Equal(t, StatusClass(int(status.AsInt64())), class.AsString())
	}
	assert.Equal(t, int64(2), byRoute["/api/v1/properties/:property_id/invoices"])
	assert.Equal(t, int64(1), byRoute["/api/v1/properties/:property_id/invoices/unpaid"])
}

func TestHTTPMetricsWithMeter_DurationAndSizes(t *testing.T) {
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("test")))
	router.POST("/payments", func(c *gin.Context) {
		c.String(http.StatusCreated, strings.Repeat("x", 600))
	})

	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"method":"cash"}`))
	router.ServeHTTP(httptest.NewRecorder(), req)

	rm := collectMetrics(t, reader)
	for _, name := range []string{
		"http_server_request_duration_seconds",
		"http_server_request_size_bytes",
		"http_server_response_size_bytes",
	} {
		m := findMetricByName(rm, name)
		require.NotNil(t, m, name)
		hist, ok := m.Data.(metricdata.Histogram[float64])
		require.True(t, ok, name)
		require.Len(t, hist.DataPoints, 1, name)
		assert.Equal(t, uint64(1), hist.DataPoints[0].Count, name)
	}

	resp := findMetricByName(rm, "http_server_response_size_bytes").Data.(metricdata.Histogram[float64])
	assert.Equal(t, float64(600), resp.DataPoints[0].Sum)
}

func TestHTTPMetricsWithMeter_ActiveRequestsReturnToZero(t *testing.T) {
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("test")))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rm := collectMetrics(t, reader)
	active := findMetricByName(rm, "http_server_active_requests")
	require.NotNil(t, active)
	sum := active.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}

func TestHTTPMetricsWithMeter_UnmatchedRoute(t *testing.T) {
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("test")))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	rm := collectMetrics(t, reader)
	counter := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, counter)
	dp := counter.Data.(metricdata.Sum[int64]).DataPoints[0]
	route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
	assert.Equal(t, "unknown", route.AsString())
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		201: "2xx",
		304: "3xx",
		404: "4xx",
		409: "4xx",
		500: "5xx",
		100: "other",
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusClass(code), code)
	}
}
