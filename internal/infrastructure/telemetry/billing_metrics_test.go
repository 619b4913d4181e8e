package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func newTestBillingMetrics(t *testing.T) (*BillingMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewBillingMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func TestNewBillingMetrics_NilMeter(t *testing.T) {
	m, err := NewBillingMetrics(nil)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestBillingMetrics_Record(t *testing.T) {
	m, reader := newTestBillingMetrics(t)
	ctx := context.Background()
	propertyID := uuid.New()

	m.RecordBatchGenerated(ctx, propertyID, 3, decimal.NewFromInt(9930))
	m.RecordPayment(ctx, propertyID, "cash", decimal.NewFromInt(1000))
	m.RecordPayment(ctx, propertyID, "transfer", decimal.NewFromInt(500))
	m.RecordPaymentReversed(ctx, propertyID)
	m.RecordLateFee(ctx, propertyID)
	m.RecordSend(ctx, "email", errors.New("smtp down"))
	m.ObserveOperation(ctx, "GenerateBatch", time.Now().Add(-time.Second), nil)

	data := collect(t, reader)

	generated := data["billing.invoices.generated"].(metricdata.Sum[int64])
	require.Len(t, generated.DataPoints, 1)
	assert.Equal(t, int64(3), generated.DataPoints[0].Value)

	amount := data["billing.invoices.amount"].(metricdata.Sum[float64])
	assert.InDelta(t, 9930.0, amount.DataPoints[0].Value, 0.001)

	payments := data["billing.payments.recorded"].(metricdata.Sum[int64])
	assert.Len(t, payments.DataPoints, 2, "one point per payment method")

	paid := data["billing.payments.amount"].(metricdata.Sum[float64])
	var total float64
	for _, dp := range paid.DataPoints {
		total += dp.Value
	}
	assert.InDelta(t, 1500.0, total, 0.001)

	sent := data["billing.invoices.sent"].(metricdata.Sum[int64])
	require.Len(t, sent.DataPoints, 1)
	v, ok := sent.DataPoints[0].Attributes.Value(AttrOutcome)
	require.True(t, ok)
	assert.Equal(t, "error", v.AsString())

	hist := data["billing.operation.duration"].(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.GreaterOrEqual(t, hist.DataPoints[0].Sum, 1.0)
}

func TestBillingMetrics_NilReceiver(t *testing.T) {
	var m *BillingMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordBatchGenerated(ctx, uuid.New(), 1, decimal.NewFromInt(1))
		m.RecordPayment(ctx, uuid.New(), "cash", decimal.NewFromInt(1))
		m.RecordPaymentReversed(ctx, uuid.New())
		m.RecordLateFee(ctx, uuid.New())
		m.RecordSend(ctx, "pdf", nil)
		m.ObserveOperation(ctx, "x", time.Now(), nil)
	})
}
