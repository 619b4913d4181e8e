package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when BillingMetrics is built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// BillingMetrics records billing activity counters. All methods are safe on
// a nil receiver so services can run without metrics.
type BillingMetrics struct {
	invoicesGenerated *Counter
	invoicedAmount    *FloatCounter
	paymentsRecorded  *Counter
	paymentsReversed  *Counter
	paymentAmount     *FloatCounter
	lateFeesAccrued   *Counter
	invoicesSent      *Counter
	operationDuration *Histogram
}

// NewBillingMetrics creates the billing instruments on meter
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &BillingMetrics{}
	var err error
	if m.invoicesGenerated, err = NewCounter(meter, "billing.invoices.generated", "Invoices created by batch generation", "{invoice}"); err != nil {
		return nil, err
	}
	if m.invoicedAmount, err = NewFloatCounter(meter, "billing.invoices.amount", "Total amount of generated invoices", "{currency}"); err != nil {
		return nil, err
	}
	if m.paymentsRecorded, err = NewCounter(meter, "billing.payments.recorded", "Payments recorded against invoices", "{payment}"); err != nil {
		return nil, err
	}
	if m.paymentsReversed, err = NewCounter(meter, "billing.payments.reversed", "Payments removed from invoices", "{payment}"); err != nil {
		return nil, err
	}
	if m.paymentAmount, err = NewFloatCounter(meter, "billing.payments.amount", "Total amount of recorded payments", "{currency}"); err != nil {
		return nil, err
	}
	if m.lateFeesAccrued, err = NewCounter(meter, "billing.late_fees.accrued", "Late fee lines created or updated", "{line}"); err != nil {
		return nil, err
	}
	if m.invoicesSent, err = NewCounter(meter, "billing.invoices.sent", "Invoice delivery attempts", "{attempt}"); err != nil {
		return nil, err
	}
	if m.operationDuration, err = NewHistogram(meter, "billing.operation.duration", "Billing service operation latency", "s", DurationBuckets...); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordBatchGenerated counts invoices of a generated batch
func (m *BillingMetrics) RecordBatchGenerated(ctx context.Context, propertyID uuid.UUID, invoices int, total decimal.Decimal) {
	if m == nil {
		return
	}
	attr := AttrPropertyID.String(propertyID.String())
	m.invoicesGenerated.Add(ctx, int64(invoices), attr)
	m.invoicedAmount.Add(ctx, total.InexactFloat64(), attr)
}

// RecordPayment counts a recorded payment
func (m *BillingMetrics) RecordPayment(ctx context.Context, propertyID uuid.UUID, method string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrPropertyID.String(propertyID.String()), AttrPaymentMethod.String(method)}
	m.paymentsRecorded.Inc(ctx, attrs...)
	m.paymentAmount.Add(ctx, amount.InexactFloat64(), attrs...)
}

// RecordPaymentReversed counts a deleted payment
func (m *BillingMetrics) RecordPaymentReversed(ctx context.Context, propertyID uuid.UUID) {
	if m == nil {
		return
	}
	m.paymentsReversed.Inc(ctx, AttrPropertyID.String(propertyID.String()))
}

// RecordLateFee counts a late fee upsert
func (m *BillingMetrics) RecordLateFee(ctx context.Context, propertyID uuid.UUID) {
	if m == nil {
		return
	}
	m.lateFeesAccrued.Inc(ctx, AttrPropertyID.String(propertyID.String()))
}

// RecordSend counts an invoice delivery attempt
func (m *BillingMetrics) RecordSend(ctx context.Context, method string, err error) {
	if m == nil {
		return
	}
	m.invoicesSent.Inc(ctx, AttrSendMethod.String(method), AttrOutcome.String(outcome(err)))
}

// ObserveOperation records how long a service operation took
func (m *BillingMetrics) ObserveOperation(ctx context.Context, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operationDuration.RecordDuration(ctx, time.Since(start),
		AttrOperation.String(operation), AttrOutcome.String(outcome(err)))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
