package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Instrument runs fn inside a "<service>.<method>" span carrying the
// property id, with pyroscope labels for the same operation. An error from
// fn is recorded on the span and returned.
func Instrument(ctx context.Context, service, method string, propertyID uuid.UUID, fn func(context.Context) error) error {
	ctx, span := StartServiceSpan(ctx, service, method, attribute.String(SpanAttrPropertyID, propertyID.String()))
	defer span.End()

	var err error
	WithProfilingLabels(ctx, OperationLabels(propertyID.String(), method), func(c context.Context) {
		err = fn(c)
	})
	RecordError(span, err)
	return err
}
