package telemetry

import (
	"context"
	"maps"
	"sort"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelPropertyID = "property_id"
	ProfilingLabelOperation  = "operation"
)

// MaxLabelValueLength caps label values
const MaxLabelValueLength = 128

// HighCardinalityLabels are dropped from profiling labels. Property IDs stay:
// a deployment serves a bounded number of dormitories.
var HighCardinalityLabels = map[string]bool{
	"invoice_id": true,
	"payment_id": true,
	"room_id":    true,
	"tenant_id":  true,
	"request_id": true,
	"trace_id":   true,
}

// WithProfilingLabels runs fn with pyroscope labels attached so CPU samples
// can be sliced by operation in the Pyroscope UI. The labels map is copied.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(maps.Clone(labels))
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// OperationLabels builds the standard label set for a service operation
func OperationLabels(propertyID, operation string) map[string]string {
	return map[string]string{
		ProfilingLabelPropertyID: propertyID,
		ProfilingLabelOperation:  operation,
	}
}

// sanitizeLabels drops empty and high-cardinality entries, truncates long
// values and returns key/value pairs sorted by key.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		if k == "" || v == "" || HighCardinalityLabels[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		v := labels[k]
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}
