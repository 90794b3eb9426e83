package telemetry

import (
	"context"
	"sort"

	"github.com/grafana/pyroscope-go"
)

// Profile label keys. Values must stay low-cardinality: a label per room or
// per user would split every profile into thousands of series.
const (
	ProfileLabelRoute     = "route"
	ProfileLabelMethod    = "method"
	ProfileLabelRole      = "role"
	ProfileLabelOperation = "operation"
)

const maxProfileLabelValue = 96

var profileLabelKeys = map[string]struct{}{
	ProfileLabelRoute:     {},
	ProfileLabelMethod:    {},
	ProfileLabelRole:      {},
	ProfileLabelOperation: {},
}

// WithProfileLabels runs fn with pprof labels attached. Unknown keys and
// empty values are dropped.
func WithProfileLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// ProfileOperation tags the CPU spent in fn with an operation name such as
// "billing.compute" or "transfer.import_readings".
func ProfileOperation(ctx context.Context, operation string, fn func(context.Context)) {
	WithProfileLabels(ctx, map[string]string{ProfileLabelOperation: operation}, fn)
}

// RequestProfileLabels builds the labels of one HTTP request
func RequestProfileLabels(route, method, role string) map[string]string {
	return map[string]string{
		ProfileLabelRoute:  route,
		ProfileLabelMethod: method,
		ProfileLabelRole:   role,
	}
}

// labelPairs flattens labels into sorted key/value pairs
func labelPairs(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		if _, ok := profileLabelKeys[k]; ok && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		v := labels[k]
		if len(v) > maxProfileLabelValue {
			v = v[:maxProfileLabelValue]
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}
