package tracing

import "go.opentelemetry.io/otel/attribute"

var allowedAttributeKeys = map[attribute.Key]struct{}{
	"request_id":                {},
	"http.method":               {},
	"http.route":                {},
	"http.status_code":          {},
	"http.server_duration_ms":   {},
	"proposal.action":           {},
	"proposal.input_source":     {},
	"proposal.export_format":    {},
}

// SafeAttributes strips attributes that could carry user content.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedAttributeKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

type redactedError struct{ code string }

func (e redactedError) Error() string { return e.code }

// SafeError reduces an error to its sentinel text before recording on a span.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if len(msg) > 120 {
		msg = msg[:120]
	}
	return redactedError{code: msg}
}
