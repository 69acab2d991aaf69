// Package context carries request correlation data across API and
// service boundaries.
package context

import "context"

// Trace identifies one request for log correlation. TraceID groups the
// log entries produced while serving the request, RequestID is the
// value echoed back to the caller.
type Trace struct {
	TraceID   string
	RequestID string
}

type traceKey struct{}

// WithTrace returns a context carrying the trace.
func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// TraceFrom extracts the trace from ctx, reporting whether one is set.
func TraceFrom(ctx context.Context) (Trace, bool) {
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}
