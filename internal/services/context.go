package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	baseURLKey   contextKey = "base_url"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithBaseURL records the externally visible scheme and host of the inbound
// request so generated file URLs can be made absolute.
func WithBaseURL(ctx context.Context, base string) context.Context {
	if base == "" {
		return ctx
	}
	return context.WithValue(ctx, baseURLKey, base)
}

// BaseURLFromContext returns the base URL recorded by WithBaseURL.
func BaseURLFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(baseURLKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
