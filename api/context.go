package api

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ContextKey string

const RequestIDKey ContextKey = "request_id"

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestLogger returns baseLogger annotated with the request ID, if any.
func RequestLogger(ctx context.Context, baseLogger *zap.Logger) *zap.Logger {
	if id := GetRequestID(ctx); id != "" {
		return baseLogger.With(zap.String(string(RequestIDKey), id))
	}
	return baseLogger
}

func newRequestID() string {
	return uuid.NewString()
}
