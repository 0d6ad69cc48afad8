// Package net provides utilities for working with request contexts
package net

import (
	"context"

	"storepulse/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// WithRequest tags ctx with a request id readable by both chi and the logger
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	return logger.WithRequest(ctx, reqID)
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	return chimw.GetReqID(ctx)
}
