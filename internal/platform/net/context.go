// Package net carries request scoped identity and the response envelope shared by transports
package net

import (
	"context"

	"callerid/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const (
	keyUserID ctxKey = iota
	keyDeviceID
)

// WithRequestID stores id where chi's request id middleware would
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, id)
}

// WithIdentity stores the bearer subject and device and tags the request logger with both ids
func WithIdentity(ctx context.Context, userID, deviceID string) context.Context {
	if userID != "" {
		ctx = context.WithValue(ctx, keyUserID, userID)
	}
	if deviceID != "" {
		ctx = context.WithValue(ctx, keyDeviceID, deviceID)
	}
	return logger.WithRequest(ctx, RequestID(ctx), deviceID)
}

// RequestID returns the request id or ""
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// UserID returns the authenticated subject or ""
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(keyUserID).(string)
	return v
}

// DeviceID returns the calling device or ""
func DeviceID(ctx context.Context) string {
	v, _ := ctx.Value(keyDeviceID).(string)
	return v
}
