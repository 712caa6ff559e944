// Package context carries request-scoped values between the HTTP layer
// and the usecases without the two importing each other.
package context

import (
	"context"
	"log/slog"

	"locker/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// KeyRequestID is the key for storing request ID in context.
	KeyRequestID ContextKey = "request_id"

	// KeyLogger is the key for storing request-scoped logger in context.
	KeyLogger ContextKey = "logger"

	// KeyTokenPair is the key for storing the authenticated token pair.
	KeyTokenPair ContextKey = "token_pair"

	// HeaderXRequestID is the HTTP header name for request ID.
	HeaderXRequestID = "X-Request-Id"
)

// GetRequestID extracts the request ID from echo.Context.
// If not found, generates a new UUID.
func GetRequestID(c echo.Context) string {
	val := c.Get(string(KeyRequestID))
	if id, ok := val.(string); ok && id != "" {
		return id
	}

	return uuid.New().String()
}

// SetRequestID sets the request ID in echo.Context.
func SetRequestID(c echo.Context, requestID string) {
	c.Set(string(KeyRequestID), requestID)
}

// WithRequestID returns a new context with the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, KeyRequestID, requestID)
}

// GetLoggerOrDefault extracts the request-scoped logger from
// context.Context, falling back to the provided logger.
func GetLoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}

	return fallback
}

// WithLogger returns a new context with the logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, KeyLogger, logger)
}

// SetTokenPair stores the authenticated token pair in echo.Context.
func SetTokenPair(c echo.Context, pair *entity.TokenPair) {
	c.Set(string(KeyTokenPair), pair)
}

// GetTokenPair extracts the authenticated token pair from echo.Context.
// Returns nil when the request is unauthenticated.
func GetTokenPair(c echo.Context) *entity.TokenPair {
	if pair, ok := c.Get(string(KeyTokenPair)).(*entity.TokenPair); ok {
		return pair
	}

	return nil
}
