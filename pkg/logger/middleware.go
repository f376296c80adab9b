package logger

import (
	"context"

	"github.com/google/uuid"
)

// RequestIDHeader is the HTTP header carrying the request id.
const RequestIDHeader = "X-Request-ID"

// NewRequestID generates a new request id.
func NewRequestID() string {
	return uuid.New().String()
}

// WithRequestID returns a copy of ctx carrying the given request id.
// An empty id is replaced by a freshly generated one.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewRequestID()
	}
	return context.WithValue(ctx, RequestIDKey, id)
}
