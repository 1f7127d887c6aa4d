package middleware

import (
	"context"

	"github.com/baharkarakas/checkin-backend/internal/services"
)

type callerKey struct{}

func WithCaller(ctx context.Context, c *services.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the authenticated caller, or nil for anonymous requests.
func CallerFrom(ctx context.Context) *services.Caller {
	if c, ok := ctx.Value(callerKey{}).(*services.Caller); ok {
		return c
	}
	return nil
}
