package userctx

import (
	"context"

	"github.com/amezhin/eduseek/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// Create a new context carrying the authenticated user
func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Extract the user from the context
// ok is false for anonymous requests
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}
