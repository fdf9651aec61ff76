package context

import (
	"context"
)

// User carries the authenticated API caller.
type User struct {
	UserID string
	Email  string
	Admin  bool
}

type userKey struct{}

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the authenticated user from the context, or nil.
func GetUser(ctx context.Context) *User {
	if u, ok := ctx.Value(userKey{}).(*User); ok {
		return u
	}
	return nil
}
