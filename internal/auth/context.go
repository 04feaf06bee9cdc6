package auth

import (
	"context"

	"github.com/mohitgulati1999/rfid-joinery/internal/model"
)

type contextKey struct{}

// AuthContext identifies the authenticated caller for the duration of a
// request.
type AuthContext struct {
	UserID int64
	Role   string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == model.RoleAdmin
}

// CanAccessUser reports whether the caller may read records belonging
// to the given user: admins see everyone, members only themselves.
func CanAccessUser(ctx context.Context, userID int64) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == model.RoleAdmin || ac.UserID == userID
}
