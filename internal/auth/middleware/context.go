package auth

import (
	"context"

	"github.com/mind-engage/examportal/internal/users"
)

// Principal is the authenticated user with the role resolved from the
// profile. Handlers read it instead of re-checking the profile.
type Principal struct {
	UserID     int64
	Username   string
	FirstName  string
	Role       users.Role
	PictureKey string
}

func (p Principal) IsStudent() bool { return p.Role == users.RoleStudent }
func (p Principal) IsTeacher() bool { return p.Role == users.RoleTeacher }

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
