package rbac

import (
	"net/http"

	auth "github.com/mind-engage/examportal/internal/auth/middleware"
	"github.com/mind-engage/examportal/internal/flash"
)

var defaultChecker = NewChecker(nil)

// Require enforces a single permission for the session's Principal.
// Anonymous requests go to the login page; a role without the permission is
// sent back to its own dashboard.
func Require(perm string) func(http.Handler) http.Handler {
	return RequireAny(perm)
}

// RequireAny enforces that the role has at least one of the permissions.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login/", http.StatusSeeOther)
				return
			}
			if !defaultChecker.Any(p.Role, perms...) {
				for _, perm := range perms {
					if msg, ok := denyMessages[perm]; ok {
						flash.Add(w, r, flash.Error, msg)
						break
					}
				}
				http.Redirect(w, r, p.Role.Dashboard(), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
