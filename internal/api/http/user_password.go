// internal/api/http/user_password.go
package http

import (
	"net/http"

	"github.com/mind-engage/examportal/internal/flash"
	"github.com/mind-engage/examportal/internal/users"
)

func ChangePasswordPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, map[string]any{"page": "change_password"})
	}
}

// POST /account/password/  form: old_password, new_password, confirm_password
func ChangePasswordHandler(store users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		p := principal(r)
		err := store.ChangePassword(r.Context(), p.UserID, users.PasswordChange{
			Old:     r.PostForm.Get("old_password"),
			New:     r.PostForm.Get("new_password"),
			Confirm: r.PostForm.Get("confirm_password"),
		})
		if err != nil {
			fail(w, r, err, "/account/password/", "Error changing password. Please try again.")
			return
		}
		redirect(w, r, p.Role.Dashboard(), flash.Success, "Password changed successfully!")
	}
}
