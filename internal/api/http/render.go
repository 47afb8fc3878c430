package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/examportal/internal/auth/middleware"
	"github.com/mind-engage/examportal/internal/flash"
)

// render writes a page view model: data plus pending flash messages and the
// current user, if any.
func render(w http.ResponseWriter, r *http.Request, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if msgs := flash.Pop(w, r); len(msgs) > 0 {
		data["messages"] = msgs
	}
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		data["user"] = map[string]any{
			"id":         p.UserID,
			"username":   p.Username,
			"first_name": p.FirstName,
			"role":       p.Role,
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// redirect queues an optional flash message and answers 303.
func redirect(w http.ResponseWriter, r *http.Request, to string, level flash.Level, msg string) {
	if msg != "" {
		flash.Add(w, r, level, msg)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// principal is only called behind RequireLogin.
func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}
