package auth

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/mind-engage/examportal/internal/flash"
	"github.com/mind-engage/examportal/internal/users"
)

const SessionCookie = "session"

// AccountLoader is the slice of users.Store the session needs.
type AccountLoader interface {
	GetAccount(ctx context.Context, userID int64) (users.Account, error)
}

type Sessions struct {
	Auth     *AuthService
	Accounts AccountLoader
	Secure   bool // cookie Secure flag
}

// Start issues a session cookie for the account.
func (s *Sessions) Start(w http.ResponseWriter, acc users.Account) error {
	tok, err := s.Auth.IssueJWT(acc.User.ID, string(acc.Profile.Role))
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(s.Auth.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Sessions) End(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware resolves the session cookie into a Principal. Requests without
// a valid session pass through anonymously. An identity whose profile is
// missing is logged out and sent to the login page.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := s.Auth.Parse(c.Value)
		if err != nil {
			s.End(w)
			next.ServeHTTP(w, r)
			return
		}
		uid, err := claims.UserID()
		if err != nil {
			s.End(w)
			next.ServeHTTP(w, r)
			return
		}

		acc, err := s.Accounts.GetAccount(r.Context(), uid)
		switch {
		case err == nil:
			p := Principal{
				UserID:     acc.User.ID,
				Username:   acc.User.Username,
				FirstName:  acc.User.FirstName,
				Role:       acc.Profile.Role,
				PictureKey: acc.Profile.PictureKey,
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		case errors.Is(err, users.ErrNoProfile):
			s.End(w)
			flash.Add(w, r, flash.Error, "Profile not found! Please login again.")
			http.Redirect(w, r, "/login/", http.StatusSeeOther)
		case errors.Is(err, users.ErrNotFound):
			s.End(w)
			next.ServeHTTP(w, r)
		default:
			log.Printf("session: load account %d: %v", uid, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	})
}

// RequireLogin redirects anonymous requests to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
