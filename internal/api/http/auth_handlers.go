package http

import (
	"errors"
	"log"
	"net/http"

	auth "github.com/mind-engage/examportal/internal/auth/middleware"
	"github.com/mind-engage/examportal/internal/flash"
	"github.com/mind-engage/examportal/internal/users"
)

// GET / -> role dashboard, or the login page for anonymous visitors.
func HomeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p, ok := auth.PrincipalFromContext(r.Context()); ok {
			http.Redirect(w, r, p.Role.Dashboard(), http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/login/", http.StatusSeeOther)
	}
}

// redirectIfLoggedIn wraps the login/signup pages.
func redirectIfLoggedIn(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.PrincipalFromContext(r.Context()); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func LoginPageHandler() http.HandlerFunc {
	return redirectIfLoggedIn(func(w http.ResponseWriter, r *http.Request) {
		render(w, r, map[string]any{"page": "login"})
	})
}

// POST /login/  form: username, password
func LoginHandler(store users.Store, sessions *auth.Sessions) http.HandlerFunc {
	return redirectIfLoggedIn(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		u, err := store.Authenticate(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
		if err != nil {
			if !errors.Is(err, users.ErrInvalidCredentials) {
				log.Printf("login: %v", err)
			}
			redirect(w, r, "/login/", flash.Error, "Invalid username or password!")
			return
		}

		acc, err := store.GetAccount(r.Context(), u.ID)
		if err != nil {
			if !errors.Is(err, users.ErrNoProfile) {
				log.Printf("login: load account %d: %v", u.ID, err)
			}
			redirect(w, r, "/login/", flash.Error, "Profile not found! Please contact admin.")
			return
		}
		if err := sessions.Start(w, acc); err != nil {
			log.Printf("login: issue session: %v", err)
			redirect(w, r, "/login/", flash.Error, "Could not start a session. Please try again.")
			return
		}
		redirect(w, r, acc.Profile.Role.Dashboard(), flash.Success, "Welcome back, "+acc.User.FirstName+"!")
	})
}

func SignupPageHandler() http.HandlerFunc {
	return redirectIfLoggedIn(func(w http.ResponseWriter, r *http.Request) {
		render(w, r, map[string]any{"page": "signup", "user_types": []users.Role{users.RoleStudent, users.RoleTeacher}})
	})
}

// POST /signup/
func SignupHandler(store users.Store) http.HandlerFunc {
	return redirectIfLoggedIn(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		f := r.PostForm
		_, err := store.Register(r.Context(), users.RegisterInput{
			Username:        f.Get("username"),
			Email:           f.Get("email"),
			Password:        f.Get("password"),
			ConfirmPassword: f.Get("confirm_password"),
			Role:            f.Get("user_type"),
			Phone:           f.Get("phone"),
			FirstName:       f.Get("first_name"),
			LastName:        f.Get("last_name"),
		})
		if err != nil {
			fail(w, r, err, "/signup/", "Error creating account. Please try again.")
			return
		}
		redirect(w, r, "/login/", flash.Success, "Account created successfully! Please login.")
	})
}

func LogoutHandler(sessions *auth.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions.End(w)
		redirect(w, r, "/login/", flash.Success, "You have been logged out successfully!")
	}
}
