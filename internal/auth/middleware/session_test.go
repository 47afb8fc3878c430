package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mind-engage/examportal/internal/users"
)

type fakeAccounts map[int64]users.Account

func (f fakeAccounts) GetAccount(_ context.Context, id int64) (users.Account, error) {
	if id == 99 {
		return users.Account{User: users.User{ID: 99}}, users.ErrNoProfile
	}
	if id == 500 {
		return users.Account{}, errors.New("db down")
	}
	a, ok := f[id]
	if !ok {
		return users.Account{}, users.ErrNotFound
	}
	return a, nil
}

func newSessions() *Sessions {
	return &Sessions{
		Auth: NewAuthService("test-secret", time.Hour),
		Accounts: fakeAccounts{
			7: {User: users.User{ID: 7, Username: "ann", FirstName: "Ann"}, Profile: users.Profile{UserID: 7, Role: users.RoleTeacher}},
		},
	}
}

func cookieFor(t *testing.T, s *Sessions, id int64, role string) *http.Cookie {
	t.Helper()
	tok, err := s.Auth.IssueJWT(id, role)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return &http.Cookie{Name: SessionCookie, Value: tok}
}

func probe(got *Principal, ok *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *ok = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("k", time.Hour)
	tok, err := a.IssueJWT(42, "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id, _ := c.UserID(); id != 42 || c.Role != "student" || c.ID == "" {
		t.Fatalf("claims = %+v", c)
	}
	if _, err := NewAuthService("other", time.Hour).Parse(tok); err == nil {
		t.Fatal("token signed with another key must fail")
	}
}

func TestMiddlewareResolvesPrincipal(t *testing.T) {
	s := newSessions()
	var p Principal
	var ok bool
	req := httptest.NewRequest(http.MethodGet, "/teacher/dashboard/", nil)
	// role in the token is ignored; the profile decides
	req.AddCookie(cookieFor(t, s, 7, "student"))
	rec := httptest.NewRecorder()
	s.Middleware(probe(&p, &ok)).ServeHTTP(rec, req)

	if !ok || p.UserID != 7 || p.Role != users.RoleTeacher || !p.IsTeacher() {
		t.Fatalf("principal = %+v ok=%v", p, ok)
	}
}

func TestMiddlewareAnonymousAndBadTokens(t *testing.T) {
	s := newSessions()
	for name, c := range map[string]*http.Cookie{
		"none":    nil,
		"garbage": {Name: SessionCookie, Value: "not-a-jwt"},
		"unknown": cookieFor(t, s, 12345, "student"),
	} {
		t.Run(name, func(t *testing.T) {
			var p Principal
			var ok bool
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if c != nil {
				req.AddCookie(c)
			}
			rec := httptest.NewRecorder()
			s.Middleware(probe(&p, &ok)).ServeHTTP(rec, req)
			if ok {
				t.Fatalf("expected anonymous, got %+v", p)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("code = %d", rec.Code)
			}
		})
	}
}

func TestMiddlewareMissingProfileLogsOut(t *testing.T) {
	s := newSessions()
	req := httptest.NewRequest(http.MethodGet, "/student/dashboard/", nil)
	req.AddCookie(cookieFor(t, s, 99, "student"))
	rec := httptest.NewRecorder()
	called := false
	s.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })).ServeHTTP(rec, req)

	if called {
		t.Fatal("handler must not run without a profile")
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login/" {
		t.Fatalf("code=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
	var cleared, flashed bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie && c.MaxAge < 0 {
			cleared = true
		}
		if c.Name == "flash" && c.Value != "" {
			flashed = true
		}
	}
	if !cleared || !flashed {
		t.Fatalf("cleared=%v flashed=%v", cleared, flashed)
	}
}

func TestMiddlewareStoreError(t *testing.T) {
	s := newSessions()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookieFor(t, s, 500, "student"))
	rec := httptest.NewRecorder()
	s.Middleware(http.NotFoundHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestRequireLogin(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireLogin(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/student/results/", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login/" {
		t.Fatalf("code=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), Principal{UserID: 1, Role: users.RoleStudent}))
	RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })).ServeHTTP(rec, req)
	if rec.Code != http.StatusTeapot {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestStartSetsHTTPOnlyCookie(t *testing.T) {
	s := newSessions()
	rec := httptest.NewRecorder()
	acc := users.Account{User: users.User{ID: 7}, Profile: users.Profile{Role: users.RoleTeacher}}
	if err := s.Start(rec, acc); err != nil {
		t.Fatalf("start: %v", err)
	}
	h := rec.Header().Get("Set-Cookie")
	if !strings.HasPrefix(h, SessionCookie+"=") || !strings.Contains(h, "HttpOnly") {
		t.Fatalf("set-cookie = %q", h)
	}
}
