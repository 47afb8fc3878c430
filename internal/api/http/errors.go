package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/mind-engage/examportal/internal/exam"
	"github.com/mind-engage/examportal/internal/flash"
	"github.com/mind-engage/examportal/internal/users"
)

// userMessage maps a typed operation error to what the user sees.
// ok is false for unexpected errors.
func userMessage(err error) (level flash.Level, msg string, ok bool) {
	var (
		eve *exam.ValidationError
		uve *users.ValidationError
	)
	switch {
	case errors.As(err, &eve):
		return flash.Error, eve.Msg, true
	case errors.As(err, &uve):
		return flash.Error, uve.Msg, true
	case errors.Is(err, users.ErrUsernameTaken):
		return flash.Error, "Username already exists!", true
	case errors.Is(err, users.ErrEmailTaken):
		return flash.Error, "Email already exists!", true
	case errors.Is(err, users.ErrDuplicate):
		return flash.Error, "Username or email already exists!", true
	case errors.Is(err, exam.ErrAlreadyAttempted):
		return flash.Warning, "You have already attempted this exam!", true
	case errors.Is(err, exam.ErrAlreadySubmitted):
		return flash.Warning, "This exam has already been submitted!", true
	case errors.Is(err, exam.ErrNoQuestions):
		return flash.Error, "This exam has no questions yet!", true
	}
	return "", "", false
}

func isNotFound(err error) bool {
	return errors.Is(err, exam.ErrNotFound) || errors.Is(err, users.ErrNotFound)
}

// fail answers an operation error: 404 for missing or foreign resources,
// otherwise a flash message and a redirect to `to`. Unexpected errors are
// logged and shown as generic.
func fail(w http.ResponseWriter, r *http.Request, err error, to, generic string) {
	if isNotFound(err) {
		http.NotFound(w, r)
		return
	}
	level, msg, ok := userMessage(err)
	if !ok {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		level, msg = flash.Error, generic
	}
	redirect(w, r, to, level, msg)
}

// failPage is fail for read-only pages, where there is nowhere to redirect.
func failPage(w http.ResponseWriter, r *http.Request, err error) {
	if isNotFound(err) {
		http.NotFound(w, r)
		return
	}
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
