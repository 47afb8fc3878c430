package exam

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyAttempted = errors.New("exam already attempted")
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	ErrNoQuestions      = errors.New("exam has no questions")
)

// ValidationError carries a message meant for the end user.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }
