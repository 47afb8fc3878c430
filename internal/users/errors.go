package users

import "errors"

var (
	ErrNotFound           = errors.New("user not found")
	ErrNoProfile          = errors.New("profile not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrDuplicate          = errors.New("username or email already exists")
)

// ValidationError carries a message meant for the end user.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }
