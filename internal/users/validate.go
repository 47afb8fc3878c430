package users

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkForm runs the password rules first, then the struct tags.
// Uniqueness and role are checked by Register afterwards.
func checkForm(in RegisterInput) error {
	if in.Password != in.ConfirmPassword {
		return invalid("Passwords do not match!")
	}
	if len(in.Password) < 6 {
		return invalid("Password must be at least 6 characters long!")
	}
	if err := validate.Struct(in); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return invalid(fieldMessage(ve[0]))
		}
		return err
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", fe.Field())
	case "email":
		return "Please enter a valid email address!"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long!", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid!", fe.Field())
}
