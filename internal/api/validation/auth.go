package validation

import (
	"net/mail"
	"regexp"
	"strings"
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,64}$`)
	roleRegex     = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,31}$`)
)

// bcrypt rejects inputs longer than 72 bytes.
const maxPasswordLen = 72

// SignupRequest mirrors the fields needed for signup validation.
type SignupRequest struct {
	Username string
	Email    string
	Password string
	Role     string
}

// ValidateSignupRequest validates the fields of a signup request.
func ValidateSignupRequest(req SignupRequest) []FieldError {
	var errs []FieldError

	if req.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	} else if !usernameRegex.MatchString(req.Username) {
		errs = append(errs, FieldError{Field: "username", Message: "username must be 3-64 characters of letters, digits, '_', '.' or '-'"})
	}

	if req.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	} else if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}

	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	} else if len(req.Password) > maxPasswordLen {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at most 72 bytes"})
	}

	if req.Role != "" && !roleRegex.MatchString(req.Role) {
		errs = append(errs, FieldError{Field: "role", Message: "role must be lowercase alphanumeric with '_' or '-', starting with a letter"})
	}

	return errs
}

// ValidateTokenRequest validates the form fields of a token request.
func ValidateTokenRequest(username, password string) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(username) == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	}
	if password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}
	return errs
}
