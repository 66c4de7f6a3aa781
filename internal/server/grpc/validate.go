package grpc

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const passwordSpecials = "@$!%*?&"

func invalid(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

func required(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field + " is required")
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return invalid("please provide a valid email")
	}
	return nil
}

func validateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < 2 || n > 50 {
		return invalid("name must be between 2 and 50 characters")
	}
	return nil
}

// validatePassword requires at least eight characters with a lower and an
// upper case letter, a digit and one of @$!%*?&.
func validatePassword(pw string) error {
	if pw == "" {
		return invalid("password is required")
	}
	if len(pw) < 8 {
		return invalid("password must be at least 8 characters")
	}
	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return invalid("password must contain at least one uppercase letter, one lowercase letter, one number, and one special character")
	}
	return nil
}

// validateCode accepts exactly six ASCII digits.
func validateCode(code, field string) error {
	if len(code) != 6 {
		return invalid(field + " must be 6 digits")
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return invalid(field + " must contain only numbers")
		}
	}
	return nil
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
