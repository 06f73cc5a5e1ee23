package service

import (
	"strings"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
)

// Password bounds. bcrypt ignores everything past 72 bytes, so longer input is
// rejected instead of silently truncated.
const (
	MinPasswordLength   = 8
	MaxPasswordBytes    = 72
	maxEmailLength      = 254
	fieldName           = "name"
	fieldEmail          = "email"
	fieldPassword       = "password"
	msgNameRequired     = "Name is required"
	msgInvalidEmail     = "Invalid email address"
	msgPasswordTooShort = "Password must be at least 8 characters long"
	msgPasswordTooLong  = "Password must be at most 72 bytes long"
	msgPasswordRequired = "Password is required"
)

// ValidateRegistration returns a message per offending field, or nil.
func ValidateRegistration(name, email, password string) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(name) == "" {
		fields[fieldName] = msgNameRequired
	}
	if !validEmail(email) {
		fields[fieldEmail] = msgInvalidEmail
	}
	switch {
	case utf8.RuneCountInString(password) < MinPasswordLength:
		fields[fieldPassword] = msgPasswordTooShort
	case len(password) > MaxPasswordBytes:
		fields[fieldPassword] = msgPasswordTooLong
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// ValidateSignIn returns a message per offending field, or nil.
func ValidateSignIn(email, password string) map[string]string {
	fields := map[string]string{}
	if !validEmail(email) {
		fields[fieldEmail] = msgInvalidEmail
	}
	if password == "" {
		fields[fieldPassword] = msgPasswordRequired
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func validEmail(email string) bool {
	return len(email) <= maxEmailLength && govalidator.IsEmail(email)
}
