package models

import (
	"fmt"
	"strings"
)

// Status is the authentication state of a session.
type Status int

const (
	Unauthenticated Status = iota
	Authenticating
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return ""
	}
}

// AuthMode selects which credential exchange a submission performs.
type AuthMode int

const (
	Login AuthMode = iota
	Register
)

func (m AuthMode) String() string {
	if m == Register {
		return "register"
	}
	return "login"
}

// MinPasswordLength is enforced for registrations only; the service rejects shorter passwords.
const MinPasswordLength = 8

// Credentials holds the fields of the login and registration forms.
//
// Email is only transmitted when Mode is [Register].
type Credentials struct {
	Mode     AuthMode
	Username string
	Password string
	Email    string
}

// Validate reports the first missing or malformed field as a user-facing message.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	if c.Mode == Register {
		if strings.TrimSpace(c.Email) == "" {
			return fmt.Errorf("email is required")
		}
		if !strings.Contains(c.Email, "@") {
			return fmt.Errorf("email address is not valid")
		}
		if len(c.Password) < MinPasswordLength {
			return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
		}
	}
	return nil
}
