package service

import (
	"time"

	usermodel "github.com/Varun5711/authlocal/internal/models/user"
	"github.com/Varun5711/authlocal/internal/validation"
)

// Outcome is the single terminal classification of one login attempt. The
// concrete types are Success, ValidationFailed, InvalidCredentials and
// ServerError; callers match them with a type switch.
type Outcome interface {
	isOutcome()
}

// Success carries the verified user and the token issued for it.
type Success struct {
	User      *usermodel.User
	Token     string
	ExpiresAt time.Time
}

// ValidationFailed lists every malformed request field.
type ValidationFailed struct {
	Errors []validation.FieldError
}

// InvalidCredentials covers unknown users, wrong passwords and unreadable
// hashes alike. Reason is for the audit log only.
type InvalidCredentials struct {
	AttemptedEmail string
	Reason         error
}

// ServerError wraps a failure the caller cannot correct. Cause must never be
// sent to the caller.
type ServerError struct {
	Cause error
}

func (Success) isOutcome()            {}
func (ValidationFailed) isOutcome()   {}
func (InvalidCredentials) isOutcome() {}
func (ServerError) isOutcome()        {}
