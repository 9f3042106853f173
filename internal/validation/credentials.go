package validation

import (
	"net/mail"
	"regexp"
	"strings"
)

const (
	MsgInvalidEmail  = "Invalid email address"
	MsgEmptyPassword = "Password must not be empty"
	MsgLongPassword  = "Password must be at most 72 bytes"
)

const (
	maxEmailLength     = 254
	maxLocalPartLength = 64
	// bcrypt ignores input beyond this length.
	maxPasswordLength = 72
)

var domainRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

// FieldError describes one failing request field. Value echoes what the
// caller submitted, except for secret fields where it is left empty.
type FieldError struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
	Value string `json:"value,omitempty"`
}

// ValidateCredentials checks every field of a login request and returns one
// FieldError per failing field, in field order. A nil result means the
// request is well formed.
func ValidateCredentials(email, password string) []FieldError {
	var errs []FieldError

	if !IsEmail(email) {
		errs = append(errs, FieldError{Param: "email", Msg: MsgInvalidEmail, Value: email})
	}
	if password == "" {
		errs = append(errs, FieldError{Param: "password", Msg: MsgEmptyPassword})
	} else if len(password) > maxPasswordLength {
		errs = append(errs, FieldError{Param: "password", Msg: MsgLongPassword})
	}

	return errs
}

// IsEmail reports whether s is a bare addr-spec with a dotted domain and an
// alphabetic top-level label.
func IsEmail(s string) bool {
	if s == "" || len(s) > maxEmailLength {
		return false
	}

	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}

	at := strings.LastIndex(s, "@")
	if at <= 0 || at > maxLocalPartLength {
		return false
	}

	return domainRegex.MatchString(s[at+1:])
}
