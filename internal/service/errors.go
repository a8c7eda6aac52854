package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication failed")
)

// Message keys carried by ValidationError. They double as the English text.
const (
	MsgRequired         = "This field is required."
	MsgTitleTooLong     = "Ensure this value has at most 200 characters."
	MsgUsernameTooLong  = "Ensure this value has at most 150 characters."
	MsgUsernameInvalid  = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	MsgUsernameTaken    = "A user with that username already exists."
	MsgPasswordMismatch = "The two password fields didn't match."
	MsgPasswordTooShort = "This password is too short. It must contain at least 8 characters."
	MsgPasswordNumeric  = "This password is entirely numeric."
	MsgPasswordTooLong  = "This password is too long. It must contain at most 72 bytes."
	MsgInvalidLogin     = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

// Messages lists every key above so catalogs can be checked for gaps.
var Messages = []string{
	MsgRequired, MsgTitleTooLong, MsgUsernameTooLong, MsgUsernameInvalid, MsgUsernameTaken,
	MsgPasswordMismatch, MsgPasswordTooShort, MsgPasswordNumeric, MsgPasswordTooLong, MsgInvalidLogin,
}

// ValidationError maps form field names to the first message key for that
// field. It matches ErrValidation under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// orNil returns nil when no field failed.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
