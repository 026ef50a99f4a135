// Package errs defines the failure taxonomy shared by the framework packages.
//
// Unauthorized, Forbidden and NotFound are expected runtime outcomes and are
// returned as wrapped sentinel errors so callers can classify them with
// errors.Is. ProgrammingError marks caller bugs (malformed permission strings,
// invalid builder usage) and is raised as a panic: it is never caught at
// runtime, only prevented by fixing the call site.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates no authenticated actor is present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the actor is authenticated but lacks the
	// required permission.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates a lookup matched zero rows.
	ErrNotFound = errors.New("not found")
)

// Unauthorizedf returns an error wrapping ErrUnauthorized.
func Unauthorizedf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrUnauthorized)...)
}

// Forbiddenf returns an error wrapping ErrForbidden.
func Forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrForbidden)...)
}

// NotFoundf returns an error wrapping ErrNotFound.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// IsUnauthorized reports whether err wraps ErrUnauthorized.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsForbidden reports whether err wraps ErrForbidden.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// ProgrammingError describes a caller bug. It is delivered via panic and is
// not meant to be recovered in production code.
type ProgrammingError struct {
	Message string
}

func (e *ProgrammingError) Error() string {
	return "programming error: " + e.Message
}

// Programmingf panics with a ProgrammingError.
func Programmingf(format string, args ...interface{}) {
	panic(&ProgrammingError{Message: fmt.Sprintf(format, args...)})
}
