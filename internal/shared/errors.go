package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden indicates the principal is not allowed to perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrBadRequest indicates a malformed request, such as an update without an id.
	ErrBadRequest = errors.New("bad request")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Forbiddenf wraps ErrForbidden with an operation-specific message.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// BadRequestf wraps ErrBadRequest with a request-specific message.
func BadRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
