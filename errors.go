package hxview

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for component and request handling.
var (
	ErrNotFound         = errors.New("hxview: resource not found")
	ErrDecryptFailed    = errors.New("hxview: state decryption failed")
	ErrSignatureInvalid = errors.New("hxview: signature verification failed")
	ErrInvalidFormat    = errors.New("hxview: invalid state format")
	ErrHydrationFailed  = errors.New("hxview: hydration failed")
	ErrDeserialize      = errors.New("hxview: deserialization failed")
	ErrSerialize        = errors.New("hxview: serialization failed")

	ErrDuplicateComponent = errors.New("hxview: duplicate component instance")
)

// ErrInternal marks programming errors: misuse of the rendering API or a
// broken invariant. They are returned, never raised as panics.
var ErrInternal = errors.New("hxview: internal error")

// Rendering API misuse. All of these match ErrInternal with errors.Is.
var (
	ErrAttributeAfterContent = fmt.Errorf("%w: attribute written after content", ErrInternal)
	ErrScopeClosed           = fmt.Errorf("%w: element already closed", ErrInternal)
	ErrScopeOrder            = fmt.Errorf("%w: element closed out of order", ErrInternal)
	ErrInvalidUTF8           = fmt.Errorf("%w: rendered output is not valid UTF-8", ErrInternal)
)

// Error is an HTTP-shaped failure. Handlers respond with Status and, when
// set, Reason as the body.
type Error struct {
	Status int
	Reason string
	Err    error
}

// NewError creates an Error with the given status and reason.
func NewError(status int, reason string) *Error {
	return &Error{Status: status, Reason: reason}
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Reason != "":
		return fmt.Sprintf("hxview: %d %s: %v", e.Status, e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("hxview: %d: %v", e.Status, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("hxview: %d %s", e.Status, e.Reason)
	default:
		return fmt.Sprintf("hxview: %d %s", e.Status, http.StatusText(e.Status))
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusOf maps an error to the HTTP status a handler should respond with.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var he *Error
	if errors.As(err, &he) && he.Status != 0 {
		return he.Status
	}
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsDecryptionError(err), errors.Is(err, ErrInvalidFormat), errors.Is(err, ErrDeserialize):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound checks if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDecryptionError checks if err is a decryption or signature error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrSignatureInvalid)
}

// IsInternal checks if err is a programming error raised by the renderer.
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func deserializeError(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDeserialize, what, err)
}

func serializeError(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSerialize, what, err)
}
