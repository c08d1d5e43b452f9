package authcore

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is the coarse authentication failure returned to
	// callers. Missing cookie, bad signature, expired credential with no
	// usable refresh, revoked session, and mismatched refresh secret all
	// surface as this error so that responses never reveal which
	// precondition failed.
	ErrUnauthenticated = errors.New("authentication failed")
	// ErrInvalidCredentials is returned by Login for both an unknown email
	// and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPermissionDenied is returned by the role gate when the caller's
	// role is not in the allowed set.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrValidation is the category error wrapped by every FieldError.
	ErrValidation = errors.New("validation failed")
	// ErrAccountExists is returned by Register when the email is taken.
	ErrAccountExists = errors.New("email address already in use")
	// ErrNotFound is returned when an entity is absent in a context where
	// that is distinct from an authentication failure.
	ErrNotFound = errors.New("not found")
	// ErrResetTokenExpired is returned by ResetPassword once the redemption
	// window has elapsed.
	ErrResetTokenExpired = errors.New("password reset token expired")
	// ErrPasswordReuse is returned by ChangePassword when the new password
	// equals the current one.
	ErrPasswordReuse = errors.New("new password must differ from the current password")
	// ErrEmailUnavailable is returned when the outbound mail collaborator
	// cannot accept a message. The engine never retries; that is the
	// collaborator's responsibility.
	ErrEmailUnavailable = errors.New("unable to queue email")
	// ErrSessionRevoked is returned when an account's session record exists
	// but has been marked invalid.
	ErrSessionRevoked = errors.New("session revoked")
	// ErrEngineNotReady is returned when an Engine method is invoked before
	// Builder.Build wired its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrAccountNotFound must be returned by AccountProvider lookups when no
	// account matches.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateEmail must be returned by AccountProvider.Create when the
	// email unique constraint is violated.
	ErrDuplicateEmail = errors.New("duplicate email")
)

// FieldError reports a malformed input with field-level detail. It unwraps
// to [ErrValidation] so callers can branch on the category without
// inspecting the field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

func fieldError(field, message string) error {
	return &FieldError{Field: field, Message: message}
}
