package auth

import "errors"

// Reason classifies why an authentication attempt failed. Callers only
// ever see a single "authentication failed" error kind; the reason is
// the full taxonomy behind it.
type Reason string

const (
	ReasonNoToken                 Reason = "NO_TOKEN"
	ReasonInvalidToken            Reason = "INVALID_TOKEN"
	ReasonTokenExpired            Reason = "TOKEN_EXPIRED"
	ReasonRefreshTokenRevoked     Reason = "REFRESH_TOKEN_REVOKED"
	ReasonUserNotFound            Reason = "USER_NOT_FOUND"
	ReasonEmailUnverified         Reason = "EMAIL_UNVERIFIED"
	ReasonRegistrationNotApproved Reason = "REGISTRATION_NOT_APPROVED"
	ReasonInvalidCredentials      Reason = "INVALID_CREDENTIALS"
)

// Error is the single user-facing authentication failure kind. The
// wrapped cause, when present, is only for internal logging and never
// rendered to callers.
type Error struct {
	Reason  Reason
	Message string
	cause   error
}

func (e *Error) Error() string {
	return "authentication failed: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds an authentication failure with the given reason.
func NewError(reason Reason, message string) *Error {
	return &Error{Reason: reason, Message: message}
}

// WrapError attaches an internal cause that must not leak to callers.
func WrapError(reason Reason, message string, cause error) *Error {
	return &Error{Reason: reason, Message: message, cause: cause}
}

// ReasonOf extracts the failure reason, or empty when err is not an
// authentication failure.
func ReasonOf(err error) Reason {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Reason
	}
	return ""
}
