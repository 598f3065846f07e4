package services

import (
	"errors"
	"fmt"
)

// Kind classifies an expected service failure. The HTTP layer maps each kind
// to exactly one status code.
type Kind int

const (
	KindUnexpected Kind = iota
	KindConflict
	KindUnauthorized
	KindNotFound
	KindBadRequest
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "CONFLICT"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindNotFound:
		return "NOT_FOUND"
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindValidation:
		return "VALIDATION_FAILED"
	default:
		return "UNEXPECTED"
	}
}

// Message keys shared with clients.
const (
	KeyEmailAlreadyRegistered = "EMAIL_ALREADY_REGISTERED"
	KeyInvalidCredentials     = "INVALID_CREDENTIALS"
	KeyInvalidToken           = "INVALID_TOKEN"
	KeyUserNotFound           = "USER_NOT_FOUND"
	KeyBadRequest             = "BAD_REQUEST"
	KeyValidationFailed       = "VALIDATION_FAILED"
	KeyAvatarUploadsDisabled  = "AVATAR_UPLOADS_DISABLED"
	KeyUnsupportedAvatar      = "UNSUPPORTED_AVATAR"
	KeyUnexpectedError        = "UNEXPECTED_ERROR"
)

// Error is the typed failure returned by every service operation.
type Error struct {
	Kind Kind
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Key, e.Err)
	}
	return e.Key
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, key string, err error) *Error {
	return &Error{Kind: kind, Key: key, Err: err}
}

func unexpected(op string, err error) *Error {
	return newError(KindUnexpected, KeyUnexpectedError, fmt.Errorf("%s: %w", op, err))
}

// AsError extracts the typed failure from err. Untyped errors are reported
// as unexpected.
func AsError(err error) *Error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return newError(KindUnexpected, KeyUnexpectedError, err)
}
