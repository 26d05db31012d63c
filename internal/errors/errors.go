package errors

import (
	"errors"
	"fmt"
)

// Common error types for the auth client
var (
	// Credential errors
	ErrNoCredential        = errors.New("no credential")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshRejected     = errors.New("refresh rejected")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Remote errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrRemoteFailure  = errors.New("remote call failed")
	ErrInvalidRequest = errors.New("invalid request")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrCorruptValue       = errors.New("corrupt stored value")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
