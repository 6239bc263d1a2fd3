// Package apperrors defines the sentinel errors shared across the session
// service. Every failure a caller is expected to branch on is one of these
// values; callers use errors.Is after any amount of wrapping.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// Credential errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("email already registered")
	ErrIdentityNotFound   = errors.New("identity not found")

	// Token errors
	ErrTokenMissing = errors.New("token missing")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")

	// Infrastructure errors. Distinct from credential/token errors so a
	// caller never confuses "store unreachable" with "bad credentials".
	// Retryable at the transport layer, never inside the session service.
	ErrInfrastructure = errors.New("store unavailable")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
