package domain

import (
	"context"
	"errors"
)

var (
	// ErrAuthenticationFailed is reported when the user could not be verified.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrBiometryUnavailable is reported when the device has no usable biometrics.
	ErrBiometryUnavailable = errors.New("biometry unavailable")
	// ErrNoPassword is reported when password verification is requested but no password was set.
	ErrNoPassword = errors.New("no unlock password has been set")
	// ErrNotVisible is returned when reading a person while the collection is locked
	// or the index is out of range.
	ErrNotVisible = errors.New("person not visible")
)

// AuthResult is the single outcome of an identity check.
type AuthResult struct {
	Success bool
	Err     error
}

// Authenticator verifies the user's identity. Verify delivers exactly one
// AuthResult on the returned channel and then closes it.
type Authenticator interface {
	Verify(ctx context.Context) <-chan AuthResult
}

// Biometrics is the platform capability for fingerprint/face checks.
type Biometrics interface {
	Available(ctx context.Context) bool
	Evaluate(ctx context.Context, reason string) error
}
