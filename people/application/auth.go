package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfryer1193/namestofaces/people/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	unlockPasswordKey = "unlock-password"
	biometricReason   = "Identify yourself!"
)

// PasswordVault keeps the bcrypt hash of the unlock password in a SecretStore
type PasswordVault struct {
	secrets domain.SecretStore
}

func NewPasswordVault(secrets domain.SecretStore) *PasswordVault {
	return &PasswordVault{
		secrets: secrets,
	}
}

// SetPassword replaces the unlock password
func (v *PasswordVault) SetPassword(ctx context.Context, password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := v.secrets.SetSecret(ctx, unlockPasswordKey, string(hash)); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	return nil
}

// HasPassword reports whether an unlock password was ever set
func (v *PasswordVault) HasPassword(ctx context.Context) (bool, error) {
	_, err := v.secrets.GetSecret(ctx, unlockPasswordKey)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CheckPassword returns nil when candidate matches the stored password
func (v *PasswordVault) CheckPassword(ctx context.Context, candidate string) error {
	hash, err := v.secrets.GetSecret(ctx, unlockPasswordKey)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNoPassword
	}
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)); err != nil {
		return domain.ErrAuthenticationFailed
	}
	return nil
}

// PasswordPrompt asks the user for the unlock password
type PasswordPrompt func(ctx context.Context) (string, error)

// PasswordAuthenticator verifies the user by comparing a prompted password
// with the one in the vault.
type PasswordAuthenticator struct {
	vault  *PasswordVault
	prompt PasswordPrompt
}

var _ domain.Authenticator = (*PasswordAuthenticator)(nil)

func NewPasswordAuthenticator(vault *PasswordVault, prompt PasswordPrompt) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		vault:  vault,
		prompt: prompt,
	}
}

func (a *PasswordAuthenticator) Verify(ctx context.Context) <-chan domain.AuthResult {
	results := make(chan domain.AuthResult, 1)
	go func() {
		defer close(results)
		results <- a.verify(ctx)
	}()
	return results
}

func (a *PasswordAuthenticator) verify(ctx context.Context) domain.AuthResult {
	if a.prompt == nil {
		return domain.AuthResult{Err: domain.ErrAuthenticationFailed}
	}

	candidate, err := a.prompt(ctx)
	if err != nil {
		return domain.AuthResult{Err: fmt.Errorf("password prompt failed: %w", err)}
	}

	if err := a.vault.CheckPassword(ctx, candidate); err != nil {
		return domain.AuthResult{Err: err}
	}
	return domain.AuthResult{Success: true}
}

// BiometricAuthenticator tries the platform biometrics first. When they are
// unavailable or reject the user, it hands over to the fallback.
type BiometricAuthenticator struct {
	biometrics domain.Biometrics
	fallback   domain.Authenticator
}

var _ domain.Authenticator = (*BiometricAuthenticator)(nil)

// NewBiometricAuthenticator accepts a nil biometrics (no hardware) and a nil fallback
func NewBiometricAuthenticator(biometrics domain.Biometrics, fallback domain.Authenticator) *BiometricAuthenticator {
	return &BiometricAuthenticator{
		biometrics: biometrics,
		fallback:   fallback,
	}
}

func (a *BiometricAuthenticator) Verify(ctx context.Context) <-chan domain.AuthResult {
	results := make(chan domain.AuthResult, 1)
	go func() {
		defer close(results)
		results <- a.verify(ctx)
	}()
	return results
}

func (a *BiometricAuthenticator) verify(ctx context.Context) domain.AuthResult {
	if a.biometrics == nil || !a.biometrics.Available(ctx) {
		if a.fallback == nil {
			return domain.AuthResult{Err: domain.ErrBiometryUnavailable}
		}
		return a.delegate(ctx)
	}

	err := a.biometrics.Evaluate(ctx, biometricReason)
	if err == nil {
		return domain.AuthResult{Success: true}
	}
	if a.fallback == nil {
		return domain.AuthResult{Err: fmt.Errorf("%w: %v", domain.ErrAuthenticationFailed, err)}
	}
	return a.delegate(ctx)
}

func (a *BiometricAuthenticator) delegate(ctx context.Context) domain.AuthResult {
	select {
	case r, ok := <-a.fallback.Verify(ctx):
		if !ok {
			return domain.AuthResult{Err: domain.ErrAuthenticationFailed}
		}
		return r
	case <-ctx.Done():
		return domain.AuthResult{Err: ctx.Err()}
	}
}
