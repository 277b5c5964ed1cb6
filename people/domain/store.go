package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when a key or file does not exist.
var ErrNotFound = errors.New("not found")

// PreferenceStore holds named blobs. Set replaces the whole value for a key.
type PreferenceStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// SecretStore is the keychain capability: secrets by key, nothing more.
type SecretStore interface {
	GetSecret(ctx context.Context, key string) (string, error)
	SetSecret(ctx context.Context, key string, value string) error
}
