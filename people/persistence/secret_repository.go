package persistence

import (
	"context"
	"fmt"

	"github.com/dfryer1193/namestofaces/people/domain"
)

var _ domain.SecretStore = (*SecretRepository)(nil)

const secretKeyPrefix = "secret/"

// SecretRepository keeps secrets in a preference store under their own
// key namespace, so they never collide with the people blob.
type SecretRepository struct {
	store domain.PreferenceStore
}

func NewSecretRepository(store domain.PreferenceStore) *SecretRepository {
	return &SecretRepository{
		store: store,
	}
}

func (r *SecretRepository) GetSecret(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("secret key cannot be empty")
	}
	value, err := r.store.Get(ctx, secretKeyPrefix+key)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (r *SecretRepository) SetSecret(ctx context.Context, key string, value string) error {
	if key == "" {
		return fmt.Errorf("secret key cannot be empty")
	}
	return r.store.Set(ctx, secretKeyPrefix+key, []byte(value))
}
