package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfryer1193/namestofaces/people/domain"
	"github.com/redis/go-redis/v9"
)

var _ domain.PreferenceStore = (*RedisPreferenceRepository)(nil)

const defaultRedisPrefix = "namestofaces:"

// RedisPreferenceRepository implements domain.PreferenceStore with one Redis string per key
type RedisPreferenceRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisPreferenceRepository(client *redis.Client) *RedisPreferenceRepository {
	return &RedisPreferenceRepository{
		client: client,
		prefix: defaultRedisPrefix,
	}
}

func (r *RedisPreferenceRepository) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("preference key cannot be empty")
	}
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set preference %s: %w", key, err)
	}
	return nil
}

func (r *RedisPreferenceRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("preference key cannot be empty")
	}

	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("preference %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference %s: %w", key, err)
	}
	return value, nil
}
