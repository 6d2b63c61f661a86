package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"postbox/internal/models"
)

const defaultProfileKeyPrefix = "profile:"

// RedisProfileStore keeps each profile as a JSON string under prefix+uuid.
type RedisProfileStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisProfileStore wraps an existing client. A zero ttl keeps profiles forever.
func NewRedisProfileStore(rdb *redis.Client, ttl time.Duration) *RedisProfileStore {
	return &RedisProfileStore{rdb: rdb, prefix: defaultProfileKeyPrefix, ttl: ttl}
}

func (s *RedisProfileStore) key(uuid string) string { return s.prefix + uuid }

func (s *RedisProfileStore) Save(ctx context.Context, p *models.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(p.UUID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save profile %s: %w", p.UUID, err)
	}
	return nil
}

func (s *RedisProfileStore) Get(ctx context.Context, uuid string) (*models.Profile, error) {
	data, err := s.rdb.Get(ctx, s.key(uuid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", uuid, err)
	}
	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", uuid, err)
	}
	return &p, nil
}

func (s *RedisProfileStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
