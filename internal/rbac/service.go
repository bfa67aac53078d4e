package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "rbac:perms:"

// Service resolves permissions, caching each user's set in Redis.
type Service struct {
	store  Store
	client *redis.Client
	ttl    time.Duration
}

// NewService constructs a Service. A nil client disables caching.
func NewService(store Store, client *redis.Client, ttl time.Duration) *Service {
	return &Service{store: store, client: client, ttl: ttl}
}

// ListPermissions returns all permissions ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	perms, err := s.store.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []Permission{}
	}
	return perms, nil
}

// EffectivePermissions returns deduplicated permission names for a user.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	key := cacheKeyPrefix + strconv.FormatInt(userID, 10)
	if s.client != nil && s.ttl > 0 {
		payload, err := s.client.Get(ctx, key).Bytes()
		if err == nil {
			var cached []string
			if json.Unmarshal(payload, &cached) == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			return nil, err
		}
	}
	rows, err := s.store.UserPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms := make([]string, len(rows))
	copy(perms, rows)
	if s.client != nil && s.ttl > 0 {
		raw, err := json.Marshal(perms)
		if err != nil {
			return nil, err
		}
		if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			return nil, err
		}
	}
	return perms, nil
}

// Invalidate drops the cached permissions of a user.
func (s *Service) Invalidate(ctx context.Context, userID int64) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, cacheKeyPrefix+strconv.FormatInt(userID, 10)).Err()
}
