package exports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greenledger/greenledger/internal/platform/httpx"
)

// ErrNotFound indicates an unknown or expired export.
var ErrNotFound = fmt.Errorf("exports: export %w", httpx.ErrNotFound)

const keyPrefix = "exports:"

// Store keeps export status in Redis for a fixed time to live.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore builds a Store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

// Save writes the export and refreshes its expiry.
func (s *Store) Save(ctx context.Context, e Export) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+e.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("exports: save %s: %w: %w", e.ID, httpx.ErrUnavailable, err)
	}
	return nil
}

// Get loads an export.
func (s *Store) Get(ctx context.Context, id string) (Export, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Export{}, ErrNotFound
	}
	if err != nil {
		return Export{}, fmt.Errorf("exports: get %s: %w: %w", id, httpx.ErrUnavailable, err)
	}
	var e Export
	if err := json.Unmarshal(data, &e); err != nil {
		return Export{}, fmt.Errorf("exports: decode %s: %w", id, err)
	}
	return e, nil
}

// Transition loads an export, applies fn and saves the result.
func (s *Store) Transition(ctx context.Context, id string, now time.Time, fn func(*Export)) (Export, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return Export{}, err
	}
	fn(&e)
	e.UpdatedAt = now
	return e, s.Save(ctx, e)
}
