package secretstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "authnet"

// Redis stores slots as plain string keys named "<prefix>:<slot>".
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis returns a Store backed by client. An empty prefix defaults to
// "authnet"; trailing colons are trimmed.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	prefix = strings.TrimRight(prefix, ":")
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(slot Slot) string {
	return r.prefix + ":" + string(slot)
}

// Set stores value under slot without expiration.
func (r *Redis) Set(ctx context.Context, slot Slot, value string) error {
	if err := r.client.Set(ctx, r.key(slot), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrStorage, slot, err)
	}
	return nil
}

// Get returns the value stored under slot.
func (r *Redis) Get(ctx context.Context, slot Slot) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(slot)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %w", ErrStorage, slot, err)
	}
	return value, true, nil
}

// Clear deletes all given slots in a single DEL.
func (r *Redis) Clear(ctx context.Context, slots ...Slot) error {
	if len(slots) == 0 {
		return nil
	}
	keys := make([]string, 0, len(slots))
	for _, slot := range slots {
		keys = append(keys, r.key(slot))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: clear: %w", ErrStorage, err)
	}
	return nil
}
