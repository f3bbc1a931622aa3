package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/questforge/questforge/internal/services/adventure/quest"
)

const redisKeyPrefix = "adventure:"

// RedisStore keeps adventure sessions in Redis so they survive process
// restarts and are shared across instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

var _ Store = (*RedisStore)(nil)

// Close releases the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Put(ctx context.Context, adventureID string, session quest.State) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode adventure state: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+adventureID, payload, SessionTTL).Err(); err != nil {
		return fmt.Errorf("store adventure state: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, adventureID string) (quest.State, error) {
	payload, err := r.client.Get(ctx, redisKeyPrefix+adventureID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return quest.State{}, ErrNotFound
		}
		return quest.State{}, fmt.Errorf("load adventure state: %w", err)
	}
	var session quest.State
	if err := json.Unmarshal(payload, &session); err != nil {
		return quest.State{}, fmt.Errorf("decode adventure state: %w", err)
	}
	return session, nil
}

func (r *RedisStore) Delete(ctx context.Context, adventureID string) error {
	removed, err := r.client.Del(ctx, redisKeyPrefix+adventureID).Result()
	if err != nil {
		return fmt.Errorf("delete adventure state: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}
