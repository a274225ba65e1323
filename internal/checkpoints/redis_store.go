package checkpoints

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	backend "github.com/redis/go-redis/v9"

	"github.com/itinerai/itinerai/internal/graph"
)

const defaultRedisPrefix = "itinerai:checkpoint:"

// RedisStore persists checkpoints to Redis as JSON blobs, one key per
// {graph id, thread id}. Suitable for multi-instance deployments.
type RedisStore[T graph.GraphState[T]] struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type RedisOption[T graph.GraphState[T]] func(*RedisStore[T])

// WithTTL sets the expiration for checkpoint records. Zero means no
// expiration; retention is caller-controlled by default.
func WithTTL[T graph.GraphState[T]](ttl time.Duration) RedisOption[T] {
	return func(s *RedisStore[T]) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for checkpoint records.
func WithPrefix[T graph.GraphState[T]](prefix string) RedisOption[T] {
	return func(s *RedisStore[T]) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a Redis store from an existing client.
func NewRedisStore[T graph.GraphState[T]](client *backend.Client, opts ...RedisOption[T]) *RedisStore[T] {
	store := &RedisStore[T]{
		client: client,
		prefix: defaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisStore[T]) key(key graph.CheckpointKey) string {
	return s.prefix + key.GraphID + ":" + key.ThreadID
}

func (s *RedisStore[T]) Save(ctx context.Context, checkpoint graph.Checkpoint[T]) error {
	checkpoint.Meta.UpdatedAt = time.Now()
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return errors.Wrap(err, "failed to marshal checkpoint")
	}

	if err := s.client.Set(ctx, s.key(checkpoint.Key), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to save checkpoint to redis")
	}
	return nil
}

func (s *RedisStore[T]) Load(ctx context.Context, key graph.CheckpointKey) (*graph.Checkpoint[T], error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, errors.Wrapf(graph.ErrCheckpointNotFound, "thread %s", key.ThreadID)
		}
		return nil, errors.Wrap(err, "failed to load checkpoint from redis")
	}

	var cp graph.Checkpoint[T]
	if err := json.Unmarshal([]byte(val), &cp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal checkpoint")
	}
	return &cp, nil
}

func (s *RedisStore[T]) Delete(ctx context.Context, key graph.CheckpointKey) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete checkpoint from redis")
	}
	return nil
}
