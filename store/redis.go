package store

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/YuminosukeSato/loangate/core/model"
	"github.com/YuminosukeSato/loangate/pkg/errors"
)

// historySuffix names the list that keeps the IDs of every saved snapshot.
const historySuffix = ":history"

// RedisStore keeps the latest snapshot JSON under one key.
type RedisStore struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, key string, timeout time.Duration) *RedisStore {
	return &RedisStore{client: client, key: key, timeout: timeout}
}

// OpenRedis connects to addr and checks the connection.
func OpenRedis(ctx context.Context, addr, key string, timeout time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	s := NewRedisStore(client, key, timeout)

	pingCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", addr)
	}
	return s, nil
}

// Save writes the snapshot and records its ID in the history list inside one
// MULTI/EXEC transaction, so the key never holds a snapshot missing from history.
func (r *RedisStore) Save(ctx context.Context, s *model.Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := s.ToJSON()
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key, data, 0)
		pipe.LPush(ctx, r.key+historySuffix, s.ID)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to store snapshot in redis")
	}
	return nil
}

// Load reads and validates the snapshot.
func (r *RedisStore) Load(ctx context.Context) (*model.Snapshot, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, errors.Wrapf(errors.ErrSnapshotNotFound, "redis key %s", r.key)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read snapshot from redis")
	}
	return model.SnapshotFromJSON(data)
}

// History returns up to n saved snapshot IDs, newest first. n <= 0 returns all of them.
func (r *RedisStore) History(ctx context.Context, n int) ([]string, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	stop := int64(n) - 1
	if n <= 0 {
		stop = -1
	}
	ids, err := r.client.LRange(ctx, r.key+historySuffix, 0, stop).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read snapshot history from redis")
	}
	return ids, nil
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
