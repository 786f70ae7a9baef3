package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/law4percent/checkme-api/pkg/config"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
)

// OpObserver receives the name and duration of every store operation.
type OpObserver func(op string, duration time.Duration)

// RedisStore keeps one JSON document per path-shaped key. Prefix operations
// walk the keyspace with SCAN, so they see whatever is committed when the
// cursor passes, acceptable given the store offers no snapshots anyway.
type RedisStore struct {
	client  *redis.Client
	observe OpObserver
}

// NewRedisClient returns a configured Redis client, pinging it once.
func NewRedisClient(cfg config.StoreConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// NewRedisStore wraps a Redis client as a Store. A nil observer disables
// operation timing.
func NewRedisStore(client *redis.Client, observe OpObserver) *RedisStore {
	return &RedisStore{client: client, observe: observe}
}

func (s *RedisStore) timed(op string) func() {
	if s.observe == nil {
		return func() {}
	}
	start := time.Now()
	return func() { s.observe(op, time.Since(start)) }
}

func (s *RedisStore) Get(ctx context.Context, path string, dest interface{}) (bool, error) {
	defer s.timed("get")()
	raw, err := s.client.Get(ctx, path).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, fmt.Sprintf("store get %s", path))
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("decode document at %s", path))
	}
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, path string, value interface{}) error {
	defer s.timed("set")()
	payload, err := marshal(value)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("encode document for %s", path))
	}
	if err := s.client.Set(ctx, path, payload, 0).Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, fmt.Sprintf("store set %s", path))
	}
	return nil
}

func (s *RedisStore) Patch(ctx context.Context, path string, fields map[string]interface{}) error {
	defer s.timed("patch")()
	existing, err := s.client.Get(ctx, path).Bytes()
	if err != nil && err != redis.Nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, fmt.Sprintf("store get %s", path))
	}
	merged, err := mergeFields(existing, fields)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("merge document at %s", path))
	}
	if err := s.client.Set(ctx, path, merged, 0).Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, fmt.Sprintf("store patch %s", path))
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	defer s.timed("delete")()
	if err := s.client.Del(ctx, path).Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, fmt.Sprintf("store delete %s", path))
	}
	return nil
}

func (s *RedisStore) DeleteAll(ctx context.Context, prefix string) error {
	defer s.timed("delete_all")()
	iter := s.client.Scan(ctx, 0, prefix+"/*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, fmt.Sprintf("store delete %s", iter.Val()))
		}
	}
	if err := iter.Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, fmt.Sprintf("store scan %s", prefix))
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	defer s.timed("list")()
	result := make(map[string]json.RawMessage)
	iter := s.client.Scan(ctx, 0, prefix+"/*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue // deleted between scan and get
			}
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, fmt.Sprintf("store get %s", key))
		}
		result[strings.TrimPrefix(key, prefix+"/")] = json.RawMessage(raw)
	}
	if err := iter.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, fmt.Sprintf("store scan %s", prefix))
	}
	return result, nil
}
