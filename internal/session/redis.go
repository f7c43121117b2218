package session

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps session keys in Redis under "<namespace>:<key>", so several
// terminals or machines can share one signed-in session.
type RedisStorage struct {
	rdb       *redis.Client
	namespace string
}

func NewRedisStorage(rdb *redis.Client, namespace string) *RedisStorage {
	if namespace == "" {
		namespace = "afisha:session"
	}
	return &RedisStorage{rdb: rdb, namespace: namespace}
}

func (r *RedisStorage) key(k string) string {
	return r.namespace + ":" + k
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.rdb.Del(ctx, full...).Err()
}
