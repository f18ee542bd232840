package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript удаляет ключ, только если значение совпадает с владельцем.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker - блокировки в Redis, общие для всех реплик сервиса.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker подключается к Redis и проверяет соединение.
func NewRedisLocker(addr, password string, db int) (*RedisLocker, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisLocker{client: rdb, prefix: "bid-session:"}, nil
}

// Acquire выполняет SET NX PX.
func (l *RedisLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+key, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if ok {
		return true, nil
	}

	// Повторный захват тем же владельцем продлевает срок.
	current, err := l.client.Get(ctx, l.prefix+key).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("read lock %s: %w", key, err)
	}
	if current == owner {
		return true, l.client.PExpire(ctx, l.prefix+key, ttl).Err()
	}
	return false, nil
}

// Release снимает блокировку атомарно через Lua-скрипт.
func (l *RedisLocker) Release(ctx context.Context, key, owner string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.prefix + key}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
