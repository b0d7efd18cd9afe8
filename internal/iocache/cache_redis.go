package iocache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/redis/go-redis/v9"
)

// reconstructionPrefix namespaces reconstruction entries in a shared Redis database.
const reconstructionPrefix = "wvg:reconstruction:"

// redisTimeout bounds every round trip; the CacheStore interface carries no context.
const redisTimeout = 5 * time.Second

// RedisCacheStore keeps each entry in a hash with value, version and ts fields.
type RedisCacheStore struct {
	client *redis.Client
	prefix string
}

var _ contract.CacheStore = &RedisCacheStore{} // Compile-time check

// NewRedisCacheStore connects to the Redis URL and verifies the connection.
func NewRedisCacheStore(prefix, connStr string) (*RedisCacheStore, error) {
	opts, err := redis.ParseURL(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w. Check connection format: redis://[:password@]host:port/db", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCacheStore{client: client, prefix: prefix}, nil
}

// Get retrieves a value by key. A missing key returns redis.Nil.
func (rs *RedisCacheStore) Get(key string) ([]byte, int, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	vals, err := rs.client.HMGet(ctx, rs.prefix+key, "value", "version", "ts").Result()
	if err != nil {
		return nil, 0, 0, err
	}
	value, ok := vals[0].(string)
	if !ok {
		return nil, 0, 0, redis.Nil
	}
	version, err := strconv.Atoi(fmt.Sprint(vals[1]))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	ts, err := strconv.ParseInt(fmt.Sprint(vals[2]), 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return []byte(value), version, ts, nil
}

// Set writes the entry fields in one round trip.
func (rs *RedisCacheStore) Set(key string, value []byte, version int, timestamp int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	return rs.client.HSet(ctx, rs.prefix+key, "value", value, "version", version, "ts", timestamp).Err()
}

// GetStatus walks the keyspace under the prefix with SCAN.
func (rs *RedisCacheStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: string(schema.RedisBackend), Connected: true}

	ctx, cancel := context.WithTimeout(context.Background(), 4*redisTimeout)
	defer cancel()

	var oldest, last int64
	iter := rs.client.Scan(ctx, 0, rs.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		status.TotalEntries++
		if ts, err := rs.client.HGet(ctx, key, "ts").Int64(); err == nil {
			if oldest == 0 || ts < oldest {
				oldest = ts
			}
			last = max(last, ts)
		}
		if size, err := rs.client.MemoryUsage(ctx, key).Result(); err == nil {
			status.TableSizeBytes += size
		}
	}
	if err := iter.Err(); err != nil {
		return status, fmt.Errorf("failed to scan redis keys: %w", err)
	}
	if status.TotalEntries > 0 {
		status.OldestEntryTime = time.Unix(oldest, 0)
		status.LastEntryTime = time.Unix(last, 0)
	}
	return status, nil
}

// Clear deletes every entry under the prefix and returns how many were removed.
func (rs *RedisCacheStore) Clear() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*redisTimeout)
	defer cancel()

	removed := 0
	iter := rs.client.Scan(ctx, 0, rs.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := rs.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to delete %s: %w", iter.Val(), err)
		}
		removed += int(n)
	}
	return removed, iter.Err()
}

// Close closes the client.
func (rs *RedisCacheStore) Close() error {
	return rs.client.Close()
}

