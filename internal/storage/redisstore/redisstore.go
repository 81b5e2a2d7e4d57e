// Package redisstore implements the storage contract on top of Redis. This is
// the implementation production deployments are expected to run; the TTL
// semantics map directly onto Redis key expiry.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/tokengate/internal/storage"
)

// Store holds a client it does not own: closing the client is the caller's job.
type Store struct {
	client *redis.Client
}

var _ storage.StringStore = (*Store)(nil)
var _ storage.ConditionalSetter = (*Store)(nil)

// New creates a Store around an existing Redis client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl int64) error {
	if ttl == 0 {
		return s.Delete(ctx, key)
	}
	var expiration time.Duration
	if ttl != storage.NeverExpire {
		expiration = time.Duration(ttl) * time.Second
	}
	if err := s.client.Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

func (s *Store) SetIfAbsent(ctx context.Context, key, value string, ttl int64) (bool, error) {
	var expiration time.Duration
	if ttl != storage.NeverExpire {
		expiration = time.Duration(ttl) * time.Second
	}
	ok, err := s.client.SetNX(ctx, key, value, expiration).Result()
	if err != nil {
		return false, fmt.Errorf("failed to setnx key %q: %w", key, err)
	}
	return ok, nil
}

// Update overwrites the value only when the key exists, keeping its TTL.
// SET XX KEEPTTL does both checks atomically on the server.
func (s *Store) Update(ctx context.Context, key, value string) error {
	err := s.client.SetArgs(ctx, key, value, redis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to update key %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

func (s *Store) GetTimeout(ctx context.Context, key string) (int64, error) {
	d, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read ttl of key %q: %w", key, err)
	}
	switch d {
	case -2: // key absent
		return storage.NotValueExpire, nil
	case -1: // no expiry
		return storage.NeverExpire, nil
	default:
		return int64(d / time.Second), nil
	}
}

func (s *Store) UpdateTimeout(ctx context.Context, key string, ttl int64) error {
	if ttl == storage.NeverExpire {
		if err := s.client.Persist(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to persist key %q: %w", key, err)
		}
		return nil
	}
	if err := s.client.Expire(ctx, key, time.Duration(ttl)*time.Second).Err(); err != nil {
		return fmt.Errorf("failed to expire key %q: %w", key, err)
	}
	return nil
}

// SearchKeys scans the keyspace with MATCH <prefix>* and filters/pages on the
// client side so the result ordering matches the other backends.
func (s *Store) SearchKeys(ctx context.Context, prefix, keyword string, start, size int, ascending bool) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys with prefix %q: %w", prefix, err)
	}
	return storage.FilterKeys(keys, prefix, keyword, start, size, ascending), nil
}

// Init verifies connectivity; Redis owns expiry, so there is no sweep to start.
func (s *Store) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

func (s *Store) Destroy() error {
	return nil
}
