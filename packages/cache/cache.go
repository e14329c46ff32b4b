// Package cache keeps per-country equivalency records in Redis between builds.
//
// Entries are keyed by build generation. A build publishes its run id as the
// new generation only after its table replace has committed, and readers
// fetch the generation before reading the store, so a write that raced a
// build lands under a generation nobody reads any more.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"grademap/packages/domain"
)

const (
	keyPrefix     = "grademap:source:"
	generationKey = "grademap:generation"

	// InitialGeneration is reported before any build has published one.
	InitialGeneration = "0"

	scanCount = 500
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		ttl:    ttl,
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func key(generation, sourceCode string) string {
	return keyPrefix + generation + ":" + sourceCode
}

// Generation returns the run id of the last published build.
func (r *Redis) Generation(ctx context.Context) (string, error) {
	gen, err := r.client.Get(ctx, generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return InitialGeneration, nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get generation: %w", err)
	}
	return gen, nil
}

func (r *Redis) Get(ctx context.Context, generation, sourceCode string) ([]domain.Record, error) {
	raw, err := r.client.Get(ctx, key(generation, sourceCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var records []domain.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode cached records: %w", err)
	}
	return records, nil
}

func (r *Redis) Set(ctx context.Context, generation, sourceCode string, records []domain.Record) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return r.client.Set(ctx, key(generation, sourceCode), raw, r.ttl).Err()
}

// Invalidate publishes runID as the current generation, then drops every
// cached entry. Called after a build has replaced the table.
func (r *Redis) Invalidate(ctx context.Context, runID string) (int, error) {
	if err := r.client.Set(ctx, generationKey, runID, 0).Err(); err != nil {
		return 0, fmt.Errorf("redis set generation: %w", err)
	}

	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, keyPrefix+"*", scanCount).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("redis del: %w", err)
			}
			deleted += int(n)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}

// Noop is used when no Redis address is configured.
type Noop struct{}

func (Noop) Generation(context.Context) (string, error) { return InitialGeneration, nil }
func (Noop) Get(context.Context, string, string) ([]domain.Record, error) { return nil, ErrMiss }
func (Noop) Set(context.Context, string, string, []domain.Record) error { return nil }
func (Noop) Invalidate(context.Context, string) (int, error) { return 0, nil }
