package genstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGenStore shares generations across processes and survives restarts, so
// a delete mutation run in one process invalidates the entry for all of them.
// Optionally, a TTL is applied to generation keys to prevent unbounded growth;
// an expired generation reads as 0 and the matching entries self-heal.
type RedisGenStore struct {
	rdb         redis.UniversalClient
	ns          string        // should match StoreOptions.Namespace
	ttl         time.Duration // 0 disables expiry
	closeClient bool
}

var _ GenStore = (*RedisGenStore)(nil)

type RedisConfig struct {
	Client      redis.UniversalClient
	Namespace   string
	TTL         time.Duration
	CloseClient bool // set true only if this store exclusively owns the client
}

func NewRedisGenStore(cfg RedisConfig) (*RedisGenStore, error) {
	if cfg.Client == nil {
		return nil, errors.New("redis genstore: nil client")
	}
	return &RedisGenStore{
		rdb:         cfg.Client,
		ns:          cfg.Namespace,
		ttl:         cfg.TTL,
		closeClient: cfg.CloseClient,
	}, nil
}

func (s *RedisGenStore) key(k string) string { return "gen:" + s.ns + ":" + k }

func (s *RedisGenStore) Snapshot(ctx context.Context, key string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis gen parse: %w", err)
	}
	return u, nil
}

// Bump increments the generation. With a TTL, INCR and EXPIRE are pipelined
// in one round trip.
func (s *RedisGenStore) Bump(ctx context.Context, key string) (uint64, error) {
	k := s.key(key)
	if s.ttl <= 0 {
		return s.rdb.Incr(ctx, k).Uint64()
	}

	var incr *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uint64(incr.Val()), nil
}

// Cleanup is not applicable; Redis expires generation keys itself.
func (s *RedisGenStore) Cleanup(time.Duration) {}

func (s *RedisGenStore) Close(context.Context) error {
	if !s.closeClient {
		return nil
	}
	if err := s.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
