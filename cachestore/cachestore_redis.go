package cachestore

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

var redisCachePrefix = "integrity/verdict/"

type RedisCacheStore struct {
	verdicts *cache.Cache
	ttl      time.Duration
}

var _ CacheStore = (*RedisCacheStore)(nil)

func NewRedisCacheStore(redisURL string, ttl time.Duration) (*RedisCacheStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, err
	}
	return &RedisCacheStore{
		verdicts: cache.New(&cache.Options{
			Redis:      rdb,
			LocalCache: cache.NewTinyLFU(10_000, ttl),
		}),
		ttl: ttl,
	}, nil
}

func (s *RedisCacheStore) GetVerdict(ctx context.Context, name, accountID string) (Verdict, error) {
	var granted bool
	err := s.verdicts.Get(ctx, redisCachePrefix+cacheKey(name, accountID), &granted)
	if errors.Is(err, cache.ErrCacheMiss) {
		return VerdictMiss, nil
	}
	if err != nil {
		return VerdictMiss, err
	}
	return verdictOf(granted), nil
}

func (s *RedisCacheStore) PutVerdict(ctx context.Context, name, accountID string, granted bool) error {
	return s.verdicts.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisCachePrefix + cacheKey(name, accountID),
		Value: granted,
		TTL:   s.ttl,
	})
}

func (s *RedisCacheStore) PurgeAccount(ctx context.Context, name, accountID string) error {
	err := s.verdicts.Delete(ctx, redisCachePrefix+cacheKey(name, accountID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	return err
}
