package countstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisCountPrefix    = "integrity/count/"
	redisDistinctPrefix = "integrity/distinct/"
)

// retention per period bucket; total buckets never expire
var periodTTLs = map[string]time.Duration{
	PeriodHour: 2 * time.Hour,
	PeriodDay:  48 * time.Hour,
}

type RedisCountStore struct {
	client *redis.Client
}

var _ CountStore = (*RedisCountStore)(nil)

func NewRedisCountStore(redisURL string) (*RedisCountStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, err
	}
	return &RedisCountStore{client: rdb}, nil
}

func (s *RedisCountStore) GetCount(ctx context.Context, name, val, period string) (int, error) {
	c, err := s.client.Get(ctx, redisCountPrefix+periodBucket(name, val, period)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return c, nil
}

// Increment advances every period bucket in a single redis round trip.
func (s *RedisCountStore) Increment(ctx context.Context, name, val string) error {
	pipe := s.client.Pipeline()
	for _, period := range []string{PeriodHour, PeriodDay, PeriodTotal} {
		key := redisCountPrefix + periodBucket(name, val, period)
		pipe.Incr(ctx, key)
		if ttl, ok := periodTTLs[period]; ok {
			pipe.Expire(ctx, key, ttl)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisCountStore) GetCountDistinct(ctx context.Context, name, bucket, period string) (int, error) {
	c, err := s.client.PFCount(ctx, redisDistinctPrefix+periodBucket(name, bucket, period)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return int(c), nil
}

// IncrementDistinct folds val into the HyperLogLog for every period bucket in
// a single round trip.
func (s *RedisCountStore) IncrementDistinct(ctx context.Context, name, bucket, val string) error {
	pipe := s.client.Pipeline()
	for _, period := range []string{PeriodHour, PeriodDay, PeriodTotal} {
		key := redisDistinctPrefix + periodBucket(name, bucket, period)
		pipe.PFAdd(ctx, key, val)
		if ttl, ok := periodTTLs[period]; ok {
			pipe.Expire(ctx, key, ttl)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}
