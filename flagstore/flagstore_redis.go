package flagstore

import (
	"context"

	"github.com/redis/go-redis/v9"
)

var redisFlagPrefix string = "flag/"

type RedisFlagStore struct {
	Client *redis.Client
}

func NewRedisFlagStore(redisURL string) (*RedisFlagStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	fs := RedisFlagStore{
		Client: rdb,
	}
	return &fs, nil
}

func (s *RedisFlagStore) Get(ctx context.Context, key string) ([]string, error) {
	v, err := s.Client.SMembers(ctx, redisFlagPrefix+key).Result()
	if err == redis.Nil {
		return []string{}, nil
	} else if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *RedisFlagStore) Add(ctx context.Context, key string, flags []string) error {
	if len(flags) == 0 {
		return nil
	}
	members := make([]interface{}, len(flags))
	for i, f := range flags {
		members[i] = f
	}
	return s.Client.SAdd(ctx, redisFlagPrefix+key, members...).Err()
}

func (s *RedisFlagStore) Remove(ctx context.Context, key string, flags []string) error {
	if len(flags) == 0 {
		return nil
	}
	members := make([]interface{}, len(flags))
	for i, f := range flags {
		members[i] = f
	}
	return s.Client.SRem(ctx, redisFlagPrefix+key, members...).Err()
}

// replace the whole set in a single pipeline round-trip
func (s *RedisFlagStore) Set(ctx context.Context, key string, flags []string) error {
	multi := s.Client.Pipeline()
	multi.Del(ctx, redisFlagPrefix+key)
	if len(flags) > 0 {
		members := make([]interface{}, len(flags))
		for i, f := range flags {
			members[i] = f
		}
		multi.SAdd(ctx, redisFlagPrefix+key, members...)
	}
	_, err := multi.Exec(ctx)
	return err
}
