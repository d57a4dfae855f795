package cachestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type MemCacheStore struct {
	verdicts *expirable.LRU[string, bool]
}

var _ CacheStore = (*MemCacheStore)(nil)

func NewMemCacheStore(capacity int, ttl time.Duration) *MemCacheStore {
	return &MemCacheStore{
		verdicts: expirable.NewLRU[string, bool](capacity, nil, ttl),
	}
}

func (s *MemCacheStore) GetVerdict(ctx context.Context, name, accountID string) (Verdict, error) {
	granted, ok := s.verdicts.Get(cacheKey(name, accountID))
	if !ok {
		return VerdictMiss, nil
	}
	return verdictOf(granted), nil
}

func (s *MemCacheStore) PutVerdict(ctx context.Context, name, accountID string, granted bool) error {
	s.verdicts.Add(cacheKey(name, accountID), granted)
	return nil
}

func (s *MemCacheStore) PurgeAccount(ctx context.Context, name, accountID string) error {
	s.verdicts.Remove(cacheKey(name, accountID))
	return nil
}
