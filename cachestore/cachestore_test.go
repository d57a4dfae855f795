package cachestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemCacheStoreVerdicts(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemCacheStore(10, time.Minute)

	v, err := s.GetVerdict(ctx, "eligibility", "acct-1")
	assert.NoError(err)
	assert.Equal(VerdictMiss, v)

	// a cached denial is not a miss
	assert.NoError(s.PutVerdict(ctx, "eligibility", "acct-1", false))
	v, err = s.GetVerdict(ctx, "eligibility", "acct-1")
	assert.NoError(err)
	assert.Equal(VerdictDenied, v)

	assert.NoError(s.PutVerdict(ctx, "eligibility", "acct-1", true))
	v, err = s.GetVerdict(ctx, "eligibility", "acct-1")
	assert.NoError(err)
	assert.Equal(VerdictGranted, v)

	// caches are namespaced per decision
	v, err = s.GetVerdict(ctx, "other", "acct-1")
	assert.NoError(err)
	assert.Equal(VerdictMiss, v)

	assert.NoError(s.PurgeAccount(ctx, "eligibility", "acct-1"))
	v, err = s.GetVerdict(ctx, "eligibility", "acct-1")
	assert.NoError(err)
	assert.Equal(VerdictMiss, v)
}
