package flagstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fs := NewMemFlagStore()

	l, err := fs.Get(ctx, "acct-1")
	assert.NoError(err)
	assert.Empty(l)

	assert.NoError(fs.Add(ctx, "acct-1", []string{"spike_followers", "inconsistent_engagement"}))
	assert.NoError(fs.Add(ctx, "acct-1", []string{"spike_followers", "rapid_follow_unfollow"}))
	l, err = fs.Get(ctx, "acct-1")
	assert.NoError(err)
	assert.Equal(3, len(l))

	assert.NoError(fs.Remove(ctx, "acct-1", []string{"spike_followers", "rapid_follow_unfollow"}))
	l, err = fs.Get(ctx, "acct-1")
	assert.NoError(err)
	assert.Equal([]string{"inconsistent_engagement"}, l)
}

func TestFlagStoreReplace(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fs := NewMemFlagStore()

	assert.NoError(fs.Add(ctx, "acct-1", []string{"spike_followers", "inconsistent_engagement"}))

	// each detection run replaces, not merges
	assert.NoError(fs.Set(ctx, "acct-1", []string{"inactive_with_followers"}))
	l, err := fs.Get(ctx, "acct-1")
	assert.NoError(err)
	assert.Equal([]string{"inactive_with_followers"}, l)

	assert.NoError(fs.Set(ctx, "acct-1", nil))
	l, err = fs.Get(ctx, "acct-1")
	assert.NoError(err)
	assert.Empty(l)
}
