package accountstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flocksocial/integrity/account"
	"github.com/flocksocial/integrity/util/dbutil"
)

func testGormStore(t *testing.T) *GormAccountStore {
	t.Helper()
	db, err := dbutil.SetupDatabase("sqlite://:memory:", 1)
	require.NoError(t, err)
	store, err := NewGormAccountStore(db)
	require.NoError(t, err)
	return store
}

func TestGormAccountStoreRoundTrip(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	as := testGormStore(t)

	_, err := as.GetAccount(ctx, "missing")
	assert.ErrorIs(err, ErrNotFound)

	acct := account.NewAccount("acct-1")
	acct.FollowerCount = 12_000
	acct.AppendGrowthSample(testNow.AddDate(0, 0, -2), 11_000)
	acct.AppendGrowthSample(testNow.AddDate(0, 0, -1), 12_000)
	acct.RecordPost(testNow.AddDate(0, 0, -1))
	expiry := testNow.AddDate(0, 0, 14)
	acct.Sanctions[account.SanctionReachReduction] = account.SanctionRecord{
		Type:      account.SanctionReachReduction,
		Level:     account.LevelModerate,
		Reason:    "follower churn",
		AppliedAt: testNow,
		ExpiresAt: &expiry,
	}
	acct.ReachPenalty = 0.7
	acct.ReducedReach = true

	assert.NoError(as.PutAccount(ctx, acct))
	assert.Equal(int64(1), acct.Version)

	got, err := as.GetAccount(ctx, "acct-1")
	assert.NoError(err)
	assert.Equal(int64(12_000), got.FollowerCount)
	assert.Len(got.FollowerGrowth, 2)
	assert.Equal(0.7, got.ReachPenalty)
	rec, ok := got.Sanction(account.SanctionReachReduction)
	assert.True(ok)
	assert.Equal(account.LevelModerate, rec.Level)

	ids, err := as.ListExpiringSanctions(ctx, testNow.AddDate(0, 0, 15))
	assert.NoError(err)
	assert.Equal([]string{"acct-1"}, ids)

	ids, err = as.ListExpiringSanctions(ctx, testNow.AddDate(0, 0, 7))
	assert.NoError(err)
	assert.Empty(ids)
}

func TestGormAccountStoreVersionRace(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	as := testGormStore(t)
	acct := account.NewAccount("acct-1")
	assert.NoError(as.PutAccount(ctx, acct))

	a, err := as.GetAccount(ctx, "acct-1")
	assert.NoError(err)
	b, err := as.GetAccount(ctx, "acct-1")
	assert.NoError(err)

	a.TotalPosts = 5
	assert.NoError(as.PutAccount(ctx, a))

	b.TotalLikes = 5
	assert.ErrorIs(as.PutAccount(ctx, b), ErrConcurrentUpdate)

	got, err := as.GetAccount(ctx, "acct-1")
	assert.NoError(err)
	assert.Equal(int64(5), got.TotalPosts)
	assert.Equal(int64(0), got.TotalLikes)
}

func TestGormAccountStorePutMissing(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	as := testGormStore(t)
	phantom := account.NewAccount("acct-phantom")
	phantom.Version = 3
	assert.ErrorIs(as.PutAccount(ctx, phantom), ErrNotFound)
}
