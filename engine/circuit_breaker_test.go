package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flocksocial/integrity/account"
	"github.com/flocksocial/integrity/countstore"
)

func TestSevereSanctionCircuitBreaker(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	prevQuota := QuotaSevereSanctionDay
	QuotaSevereSanctionDay = 3
	defer func() { QuotaSevereSanctionDay = prevQuota }()

	eng := EngineTestFixture(testNow)

	// generate double the quota of severe evaluations; past the quota the
	// engine downgrades to moderate instead of going dark
	for i := 0; i < 2*QuotaSevereSanctionDay; i++ {
		id := fmt.Sprintf("acct-%d", i)
		acct := account.NewAccount(id)
		acct.SetAnomalyState([]account.AnomalyFlag{
			account.FlagSpikeFollowers,
			account.FlagInconsistentEngagement,
			account.FlagRapidFollowUnfollow,
		}, account.PatternSuspicious, testNow)
		seedAccount(t, eng, acct)

		res, err := eng.ApplySanctions(ctx, id)
		assert.NoError(err)
		require.NotNil(t, res)
		if i < QuotaSevereSanctionDay {
			assert.Equal(account.LevelSevere, res.Level)
			assert.False(res.Downgraded)
		} else {
			assert.Equal(account.LevelModerate, res.Level)
			assert.True(res.Downgraded)
		}
	}

	severes, err := eng.Counters.GetCount(ctx, "quota", "severe", countstore.PeriodDay)
	assert.NoError(err)
	assert.Equal(QuotaSevereSanctionDay, severes)
}

func TestManualSanctionBypassesBreaker(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	prevQuota := QuotaSevereSanctionDay
	QuotaSevereSanctionDay = 0
	defer func() { QuotaSevereSanctionDay = prevQuota }()

	eng := EngineTestFixture(testNow)
	seedAccount(t, eng, account.NewAccount("acct-1"))

	res, err := eng.ApplySanctionManual(ctx, "acct-1", account.SanctionReachReduction, account.LevelSevere, 30, "coordinated abuse")
	assert.NoError(err)
	require.NotNil(t, res)
	assert.Equal(account.LevelSevere, res.Level)

	got, _ := eng.Accounts.GetAccount(ctx, "acct-1")
	rec, ok := got.Sanction(account.SanctionReachReduction)
	assert.True(ok)
	assert.Equal(account.LevelSevere, rec.Level)
}
