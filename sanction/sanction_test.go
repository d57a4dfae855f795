package sanction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flocksocial/integrity/account"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func flaggedAccount(flags ...account.AnomalyFlag) *account.Account {
	acct := account.NewAccount("acct-1")
	acct.SetAnomalyState(flags, "", testNow)
	return acct
}

func TestLevelForFlagCount(t *testing.T) {
	assert := assert.New(t)

	_, ok := LevelForFlagCount(0)
	assert.False(ok)

	level, ok := LevelForFlagCount(1)
	assert.True(ok)
	assert.Equal(account.LevelWarning, level)

	level, _ = LevelForFlagCount(2)
	assert.Equal(account.LevelModerate, level)

	level, _ = LevelForFlagCount(3)
	assert.Equal(account.LevelSevere, level)
	level, _ = LevelForFlagCount(5)
	assert.Equal(account.LevelSevere, level)
}

func TestApplyWarning(t *testing.T) {
	assert := assert.New(t)

	acct := flaggedAccount(account.FlagSpikeFollowers)
	res := ApplyLevel(acct, account.LevelWarning, ReasonForFlags(acct.AnomalyFlags), testNow)

	assert.Equal(account.LevelWarning, res.Level)
	assert.False(res.BadgeRemovalRequired)
	assert.False(acct.ReducedReach)
	assert.Equal(1.0, acct.ReachPenalty)
	assert.True(acct.MonetizationEligible)

	rec, ok := acct.Sanction(account.SanctionReachReduction)
	assert.True(ok)
	assert.Equal(account.LevelWarning, rec.Level)
	assert.Equal(testNow.Add(WarningDuration), *rec.ExpiresAt)
	assert.Contains(rec.Reason, "spike_followers")
}

func TestApplyModerate(t *testing.T) {
	assert := assert.New(t)

	acct := flaggedAccount(account.FlagSpikeFollowers, account.FlagInconsistentEngagement)
	res := ApplyLevel(acct, account.LevelModerate, ReasonForFlags(acct.AnomalyFlags), testNow)

	assert.Equal(account.LevelModerate, res.Level)
	assert.True(acct.ReducedReach)
	assert.Equal(PenaltyModerate, acct.ReachPenalty)
	// moderate reduces reach but leaves monetization alone
	assert.True(acct.MonetizationEligible)
	assert.Len(acct.Sanctions, 1)
}

func TestApplySevere(t *testing.T) {
	assert := assert.New(t)

	acct := flaggedAccount(
		account.FlagSpikeFollowers,
		account.FlagInconsistentEngagement,
		account.FlagRapidFollowUnfollow,
	)
	res := ApplyLevel(acct, account.LevelSevere, ReasonForFlags(acct.AnomalyFlags), testNow)

	assert.Equal(account.LevelSevere, res.Level)
	assert.True(res.BadgeRemovalRequired)
	assert.Equal(PenaltySevere, acct.ReachPenalty)
	assert.False(acct.MonetizationEligible)
	assert.Len(acct.Sanctions, 3)

	block, ok := acct.Sanction(account.SanctionMonetizationBlock)
	assert.True(ok)
	assert.Equal(testNow.Add(SevereDuration), *block.ExpiresAt)
}

func TestApplyIdempotent(t *testing.T) {
	assert := assert.New(t)

	acct := flaggedAccount(account.FlagSpikeFollowers, account.FlagInconsistentEngagement)
	ApplyLevel(acct, account.LevelModerate, "first", testNow)

	// second run refreshes the record in place rather than appending
	later := testNow.Add(3 * 24 * time.Hour)
	ApplyLevel(acct, account.LevelModerate, "second", later)

	assert.Len(acct.Sanctions, 1)
	rec, _ := acct.Sanction(account.SanctionReachReduction)
	assert.Equal(later.Add(ModerateDuration), *rec.ExpiresAt)
	assert.Equal(testNow, rec.AppliedAt)
	// reason from the original application is preserved on refresh
	assert.Equal("first", rec.Reason)
}

func TestEscalationRefreshesRecord(t *testing.T) {
	assert := assert.New(t)

	acct := flaggedAccount(account.FlagSpikeFollowers)
	ApplyLevel(acct, account.LevelWarning, "warning", testNow)

	acct.SetAnomalyState([]account.AnomalyFlag{
		account.FlagSpikeFollowers,
		account.FlagInconsistentEngagement,
		account.FlagRapidFollowUnfollow,
	}, account.PatternSuspicious, testNow)
	ApplyLevel(acct, account.LevelSevere, "severe", testNow)

	rec, _ := acct.Sanction(account.SanctionReachReduction)
	assert.Equal(account.LevelSevere, rec.Level)
	assert.Equal(testNow.Add(SevereDuration), *rec.ExpiresAt)
	assert.Equal(PenaltySevere, acct.ReachPenalty)
	assert.False(acct.MonetizationEligible)
}

func TestRecover(t *testing.T) {
	assert := assert.New(t)

	acct := flaggedAccount(account.FlagSpikeFollowers, account.FlagInconsistentEngagement)
	ApplyLevel(acct, account.LevelModerate, "moderate", testNow)

	acct.SetAnomalyState(nil, account.PatternNormal, testNow)
	res := Recover(acct, testNow)

	assert.True(res.Cleared)
	assert.False(acct.ReducedReach)
	assert.Equal(1.0, acct.ReachPenalty)
	assert.True(acct.MonetizationEligible)
	assert.Empty(acct.Sanctions)

	// recovering an already-clean account reports nothing cleared
	res = Recover(acct, testNow)
	assert.False(res.Cleared)
}

func TestCleanExpired(t *testing.T) {
	assert := assert.New(t)

	acct := flaggedAccount(
		account.FlagSpikeFollowers,
		account.FlagInconsistentEngagement,
		account.FlagRapidFollowUnfollow,
	)
	ApplyLevel(acct, account.LevelSevere, "severe", testNow)

	// before expiry nothing changes
	res := CleanExpired(acct, testNow.Add(24*time.Hour))
	assert.False(res.Cleared)
	assert.Equal(PenaltySevere, acct.ReachPenalty)
	assert.False(acct.MonetizationEligible)

	// after all records lapse the account fully resets
	res = CleanExpired(acct, testNow.Add(SevereDuration+time.Hour))
	assert.True(res.Cleared)
	assert.Equal(1.0, acct.ReachPenalty)
	assert.True(acct.MonetizationEligible)
	assert.False(acct.ReducedReach)
	assert.Empty(acct.Sanctions)
}

func TestCleanExpiredPartial(t *testing.T) {
	assert := assert.New(t)

	acct := account.NewAccount("acct-1")
	// moderate reach reduction plus a manual monetization block with a short fuse
	ApplyManual(acct, account.SanctionReachReduction, account.LevelModerate, ModerateDuration, "churn", testNow)
	ApplyManual(acct, account.SanctionMonetizationBlock, account.LevelSevere, 2*24*time.Hour, "payout abuse", testNow)

	assert.Equal(PenaltySevere, acct.ReachPenalty)
	assert.False(acct.MonetizationEligible)

	// block lapses; aggregate recomputes from the surviving moderate record
	res := CleanExpired(acct, testNow.Add(3*24*time.Hour))
	assert.False(res.Cleared)
	assert.Equal(PenaltyModerate, acct.ReachPenalty)
	assert.True(acct.ReducedReach)
	assert.True(acct.MonetizationEligible)
	assert.Len(acct.Sanctions, 1)
}

func TestLift(t *testing.T) {
	assert := assert.New(t)

	acct := flaggedAccount(
		account.FlagSpikeFollowers,
		account.FlagInconsistentEngagement,
		account.FlagRapidFollowUnfollow,
	)
	ApplyLevel(acct, account.LevelSevere, "severe", testNow)

	res := Lift(acct, account.SanctionMonetizationBlock, testNow)
	assert.False(res.Cleared)
	assert.True(acct.MonetizationEligible)
	// severe reach reduction still in force
	assert.Equal(PenaltySevere, acct.ReachPenalty)

	Lift(acct, account.SanctionBadgeRemoval, testNow)
	res = Lift(acct, account.SanctionReachReduction, testNow)
	assert.True(res.Cleared)
	assert.Equal(1.0, acct.ReachPenalty)
	assert.False(acct.ReducedReach)
}

func TestDowngradeKeepsSevereRecords(t *testing.T) {
	assert := assert.New(t)

	acct := flaggedAccount(
		account.FlagSpikeFollowers,
		account.FlagInconsistentEngagement,
		account.FlagRapidFollowUnfollow,
	)
	ApplyLevel(acct, account.LevelSevere, "three flags", testNow)

	// two-flag re-evaluation: penalty follows the level table even though the
	// severe block is still active
	later := testNow.Add(24 * time.Hour)
	res := ApplyLevel(acct, account.LevelModerate, "two flags", later)
	assert.Equal(account.LevelModerate, res.Level)
	assert.Equal(0.7, acct.ReachPenalty)
	assert.True(acct.HasActiveSanction(account.SanctionMonetizationBlock, later))
	assert.False(acct.MonetizationEligible)
	rec, ok := acct.Sanction(account.SanctionReachReduction)
	assert.True(ok)
	assert.Equal(account.LevelModerate, rec.Level)

	// the next cleanup pass re-derives the min-over-active aggregate, so the
	// lingering severe block dominates until it lapses
	CleanExpired(acct, later.Add(time.Hour))
	assert.Equal(PenaltySevere, acct.ReachPenalty)
	assert.False(acct.MonetizationEligible)

	// everything lapses; the sweep fully resets
	CleanExpired(acct, later.Add(SevereDuration+time.Hour))
	assert.Equal(1.0, acct.ReachPenalty)
	assert.True(acct.MonetizationEligible)
	assert.Empty(acct.Sanctions)
}
