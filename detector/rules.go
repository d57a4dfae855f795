package detector

import (
	"time"

	"github.com/flocksocial/integrity/account"
)

var (
	// follower delta between adjacent samples less than a day apart that counts
	// as a spike
	SpikeAdjacentDelta int64 = 100
	// weekly growth thresholds, percent and absolute
	SpikeWeekGrowthPercent float64 = 50
	SpikeWeekAbsoluteDelta int64   = 500
	// dormancy threshold for large accounts
	InactiveDays = 60
	// adjacent-sample churn threshold and required occurrences over the window
	ChurnDelta      int64 = 50
	ChurnWindow           = 5
	ChurnOccurrence       = 3
)

var _ RuleFunc = FollowerSpike24hRule

// triggers on a follower jump of more than SpikeAdjacentDelta between two
// samples taken less than 24 hours apart
func FollowerSpike24hRule(c *Context) error {
	growth := c.Account.FollowerGrowth
	for i := 1; i < len(growth); i++ {
		prev, cur := growth[i-1], growth[i]
		if cur.Time.Sub(prev.Time) < 24*time.Hour && cur.Followers-prev.Followers > SpikeAdjacentDelta {
			c.Logger.Debug("follower spike within a day", "delta", cur.Followers-prev.Followers)
			c.AddFlag(account.FlagSpikeFollowers)
			break
		}
	}
	return nil
}

var _ RuleFunc = FollowerSpikeWeekRule

// triggers on week-over-week growth above SpikeWeekGrowthPercent percent, or an
// absolute gain above SpikeWeekAbsoluteDelta.
//
// The baseline is the earliest sample older than seven days, which can be far
// older than a week if the series has gaps. That matches the established
// behavior of this check; don't tighten it without confirming downstream
// expectations.
func FollowerSpikeWeekRule(c *Context) error {
	growth := c.Account.FollowerGrowth
	if len(growth) == 0 {
		return nil
	}
	cutoff := c.Now.Add(-7 * 24 * time.Hour)
	var oldEntry *account.GrowthSample
	for i := range growth {
		if growth[i].Time.Before(cutoff) {
			oldEntry = &growth[i]
			break
		}
	}
	if oldEntry == nil {
		return nil
	}
	latest := growth[len(growth)-1]
	delta := latest.Followers - oldEntry.Followers
	if oldEntry.Followers > 0 {
		growthPercent := float64(delta) / float64(oldEntry.Followers) * 100
		if growthPercent > SpikeWeekGrowthPercent {
			c.Logger.Debug("weekly growth spike", "percent", growthPercent)
			c.AddFlag(account.FlagSpikeFollowers)
			return nil
		}
	}
	if delta > SpikeWeekAbsoluteDelta {
		c.Logger.Debug("weekly growth spike", "delta", delta)
		c.AddFlag(account.FlagSpikeFollowers)
	}
	return nil
}

var _ RuleFunc = InconsistentEngagementRule

// triggers when an audience exists but engagement doesn't: a thousand-plus
// followers with near-zero interactions, or a hundred-plus followers with no
// posts at all
func InconsistentEngagementRule(c *Context) error {
	acct := c.Account
	interactions := acct.TotalLikes + acct.TotalComments
	if acct.FollowerCount >= 1_000 && interactions < 50 {
		c.AddFlag(account.FlagInconsistentEngagement)
		return nil
	}
	if acct.FollowerCount >= 100 && acct.TotalPosts == 0 {
		c.AddFlag(account.FlagInconsistentEngagement)
	}
	return nil
}

var _ RuleFunc = InactiveWithFollowersRule

// triggers for accounts with at least 5k followers that have either never
// posted or gone dormant for more than InactiveDays
func InactiveWithFollowersRule(c *Context) error {
	acct := c.Account
	if acct.FollowerCount < 5_000 {
		return nil
	}
	if acct.FirstPostAt == nil {
		c.AddFlag(account.FlagInactiveWithFollowers)
		return nil
	}
	if len(acct.LastPostDates) == 0 {
		// no recent-post data recorded; insufficient data, not dormancy
		return nil
	}
	lastPost := acct.LastPostDates[len(acct.LastPostDates)-1]
	if c.Now.Sub(lastPost) > time.Duration(InactiveDays)*24*time.Hour {
		c.Logger.Debug("dormant account with large following", "lastPost", lastPost)
		c.AddFlag(account.FlagInactiveWithFollowers)
	}
	return nil
}

var _ RuleFunc = RapidFollowUnfollowRule

// triggers on churn: within the last ChurnWindow samples, at least
// ChurnOccurrence adjacent deltas larger than ChurnDelta in either direction
func RapidFollowUnfollowRule(c *Context) error {
	growth := c.Account.FollowerGrowth
	if len(growth) < ChurnWindow {
		return nil
	}
	recent := growth[len(growth)-ChurnWindow:]
	swings := 0
	for i := 1; i < len(recent); i++ {
		delta := recent[i].Followers - recent[i-1].Followers
		if delta < 0 {
			delta = -delta
		}
		if delta > ChurnDelta {
			swings++
		}
	}
	if swings >= ChurnOccurrence {
		c.Logger.Debug("follower churn", "swings", swings)
		c.AddFlag(account.FlagRapidFollowUnfollow)
	}
	return nil
}

var _ RuleFunc = FakeInteractionNetworkRule

// triggers for small creators whose posts draw almost no engagement, the
// signature of a purchased or botted audience. Only evaluated in the "new"
// creator phase with a body of posts to judge from.
func FakeInteractionNetworkRule(c *Context) error {
	acct := c.Account
	if acct.Phase() != account.PhaseNew || acct.TotalPosts <= 5 {
		return nil
	}
	engagementRatio := float64(acct.TotalLikes+acct.TotalComments) / float64(acct.TotalPosts)
	if engagementRatio < 0.5 {
		c.Logger.Debug("low engagement ratio", "ratio", engagementRatio)
		c.AddFlag(account.FlagFakeInteractionNetwork)
	}
	return nil
}
