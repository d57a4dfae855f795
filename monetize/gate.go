package monetize

// Follower floor for the monetization tier. A hard threshold, not a weighted
// input.
var EligibilityFollowerFloor int64 = 100_000

// Minimum total score for the monetization tier.
var EligibilityScoreFloor = 50.0

// Eligible is the score-based tier gate. It is distinct from the sanction-side
// hard block on Account.MonetizationEligible; callers must check both before
// allowing monetization actions.
func Eligible(followerCount int64, verified bool, hasSanctions bool, total float64) bool {
	return followerCount >= EligibilityFollowerFloor &&
		verified &&
		!hasSanctions &&
		total >= EligibilityScoreFloor
}

// RefreshEligibility re-derives and stores the profile's tier eligibility.
func (p *Profile) RefreshEligibility(followerCount int64) bool {
	p.IsEligible = Eligible(followerCount, p.IsVerified, p.HasSanctions, p.Score.Total)
	return p.IsEligible
}
