package account

import (
	"time"
)

// Risk signal produced by the anomaly detector. Closed set; the classifier and
// sanction table switch exhaustively over these.
type AnomalyFlag string

const (
	FlagSpikeFollowers         AnomalyFlag = "spike_followers"
	FlagInconsistentEngagement AnomalyFlag = "inconsistent_engagement"
	FlagInactiveWithFollowers  AnomalyFlag = "inactive_with_followers"
	FlagFakeInteractionNetwork AnomalyFlag = "fake_interaction_network"
	FlagRapidFollowUnfollow    AnomalyFlag = "rapid_follow_unfollow"
)

// Coarse trust classification derived from flag count.
type GrowthPattern string

const (
	PatternNormal     GrowthPattern = "normal"
	PatternAbnormal   GrowthPattern = "abnormal"
	PatternSuspicious GrowthPattern = "suspicious"
)

type SanctionType string

const (
	SanctionReachReduction    SanctionType = "reach_reduction"
	SanctionMonetizationBlock SanctionType = "monetization_block"
	SanctionBadgeRemoval      SanctionType = "badge_removal"
)

type SanctionLevel string

const (
	LevelWarning  SanctionLevel = "warning"
	LevelModerate SanctionLevel = "moderate"
	LevelSevere   SanctionLevel = "severe"
)

// Creator phase buckets, used as a rule modifier (not a classification output).
type CreatorPhase string

const (
	PhaseNew         CreatorPhase = "new"
	PhaseEstablished CreatorPhase = "established"
	PhaseMajor       CreatorPhase = "major"
)

func PhaseForFollowers(followers int64) CreatorPhase {
	switch {
	case followers < 1_000:
		return PhaseNew
	case followers < 100_000:
		return PhaseEstablished
	default:
		return PhaseMajor
	}
}

// Single point of the follower time series. Append-only; insertion order is
// chronological order.
type GrowthSample struct {
	Time      time.Time `json:"time"`
	Followers int64     `json:"followers"`
}

// A typed, leveled, time-bounded penalty attached to an account. At most one
// record per type; refreshing a sanction updates the record in place.
type SanctionRecord struct {
	Type      SanctionType  `json:"type"`
	Level     SanctionLevel `json:"level"`
	Reason    string        `json:"reason"`
	AppliedAt time.Time     `json:"appliedAt"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
}

// Whether the record is in force at the given instant. Records with no expiry
// never lapse on their own.
func (r *SanctionRecord) Active(now time.Time) bool {
	return r.ExpiresAt == nil || r.ExpiresAt.After(now)
}

// Most recent post dates kept per account (FIFO eviction).
const MaxLastPostDates = 30

// The slice of account state the integrity engine reads and writes. The
// surrounding user-management service owns the rest of the account row.
type Account struct {
	ID            string `json:"id"`
	FollowerCount int64  `json:"followerCount"`
	Verified      bool   `json:"verified"`

	FollowerGrowth []GrowthSample `json:"followerGrowth"`
	TotalPosts     int64          `json:"totalPosts"`
	TotalLikes     int64          `json:"totalLikes"`
	TotalComments  int64          `json:"totalComments"`
	FirstPostAt    *time.Time     `json:"firstPostAt,omitempty"`
	LastPostDates  []time.Time    `json:"lastPostDates,omitempty"`

	// derived on every detection run
	GrowthPattern      GrowthPattern `json:"growthPattern"`
	AnomalyFlags       []AnomalyFlag `json:"anomalyFlags,omitempty"`
	SuspiciousActivity bool          `json:"suspiciousActivity"`
	LastAnomalyCheck   *time.Time    `json:"lastAnomalyCheck,omitempty"`

	// sanction state; map form makes "at most one active record per type"
	// structural
	Sanctions            map[SanctionType]SanctionRecord `json:"sanctions,omitempty"`
	ReducedReach         bool                            `json:"reducedReach"`
	ReachPenalty         float64                         `json:"reachPenalty"`
	MonetizationEligible bool                            `json:"monetizationEligible"`

	// optimistic concurrency token, managed by the account store
	Version int64 `json:"version"`
}

func NewAccount(id string) *Account {
	return &Account{
		ID:                   id,
		GrowthPattern:        PatternNormal,
		ReachPenalty:         1.0,
		MonetizationEligible: true,
		Sanctions:            make(map[SanctionType]SanctionRecord),
	}
}

func (a *Account) Phase() CreatorPhase {
	return PhaseForFollowers(a.FollowerCount)
}

// Appends a follower sample and updates the headline count. Samples are never
// rewritten or reordered.
func (a *Account) AppendGrowthSample(at time.Time, followers int64) {
	a.FollowerGrowth = append(a.FollowerGrowth, GrowthSample{Time: at, Followers: followers})
	a.FollowerCount = followers
}

// Records a post event: bumps the counter, pins firstPostAt once, and pushes
// the date onto the bounded recent-post list.
func (a *Account) RecordPost(at time.Time) {
	a.TotalPosts++
	if a.FirstPostAt == nil {
		t := at
		a.FirstPostAt = &t
	}
	a.LastPostDates = append(a.LastPostDates, at)
	if len(a.LastPostDates) > MaxLastPostDates {
		a.LastPostDates = a.LastPostDates[len(a.LastPostDates)-MaxLastPostDates:]
	}
}

func (a *Account) RecordEngagement(likes, comments int64) {
	a.TotalLikes += likes
	a.TotalComments += comments
}

// Replaces the derived anomaly state. Flags are replaced, not merged, on every
// detection run.
func (a *Account) SetAnomalyState(flags []AnomalyFlag, pattern GrowthPattern, checkedAt time.Time) {
	a.AnomalyFlags = flags
	a.GrowthPattern = pattern
	a.SuspiciousActivity = pattern != PatternNormal
	t := checkedAt
	a.LastAnomalyCheck = &t
}

// Sanction returns the record for the given type, if present.
func (a *Account) Sanction(st SanctionType) (SanctionRecord, bool) {
	if a.Sanctions == nil {
		return SanctionRecord{}, false
	}
	rec, ok := a.Sanctions[st]
	return rec, ok
}

// ActiveSanctions returns all records still in force at the given instant.
func (a *Account) ActiveSanctions(now time.Time) []SanctionRecord {
	var out []SanctionRecord
	for _, rec := range a.Sanctions {
		if rec.Active(now) {
			out = append(out, rec)
		}
	}
	return out
}

func (a *Account) HasActiveSanction(st SanctionType, now time.Time) bool {
	rec, ok := a.Sanction(st)
	return ok && rec.Active(now)
}

// EarliestExpiry returns the soonest expiry among sanctions, for sweep
// scheduling. Second return is false if no sanction carries an expiry.
func (a *Account) EarliestExpiry() (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, rec := range a.Sanctions {
		if rec.ExpiresAt == nil {
			continue
		}
		if !found || rec.ExpiresAt.Before(earliest) {
			earliest = *rec.ExpiresAt
			found = true
		}
	}
	return earliest, found
}
