// Graduated sanction state machine.
//
// Sanction level is a function of the current anomaly flag count alone, never
// of prior sanction history, so re-running the machine is idempotent: an
// existing record of the same type is refreshed in place rather than
// duplicated. Aggregate account state (reach penalty, monetization
// eligibility) is always re-derived from the set of active records.
package sanction

import (
	"fmt"
	"strings"
	"time"

	"github.com/flocksocial/integrity/account"
)

var (
	WarningDuration  = 7 * 24 * time.Hour
	ModerateDuration = 14 * 24 * time.Hour
	SevereDuration   = 30 * 24 * time.Hour

	PenaltyModerate = 0.7
	PenaltySevere   = 0.4
)

// LevelForFlagCount maps the number of active anomaly flags to a sanction
// level. Zero flags means no sanction (second return false).
func LevelForFlagCount(n int) (account.SanctionLevel, bool) {
	switch {
	case n <= 0:
		return "", false
	case n == 1:
		return account.LevelWarning, true
	case n == 2:
		return account.LevelModerate, true
	default:
		return account.LevelSevere, true
	}
}

// Penalty returns the reach multiplier for a level. Warnings carry no reach
// effect.
func Penalty(level account.SanctionLevel) float64 {
	switch level {
	case account.LevelModerate:
		return PenaltyModerate
	case account.LevelSevere:
		return PenaltySevere
	default:
		return 1.0
	}
}

func Duration(level account.SanctionLevel) time.Duration {
	switch level {
	case account.LevelModerate:
		return ModerateDuration
	case account.LevelSevere:
		return SevereDuration
	default:
		return WarningDuration
	}
}

// ReasonForFlags renders a human-readable sanction reason from the flag set.
func ReasonForFlags(flags []account.AnomalyFlag) string {
	if len(flags) == 0 {
		return "no anomaly flags"
	}
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f)
	}
	return fmt.Sprintf("anomalous activity detected: %s", strings.Join(parts, ", "))
}

// Result of a single state-machine operation over one account.
type Result struct {
	// Level applied by this operation; empty when the operation cleared or
	// only re-derived state.
	Level account.SanctionLevel
	// Cleared is set when the operation fully reset sanction state.
	Cleared bool
	// BadgeRemovalRequired signals the caller to invoke the badge subsystem.
	BadgeRemovalRequired bool

	ReachPenalty         float64
	MonetizationEligible bool
	ActiveSanctions      int
}

func resultFrom(acct *account.Account, now time.Time) *Result {
	return &Result{
		ReachPenalty:         acct.ReachPenalty,
		MonetizationEligible: acct.MonetizationEligible,
		ActiveSanctions:      len(acct.ActiveSanctions(now)),
	}
}

// Recover resets an account that no longer carries anomaly flags. This is an
// explicit recovery path, not a no-op: any lingering reach reduction is undone
// and all sanction records are dropped.
func Recover(acct *account.Account, now time.Time) *Result {
	cleared := len(acct.Sanctions) > 0 || acct.ReducedReach || acct.ReachPenalty < 1.0 || !acct.MonetizationEligible
	reset(acct)
	res := resultFrom(acct, now)
	res.Cleared = cleared
	return res
}

// ApplyLevel upserts the flag-driven sanction records for the given level. The
// reach_reduction record is refreshed in place when present; on a severe level
// a monetization_block is upserted the same way and a badge_removal audit
// record is written once.
//
// On a downgrade (a severe run followed by a two-flag run) still-active
// monetization_block and badge_removal records are kept and ReachPenalty
// follows the level table rather than the minimum over active records, so a
// two-flag evaluation always lands the moderate 0.7 penalty. The min-over-
// active aggregate is re-derived by CleanExpired and Lift.
func ApplyLevel(acct *account.Account, level account.SanctionLevel, reason string, now time.Time) *Result {
	if acct.Sanctions == nil {
		acct.Sanctions = make(map[account.SanctionType]account.SanctionRecord)
	}

	acct.ReducedReach = level != account.LevelWarning
	acct.ReachPenalty = Penalty(level)
	upsert(acct, account.SanctionReachReduction, level, reason, now)

	badgeRemoval := false
	if level == account.LevelSevere {
		upsert(acct, account.SanctionMonetizationBlock, level, reason, now)
		if _, ok := acct.Sanctions[account.SanctionBadgeRemoval]; !ok {
			// audit record; written once, never refreshed
			expires := now.Add(SevereDuration)
			acct.Sanctions[account.SanctionBadgeRemoval] = account.SanctionRecord{
				Type:      account.SanctionBadgeRemoval,
				Level:     level,
				Reason:    reason,
				AppliedAt: now,
				ExpiresAt: &expires,
			}
		}
		badgeRemoval = true
	}

	acct.MonetizationEligible = !acct.HasActiveSanction(account.SanctionMonetizationBlock, now)

	res := resultFrom(acct, now)
	res.Level = level
	res.BadgeRemovalRequired = badgeRemoval
	return res
}

// CleanExpired drops lapsed records and re-derives aggregate state from
// whatever remains. Idempotent; safe to call from the sweep or standalone.
func CleanExpired(acct *account.Account, now time.Time) *Result {
	for st, rec := range acct.Sanctions {
		if !rec.Active(now) {
			delete(acct.Sanctions, st)
		}
	}
	rederive(acct, now)
	res := resultFrom(acct, now)
	res.Cleared = len(acct.Sanctions) == 0
	return res
}

// Lift removes the record of the given type regardless of expiry (manual
// override), then re-derives aggregate state like CleanExpired.
func Lift(acct *account.Account, st account.SanctionType, now time.Time) *Result {
	delete(acct.Sanctions, st)
	rederive(acct, now)
	res := resultFrom(acct, now)
	res.Cleared = len(acct.Sanctions) == 0
	return res
}

// ApplyManual upserts a sanction of an arbitrary type and level outside the
// flag-driven path, using the same penalty table, then re-derives aggregates.
func ApplyManual(acct *account.Account, st account.SanctionType, level account.SanctionLevel, duration time.Duration, reason string, now time.Time) *Result {
	if acct.Sanctions == nil {
		acct.Sanctions = make(map[account.SanctionType]account.SanctionRecord)
	}
	expires := now.Add(duration)
	acct.Sanctions[st] = account.SanctionRecord{
		Type:      st,
		Level:     level,
		Reason:    reason,
		AppliedAt: now,
		ExpiresAt: &expires,
	}
	rederive(acct, now)
	res := resultFrom(acct, now)
	res.Level = level
	return res
}

func upsert(acct *account.Account, st account.SanctionType, level account.SanctionLevel, reason string, now time.Time) {
	expires := now.Add(Duration(level))
	if rec, ok := acct.Sanctions[st]; ok {
		// refresh, not append
		rec.Level = level
		rec.ExpiresAt = &expires
		acct.Sanctions[st] = rec
		return
	}
	acct.Sanctions[st] = account.SanctionRecord{
		Type:      st,
		Level:     level,
		Reason:    reason,
		AppliedAt: now,
		ExpiresAt: &expires,
	}
}

// rederive recomputes aggregate reach and monetization state from active
// records: the reach penalty is the minimum (most severe) among active levels,
// monetization is blocked iff an active monetization_block exists.
func rederive(acct *account.Account, now time.Time) {
	active := acct.ActiveSanctions(now)
	if len(active) == 0 {
		reset(acct)
		return
	}
	penalty := 1.0
	blocked := false
	for _, rec := range active {
		if p := Penalty(rec.Level); p < penalty {
			penalty = p
		}
		if rec.Type == account.SanctionMonetizationBlock {
			blocked = true
		}
	}
	acct.ReachPenalty = penalty
	acct.ReducedReach = penalty < 1.0
	acct.MonetizationEligible = !blocked
}

func reset(acct *account.Account) {
	acct.ReducedReach = false
	acct.ReachPenalty = 1.0
	acct.MonetizationEligible = true
	acct.Sanctions = make(map[account.SanctionType]account.SanctionRecord)
}
