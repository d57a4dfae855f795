package engine

import (
	"context"
	"errors"
	"time"

	"github.com/flocksocial/integrity/account"
	"github.com/flocksocial/integrity/accountstore"
	"github.com/flocksocial/integrity/countstore"
	"github.com/flocksocial/integrity/sanction"
)

// Number of automatic severe sanctions the engine may land per day, for all
// accounts combined (circuit breaker). Past the quota, severe evaluations are
// downgraded to moderate. Manual sanctions bypass the breaker.
var QuotaSevereSanctionDay = 50

// ApplySanctions re-derives the sanction level from the account's current
// anomaly flags. Zero flags is an explicit recovery path that resets reach and
// monetization state. Returns (nil, nil) when the account does not exist.
func (eng *Engine) ApplySanctions(ctx context.Context, accountID string) (*SanctionResult, error) {
	start := eng.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("sanction").Observe(time.Since(start).Seconds())
	}()

	var res *SanctionResult
	var badgeRemoval bool
	_, err := eng.updateAccount(ctx, accountID, func(acct *account.Account) error {
		now := eng.Now()
		level, flagged := sanction.LevelForFlagCount(len(acct.AnomalyFlags))
		if !flagged {
			sres := sanction.Recover(acct, now)
			res = &SanctionResult{
				AccountID:            accountID,
				Cleared:              sres.Cleared,
				ReachPenalty:         sres.ReachPenalty,
				MonetizationEligible: sres.MonetizationEligible,
				ActiveSanctions:      sres.ActiveSanctions,
			}
			badgeRemoval = false
			return nil
		}

		downgraded := false
		if level == account.LevelSevere && eng.severeQuotaExceeded(ctx) {
			eng.logger().Warn("CIRCUIT BREAKER: severe sanctions", "account", accountID)
			severeDowngradeCount.Inc()
			level = account.LevelModerate
			downgraded = true
		}

		sres := sanction.ApplyLevel(acct, level, sanction.ReasonForFlags(acct.AnomalyFlags), now)
		badgeRemoval = sres.BadgeRemovalRequired
		res = &SanctionResult{
			AccountID:            accountID,
			Level:                sres.Level,
			Downgraded:           downgraded,
			ReachPenalty:         sres.ReachPenalty,
			MonetizationEligible: sres.MonetizationEligible,
			ActiveSanctions:      sres.ActiveSanctions,
		}
		return nil
	})
	if errors.Is(err, accountstore.ErrNotFound) {
		eng.logger().Debug("sanction evaluation for unknown account", "account", accountID)
		return nil, nil
	}
	if err != nil {
		eventErrorCount.WithLabelValues("sanction").Inc()
		return nil, err
	}

	eng.purgeEligibilityCache(ctx, accountID)
	if res.Cleared {
		sanctionClearedCount.Inc()
		eng.logger().Info("sanctions cleared", "account", accountID)
	}
	if res.Level != "" {
		sanctionActionCount.WithLabelValues(string(res.Level)).Inc()
		eng.incrementCounter(ctx, "sanction", string(res.Level))
		if res.Level == account.LevelSevere {
			eng.incrementCounter(ctx, "quota", "severe")
		}
		eng.logger().Info("sanction applied",
			"account", accountID,
			"level", res.Level,
			"reachPenalty", res.ReachPenalty,
			"monetizationEligible", res.MonetizationEligible,
		)
	}
	if badgeRemoval && eng.Badges != nil {
		if err := eng.Badges.RemoveAutoBadges(ctx, accountID); err != nil {
			// badge removal is best-effort; the sanction record already
			// carries the audit trail
			eng.logger().Error("removing auto badges", "err", err, "account", accountID)
		}
	}
	eventProcessCount.WithLabelValues("sanction").Inc()
	return res, nil
}

// CleanExpiredSanctions drops lapsed sanction records and re-derives the
// aggregate reach penalty and monetization block. Idempotent; the sweep calls
// this for every account with expiring records. Returns (nil, nil) when the
// account does not exist.
func (eng *Engine) CleanExpiredSanctions(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	var res *ReconciliationResult
	_, err := eng.updateAccount(ctx, accountID, func(acct *account.Account) error {
		sres := sanction.CleanExpired(acct, eng.Now())
		res = &ReconciliationResult{
			AccountID:            accountID,
			Cleared:              sres.Cleared,
			ReachPenalty:         sres.ReachPenalty,
			MonetizationEligible: sres.MonetizationEligible,
			ActiveSanctions:      sres.ActiveSanctions,
		}
		return nil
	})
	if errors.Is(err, accountstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	eng.purgeEligibilityCache(ctx, accountID)
	if res.Cleared {
		sanctionClearedCount.Inc()
	}
	return res, nil
}

// LiftSanction is the manual override: removes the record of the given type
// outright and re-derives aggregate state. Returns (nil, nil) when the account
// does not exist.
func (eng *Engine) LiftSanction(ctx context.Context, accountID string, st account.SanctionType) (*ReconciliationResult, error) {
	var res *ReconciliationResult
	_, err := eng.updateAccount(ctx, accountID, func(acct *account.Account) error {
		sres := sanction.Lift(acct, st, eng.Now())
		res = &ReconciliationResult{
			AccountID:            accountID,
			Cleared:              sres.Cleared,
			ReachPenalty:         sres.ReachPenalty,
			MonetizationEligible: sres.MonetizationEligible,
			ActiveSanctions:      sres.ActiveSanctions,
		}
		return nil
	})
	if errors.Is(err, accountstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	eng.purgeEligibilityCache(ctx, accountID)
	eng.logger().Info("sanction lifted", "account", accountID, "type", st)
	return res, nil
}

// ApplySanctionManual lands an administrative sanction outside the flag-driven
// path, using the same penalty table. Returns (nil, nil) when the account does
// not exist.
func (eng *Engine) ApplySanctionManual(ctx context.Context, accountID string, st account.SanctionType, level account.SanctionLevel, durationDays int, reason string) (*ManualSanctionResult, error) {
	var res *ManualSanctionResult
	_, err := eng.updateAccount(ctx, accountID, func(acct *account.Account) error {
		now := eng.Now()
		duration := time.Duration(durationDays) * 24 * time.Hour
		sanction.ApplyManual(acct, st, level, duration, reason, now)
		res = &ManualSanctionResult{
			AccountID: accountID,
			Type:      st,
			Level:     level,
			ExpiresAt: now.Add(duration),
		}
		return nil
	})
	if errors.Is(err, accountstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	eng.purgeEligibilityCache(ctx, accountID)
	eng.incrementCounter(ctx, "sanction", "manual")
	eng.logger().Info("manual sanction applied", "account", accountID, "type", st, "level", level)
	return res, nil
}

func (eng *Engine) severeQuotaExceeded(ctx context.Context) bool {
	if eng.Counters == nil {
		return false
	}
	c, err := eng.Counters.GetCount(ctx, "quota", "severe", countstore.PeriodDay)
	if err != nil {
		eng.logger().Error("reading severe quota counter", "err", err)
		return false
	}
	return c >= QuotaSevereSanctionDay
}
