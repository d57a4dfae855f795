package engine

import (
	"context"
	"errors"
	"time"

	"github.com/flocksocial/integrity/accountstore"
	"github.com/flocksocial/integrity/cachestore"
	"github.com/flocksocial/integrity/monetize"
)

// RecalculateScore recomputes the profile's weighted monetization score from
// its current metrics, pulling follower count, verification, and sanction
// state from the account when one exists. The profile is created lazily.
func (eng *Engine) RecalculateScore(ctx context.Context, accountID string) (*ScoreResult, error) {
	start := eng.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("score").Observe(time.Since(start).Seconds())
	}()

	var followers int64
	acct, err := eng.Accounts.GetAccount(ctx, accountID)
	if err != nil && !errors.Is(err, accountstore.ErrNotFound) {
		return nil, err
	}
	if acct != nil {
		followers = acct.FollowerCount
	}

	var res *ScoreResult
	_, err = eng.updateProfile(ctx, accountID, func(p *monetize.Profile) error {
		now := eng.Now()
		if acct != nil {
			p.IsVerified = acct.Verified
			p.HasSanctions = len(acct.ActiveSanctions(now)) > 0
		}
		score := p.Recalculate(now)
		eligible := p.RefreshEligibility(followers)
		res = &ScoreResult{
			AccountID: accountID,
			Score:     score,
			Eligible:  eligible,
		}
		return nil
	})
	if err != nil {
		eventErrorCount.WithLabelValues("score").Inc()
		return nil, err
	}
	eng.purgeEligibilityCache(ctx, accountID)
	eventProcessCount.WithLabelValues("score").Inc()
	eng.logger().Info("score recalculated",
		"account", accountID,
		"total", res.Score.Total,
		"eligible", res.Eligible,
	)
	return res, nil
}

// UpdateMetrics overwrites the profile's engagement metrics; callers follow up
// with RecalculateScore to refresh the stored score.
func (eng *Engine) UpdateMetrics(ctx context.Context, accountID string, m monetize.Metrics) error {
	_, err := eng.updateProfile(ctx, accountID, func(p *monetize.Profile) error {
		p.Metrics = m
		return nil
	})
	if err != nil {
		return err
	}
	eng.purgeEligibilityCache(ctx, accountID)
	return nil
}

// CheckEligibility evaluates the score-based tier gate, consulting the cached
// verdict first. This is independent of the sanction-side hard block on
// Account.MonetizationEligible; callers gating monetization actions must check
// both.
func (eng *Engine) CheckEligibility(ctx context.Context, accountID string) (bool, error) {
	if eng.Cache != nil {
		if v, err := eng.Cache.GetVerdict(ctx, eligibilityCacheName, accountID); err == nil && v != cachestore.VerdictMiss {
			return v == cachestore.VerdictGranted, nil
		}
	}

	p, err := eng.Profiles.GetOrCreateProfile(ctx, accountID)
	if err != nil {
		return false, err
	}

	// the stored score is only refreshed by explicit recalculation; the gate
	// inputs from the account side are read fresh
	var followers int64
	verified := p.IsVerified
	hasSanctions := p.HasSanctions
	acct, err := eng.Accounts.GetAccount(ctx, accountID)
	if err != nil && !errors.Is(err, accountstore.ErrNotFound) {
		return false, err
	}
	if acct != nil {
		followers = acct.FollowerCount
		verified = acct.Verified
		hasSanctions = len(acct.ActiveSanctions(eng.Now())) > 0
	}

	eligible := monetize.Eligible(followers, verified, hasSanctions, p.Score.Total)

	if eng.Cache != nil {
		if err := eng.Cache.PutVerdict(ctx, eligibilityCacheName, accountID, eligible); err != nil {
			eng.logger().Error("caching eligibility", "err", err, "account", accountID)
		}
	}
	return eligible, nil
}

// RecordEarning credits the profile ledger.
func (eng *Engine) RecordEarning(ctx context.Context, accountID string, amount int64, note string) (int64, error) {
	p, err := eng.updateProfile(ctx, accountID, func(p *monetize.Profile) error {
		return p.AddEarning(amount, note, eng.Now())
	})
	if err != nil {
		return 0, err
	}
	return p.Balance, nil
}

// Withdraw debits the profile ledger, all or nothing, and returns the new
// balance. Guard failures (minimum amount, insufficient balance) surface as
// the monetize package's sentinel errors.
func (eng *Engine) Withdraw(ctx context.Context, accountID string, amount int64) (int64, error) {
	p, err := eng.updateProfile(ctx, accountID, func(p *monetize.Profile) error {
		return p.Withdraw(amount, eng.Now())
	})
	if err != nil {
		switch {
		case errors.Is(err, monetize.ErrBelowMinimumWithdrawal):
			withdrawalCount.WithLabelValues("below_minimum").Inc()
		case errors.Is(err, monetize.ErrInsufficientBalance):
			withdrawalCount.WithLabelValues("insufficient").Inc()
		default:
			withdrawalCount.WithLabelValues("error").Inc()
		}
		return 0, err
	}
	withdrawalCount.WithLabelValues("ok").Inc()
	eng.logger().Info("withdrawal processed", "account", accountID, "amount", amount, "balance", p.Balance)
	return p.Balance, nil
}
