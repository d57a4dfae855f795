// Runtime for the trust-and-integrity pipeline: anomaly detection,
// classification, the sanction state machine, and monetization scoring.
//
// Operations against missing accounts are advisory: they return a nil result
// rather than an error, so detection hooks never break the write path that
// triggered them (eg, post creation).
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flocksocial/integrity/account"
	"github.com/flocksocial/integrity/accountstore"
	"github.com/flocksocial/integrity/cachestore"
	"github.com/flocksocial/integrity/countstore"
	"github.com/flocksocial/integrity/detector"
	"github.com/flocksocial/integrity/flagstore"
	"github.com/flocksocial/integrity/monetize"
)

type Engine struct {
	Logger   *slog.Logger
	Rules    detector.RuleSet
	Accounts accountstore.AccountStore
	Profiles monetize.ProfileStore
	Counters countstore.CountStore
	Flags    flagstore.FlagStore
	Cache    cachestore.CacheStore
	// optional collaborator; severe sanctions trigger badge removal when set
	Badges BadgeRemover
	Clock  Clock
}

func (eng *Engine) logger() *slog.Logger {
	if eng.Logger == nil {
		return slog.Default()
	}
	return eng.Logger
}

func (eng *Engine) Now() time.Time {
	if eng.Clock == nil {
		return time.Now()
	}
	return eng.Clock.Now()
}

// UpsertAccount registers an account with the integrity system, or refreshes
// its platform-side fields. Every other trigger is advisory and skips unknown
// accounts, so ingestion calls this first.
func (eng *Engine) UpsertAccount(ctx context.Context, accountID string, followers int64, verified bool) (*account.Account, error) {
	for i := 0; i < MaxSaveAttempts; i++ {
		acct, err := eng.Accounts.GetAccount(ctx, accountID)
		if errors.Is(err, accountstore.ErrNotFound) {
			acct = account.NewAccount(accountID)
		} else if err != nil {
			return nil, err
		}
		acct.FollowerCount = followers
		acct.Verified = verified
		err = eng.Accounts.PutAccount(ctx, acct)
		if err == nil {
			// follower count and verification feed the eligibility gate
			eng.purgeEligibilityCache(ctx, accountID)
			return acct, nil
		}
		if !errors.Is(err, accountstore.ErrConcurrentUpdate) {
			return nil, err
		}
		concurrentRetryCount.Inc()
	}
	return nil, fmt.Errorf("account %s: %w", accountID, accountstore.ErrConcurrentUpdate)
}

// GetAccount loads the account's current integrity state. Returns (nil, nil)
// when the account does not exist.
func (eng *Engine) GetAccount(ctx context.Context, accountID string) (*account.Account, error) {
	acct, err := eng.Accounts.GetAccount(ctx, accountID)
	if errors.Is(err, accountstore.ErrNotFound) {
		return nil, nil
	}
	return acct, err
}

// ProcessPostEvent is the "new post" trigger: records the post on the account
// and runs the full detection and sanction pipeline.
func (eng *Engine) ProcessPostEvent(ctx context.Context, accountID string, postedAt time.Time) error {
	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			eng.logger().Error("integrity event execution exception", "err", r, "account", accountID, "type", "post")
		}
	}()
	start := eng.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("post").Observe(time.Since(start).Seconds())
	}()

	_, err := eng.updateAccount(ctx, accountID, func(acct *account.Account) error {
		acct.RecordPost(postedAt)
		return nil
	})
	if errors.Is(err, accountstore.ErrNotFound) {
		eng.logger().Debug("post event for unknown account", "account", accountID)
		return nil
	}
	if err != nil {
		eventErrorCount.WithLabelValues("post").Inc()
		return err
	}
	eng.incrementCounter(ctx, "event", "post")
	eventProcessCount.WithLabelValues("post").Inc()

	if _, err := eng.RunAnomalyDetection(ctx, accountID); err != nil {
		return err
	}
	_, err = eng.ApplySanctions(ctx, accountID)
	return err
}

// RecordEngagement folds engagement deltas into the account counters. Advisory
// like the other triggers.
func (eng *Engine) RecordEngagement(ctx context.Context, accountID string, likes, comments int64) error {
	_, err := eng.updateAccount(ctx, accountID, func(acct *account.Account) error {
		acct.RecordEngagement(likes, comments)
		return nil
	})
	if errors.Is(err, accountstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	eng.incrementCounter(ctx, "event", "engagement")
	return nil
}

// RecordFollowerSample appends a follower-count observation to the growth
// series.
func (eng *Engine) RecordFollowerSample(ctx context.Context, accountID string, followers int64, at time.Time) error {
	_, err := eng.updateAccount(ctx, accountID, func(acct *account.Account) error {
		acct.AppendGrowthSample(at, followers)
		return nil
	})
	if errors.Is(err, accountstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	eng.purgeEligibilityCache(ctx, accountID)
	return nil
}

// RunAnomalyDetection executes all detection rules against the account and
// replaces its derived anomaly state. Returns (nil, nil) when the account does
// not exist.
func (eng *Engine) RunAnomalyDetection(ctx context.Context, accountID string) (*DetectionResult, error) {
	defer func() {
		if r := recover(); r != nil {
			eng.logger().Error("integrity event execution exception", "err", r, "account", accountID, "type", "detection")
		}
	}()
	start := eng.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("detection").Observe(time.Since(start).Seconds())
	}()

	var res *DetectionResult
	_, err := eng.updateAccount(ctx, accountID, func(acct *account.Account) error {
		now := eng.Now()
		c := detector.NewContext(acct, now, eng.logger())
		if err := eng.Rules.CallAccountRules(c); err != nil {
			return err
		}
		flags := c.Flags()
		pattern := detector.Classify(flags)
		acct.SetAnomalyState(flags, pattern, now)
		res = &DetectionResult{
			AccountID:          accountID,
			Flags:              flags,
			GrowthPattern:      pattern,
			SuspiciousActivity: pattern != account.PatternNormal,
			CheckedAt:          now,
		}
		return nil
	})
	if errors.Is(err, accountstore.ErrNotFound) {
		eng.logger().Debug("detection requested for unknown account", "account", accountID)
		return nil, nil
	}
	if err != nil {
		eventErrorCount.WithLabelValues("detection").Inc()
		return nil, err
	}

	eng.publishFlags(ctx, accountID, res.Flags)
	for _, f := range res.Flags {
		detectionFlagCount.WithLabelValues(string(f)).Inc()
	}
	if len(res.Flags) > 0 {
		// distinct flagged accounts per period, for ops dashboards
		eng.incrementDistinctCounter(ctx, "flagged", "accounts", accountID)
	}
	eng.incrementCounter(ctx, "detection", "run")
	eventProcessCount.WithLabelValues("detection").Inc()

	eng.logger().Info("detection complete",
		"account", accountID,
		"flags", len(res.Flags),
		"pattern", res.GrowthPattern,
	)
	return res, nil
}
