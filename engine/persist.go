package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/flocksocial/integrity/account"
	"github.com/flocksocial/integrity/accountstore"
	"github.com/flocksocial/integrity/monetize"
)

// Max read-modify-write attempts before giving up on a contended account or
// profile.
var MaxSaveAttempts = 5

// updateAccount runs fn inside an optimistic-concurrency retry loop. fn must
// be safe to re-run from a fresh read; on a version conflict the whole
// read-modify-write repeats.
func (eng *Engine) updateAccount(ctx context.Context, id string, fn func(acct *account.Account) error) (*account.Account, error) {
	for i := 0; i < MaxSaveAttempts; i++ {
		acct, err := eng.Accounts.GetAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(acct); err != nil {
			return nil, err
		}
		err = eng.Accounts.PutAccount(ctx, acct)
		if err == nil {
			return acct, nil
		}
		if !errors.Is(err, accountstore.ErrConcurrentUpdate) {
			return nil, err
		}
		concurrentRetryCount.Inc()
	}
	return nil, fmt.Errorf("account %s: %w", id, accountstore.ErrConcurrentUpdate)
}

// updateProfile is the profile-side twin of updateAccount. The profile is
// created lazily on first access.
func (eng *Engine) updateProfile(ctx context.Context, accountID string, fn func(p *monetize.Profile) error) (*monetize.Profile, error) {
	for i := 0; i < MaxSaveAttempts; i++ {
		p, err := eng.Profiles.GetOrCreateProfile(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if err := fn(p); err != nil {
			return nil, err
		}
		err = eng.Profiles.PutProfile(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, monetize.ErrConcurrentUpdate) {
			return nil, err
		}
		concurrentRetryCount.Inc()
	}
	return nil, fmt.Errorf("profile %s: %w", accountID, monetize.ErrConcurrentUpdate)
}

// publishFlags replaces the account's flag set in the flagstore so consumers
// see exactly the current run's output.
func (eng *Engine) publishFlags(ctx context.Context, accountID string, flags []account.AnomalyFlag) {
	if eng.Flags == nil {
		return
	}
	vals := make([]string, len(flags))
	for i, f := range flags {
		vals[i] = string(f)
	}
	if err := eng.Flags.Set(ctx, accountID, vals); err != nil {
		eng.logger().Error("publishing flags", "err", err, "account", accountID)
	}
}

const eligibilityCacheName = "eligibility"

// purgeEligibilityCache drops the cached eligibility verdict after any state
// change feeding the gate (sanctions, score, account fields).
func (eng *Engine) purgeEligibilityCache(ctx context.Context, accountID string) {
	if eng.Cache == nil {
		return
	}
	if err := eng.Cache.PurgeAccount(ctx, eligibilityCacheName, accountID); err != nil {
		eng.logger().Error("purging eligibility cache", "err", err, "account", accountID)
	}
}

func (eng *Engine) incrementCounter(ctx context.Context, name, val string) {
	if eng.Counters == nil {
		return
	}
	if err := eng.Counters.Increment(ctx, name, val); err != nil {
		eng.logger().Error("incrementing counter", "err", err, "name", name, "val", val)
	}
}

func (eng *Engine) incrementDistinctCounter(ctx context.Context, name, bucket, val string) {
	if eng.Counters == nil {
		return
	}
	if err := eng.Counters.IncrementDistinct(ctx, name, bucket, val); err != nil {
		eng.logger().Error("incrementing distinct counter", "err", err, "name", name, "bucket", bucket)
	}
}
