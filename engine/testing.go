package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flocksocial/integrity/accountstore"
	"github.com/flocksocial/integrity/cachestore"
	"github.com/flocksocial/integrity/countstore"
	"github.com/flocksocial/integrity/detector"
	"github.com/flocksocial/integrity/flagstore"
	"github.com/flocksocial/integrity/monetize"
)

// EngineTestFixture returns a fully in-memory engine with the default rule
// set. Intentionally exported, for use in other packages' tests.
func EngineTestFixture(now time.Time) *Engine {
	return &Engine{
		Logger:   slog.Default(),
		Rules:    detector.DefaultRules(),
		Accounts: accountstore.NewMemAccountStore(),
		Profiles: monetize.NewMemProfileStore(),
		Counters: countstore.NewMemCountStore(),
		Flags:    flagstore.NewMemFlagStore(),
		Cache:    cachestore.NewMemCacheStore(1_000, 30*time.Minute),
		Clock:    FixedClock{T: now},
	}
}

// RecordingBadgeRemover captures badge-removal calls for assertions.
type RecordingBadgeRemover struct {
	lk      sync.Mutex
	Removed []string
}

func (r *RecordingBadgeRemover) RemoveAutoBadges(ctx context.Context, accountID string) error {
	r.lk.Lock()
	defer r.lk.Unlock()
	r.Removed = append(r.Removed, accountID)
	return nil
}
