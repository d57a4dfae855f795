// Account persistence for the trust engine.
//
// The engine only reads and writes the integrity-owned slice of account state.
// All writes carry an optimistic concurrency token (the account Version);
// detection triggers, manual overrides, and the reconciliation sweep can race
// on the same account, and the lost write must surface as ErrConcurrentUpdate
// so the caller retries the whole read-modify-write.
package accountstore

import (
	"context"
	"errors"
	"time"

	"github.com/flocksocial/integrity/account"
)

var (
	ErrNotFound         = errors.New("account not found")
	ErrConcurrentUpdate = errors.New("account modified concurrently")
)

type AccountStore interface {
	GetAccount(ctx context.Context, id string) (*account.Account, error)
	PutAccount(ctx context.Context, acct *account.Account) error
	// ListExpiringSanctions returns IDs of accounts holding at least one
	// sanction that expires before the cutoff (including already-lapsed ones),
	// for the reconciliation sweep.
	ListExpiringSanctions(ctx context.Context, before time.Time) ([]string, error)
}
