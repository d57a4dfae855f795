// Published per-account anomaly flag sets.
//
// The engine replaces an account's flag set after every detection run (flags
// are not cumulative across runs), so downstream consumers like feed ranking
// can read current risk signals without loading full account rows.
package flagstore

import (
	"context"
)

type FlagStore interface {
	Get(ctx context.Context, key string) ([]string, error)
	Add(ctx context.Context, key string, flags []string) error
	Remove(ctx context.Context, key string, flags []string) error
	// Set replaces the whole flag set for a key. An empty slice clears it.
	Set(ctx context.Context, key string, flags []string) error
}
