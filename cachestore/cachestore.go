package cachestore

import (
	"context"
)

// Verdict is a cached boolean decision. Miss is distinct from Denied so
// callers can tell "not cached" apart from "cached as ineligible".
type Verdict int

const (
	VerdictMiss Verdict = iota
	VerdictDenied
	VerdictGranted
)

func verdictOf(granted bool) Verdict {
	if granted {
		return VerdictGranted
	}
	return VerdictDenied
}

// CacheStore holds per-account verdicts (eligibility decisions) under a named
// cache, with a TTL and explicit purge. The engine purges an account's entry
// on any mutation that feeds the decision.
type CacheStore interface {
	GetVerdict(ctx context.Context, name, accountID string) (Verdict, error)
	PutVerdict(ctx context.Context, name, accountID string, granted bool) error
	PurgeAccount(ctx context.Context, name, accountID string) error
}

func cacheKey(name, accountID string) string {
	return name + "/" + accountID
}
