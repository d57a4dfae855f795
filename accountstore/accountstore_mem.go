package accountstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flocksocial/integrity/account"
)

type MemAccountStore struct {
	lk   sync.Mutex
	data map[string]*account.Account
}

func NewMemAccountStore() *MemAccountStore {
	return &MemAccountStore{
		data: make(map[string]*account.Account),
	}
}

func (s *MemAccountStore) GetAccount(ctx context.Context, id string) (*account.Account, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	acct, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAccount(acct), nil
}

func (s *MemAccountStore) PutAccount(ctx context.Context, acct *account.Account) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	existing, ok := s.data[acct.ID]
	if ok && existing.Version != acct.Version {
		return ErrConcurrentUpdate
	}
	stored := cloneAccount(acct)
	stored.Version++
	s.data[acct.ID] = stored
	acct.Version = stored.Version
	return nil
}

func (s *MemAccountStore) ListExpiringSanctions(ctx context.Context, before time.Time) ([]string, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	var out []string
	for id, acct := range s.data {
		if expiry, ok := acct.EarliestExpiry(); ok && expiry.Before(before) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func cloneAccount(a *account.Account) *account.Account {
	out := *a
	if a.FollowerGrowth != nil {
		out.FollowerGrowth = make([]account.GrowthSample, len(a.FollowerGrowth))
		copy(out.FollowerGrowth, a.FollowerGrowth)
	}
	if a.LastPostDates != nil {
		out.LastPostDates = make([]time.Time, len(a.LastPostDates))
		copy(out.LastPostDates, a.LastPostDates)
	}
	if a.AnomalyFlags != nil {
		out.AnomalyFlags = make([]account.AnomalyFlag, len(a.AnomalyFlags))
		copy(out.AnomalyFlags, a.AnomalyFlags)
	}
	if a.Sanctions != nil {
		out.Sanctions = make(map[account.SanctionType]account.SanctionRecord, len(a.Sanctions))
		for k, v := range a.Sanctions {
			out.Sanctions[k] = v
		}
	}
	if a.FirstPostAt != nil {
		t := *a.FirstPostAt
		out.FirstPostAt = &t
	}
	if a.LastAnomalyCheck != nil {
		t := *a.LastAnomalyCheck
		out.LastAnomalyCheck = &t
	}
	return &out
}
