package monetize

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrProfileNotFound  = errors.New("monetization profile not found")
	ErrConcurrentUpdate = errors.New("profile modified concurrently")
)

// Profile persistence. Put uses the profile's Version as an optimistic
// concurrency token: a stale version fails with ErrConcurrentUpdate and the
// caller retries the whole read-modify-write.
type ProfileStore interface {
	GetProfile(ctx context.Context, accountID string) (*Profile, error)
	// GetOrCreateProfile creates the profile lazily on first access.
	GetOrCreateProfile(ctx context.Context, accountID string) (*Profile, error)
	PutProfile(ctx context.Context, p *Profile) error
}

type MemProfileStore struct {
	lk   sync.Mutex
	data map[string]*Profile
}

func NewMemProfileStore() *MemProfileStore {
	return &MemProfileStore{
		data: make(map[string]*Profile),
	}
}

func (s *MemProfileStore) GetProfile(ctx context.Context, accountID string) (*Profile, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	p, ok := s.data[accountID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

func (s *MemProfileStore) GetOrCreateProfile(ctx context.Context, accountID string) (*Profile, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	p, ok := s.data[accountID]
	if !ok {
		p = NewProfile(accountID)
		s.data[accountID] = p
	}
	return cloneProfile(p), nil
}

func (s *MemProfileStore) PutProfile(ctx context.Context, p *Profile) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	existing, ok := s.data[p.AccountID]
	if ok && existing.Version != p.Version {
		return ErrConcurrentUpdate
	}
	stored := cloneProfile(p)
	stored.Version++
	s.data[p.AccountID] = stored
	p.Version = stored.Version
	return nil
}

func cloneProfile(p *Profile) *Profile {
	out := *p
	if p.Transactions != nil {
		out.Transactions = make([]Transaction, len(p.Transactions))
		copy(out.Transactions, p.Transactions)
	}
	return &out
}
