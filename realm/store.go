package realm

import (
	"context"
	"sync"

	"github.com/bastion-sec/bastion/authc"
)

type (
	// MemoryAccountStore is an in-process AccountStore for tests
	// and small fixed account sets
	MemoryAccountStore struct {
		mu     sync.RWMutex
		lookup map[string]authc.Account
	}
)

var _ authc.AccountStore = (*MemoryAccountStore)(nil)

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		lookup: make(map[string]authc.Account),
	}
}

// Put registers an account, replacing any existing record for the
// same principal
func (s *MemoryAccountStore) Put(account authc.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookup[account.Principal] = account
}

func (s *MemoryAccountStore) Find(ctx context.Context, principal string) (*authc.Account, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.lookup[principal]
	if !ok {
		return nil, false, nil
	}

	cp := account
	return &cp, true, nil
}

func (s *MemoryAccountStore) FindAuthorization(ctx context.Context, principal string) (*authc.Authorization, bool, error) {
	account, found, err := s.Find(ctx, principal)
	if err != nil || !found {
		return nil, false, err
	}

	cp := account.Authorization
	return &cp, true, nil
}
