// Package realm provides ready-made bridges between account sources,
// credential matchers, and the authentication/authorization contracts.
package realm

import (
	"context"
	"fmt"

	"github.com/bastion-sec/bastion/authc"
	"github.com/bastion-sec/bastion/authz"
)

type (
	// An AccountRealm composes one AccountStore with one
	// CredentialMatcher. It answers both authentication and
	// authorization queries for username/password tokens
	AccountRealm struct {
		name    string
		store   authc.AccountStore
		matcher authc.CredentialMatcher
	}
)

var (
	_ authc.Realm = (*AccountRealm)(nil)
	_ authz.Realm = (*AccountRealm)(nil)
)

func New(name string, store authc.AccountStore, matcher authc.CredentialMatcher) *AccountRealm {
	return &AccountRealm{
		name:    name,
		store:   store,
		matcher: matcher,
	}
}

func (r *AccountRealm) Name() string {
	return r.name
}

func (r *AccountRealm) Supports(token authc.Token) bool {
	_, ok := token.(*authc.UsernamePasswordToken)
	return ok
}

func (r *AccountRealm) Authenticate(ctx context.Context, token authc.Token) (*authc.Account, error) {
	account, found, err := r.store.Find(ctx, token.Principal())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", authc.ErrRealm, r.name, err)
	}

	if !found {
		return nil, authc.ErrAccountNotFound
	}

	if account.Locked {
		return nil, authc.ErrAccountLocked
	}

	if account.Disabled {
		return nil, authc.ErrAccountDisabled
	}

	if !r.matcher.Match(token.Credentials(), account.Credential) {
		return nil, authc.ErrCredentialMismatch
	}

	return account, nil
}

func (r *AccountRealm) Authorization(ctx context.Context, principal string) (*authc.Authorization, bool, error) {
	payload, found, err := r.store.FindAuthorization(ctx, principal)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", authc.ErrRealm, r.name, err)
	}

	return payload, found, nil
}
