package authc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

type (
	// RealmAuthenticator runs the registered realms in order and
	// combines their answers with a first-success strategy: the
	// first realm to return an account wins, a definitive credential
	// failure outweighs any number of not-found answers, and realm
	// faults are absorbed rather than allowed to abort the attempt
	RealmAuthenticator struct {
		realms []Realm
		logger *slog.Logger
		stats  stats
	}
)

var _ Authenticator = (*RealmAuthenticator)(nil)

func NewAuthenticator(realm Realm, realms ...Realm) *RealmAuthenticator {
	return &RealmAuthenticator{
		realms: append([]Realm{realm}, realms...),
		logger: slog.Default(),
	}
}

// SetLogger replaces the logger used for absorbed realm faults
func (a *RealmAuthenticator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		a.logger = logger
	}
}

func (a *RealmAuthenticator) Authenticate(ctx context.Context, token Token) (*Account, error) {
	if token == nil || len(token.Principal()) == 0 {
		return nil, ErrInvalidToken
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// the first definitive rejection; it beats not-found because it
	// proves the account exists but the secret was wrong
	var rejection error

	for _, r := range a.realms {
		if !r.Supports(token) {
			continue
		}

		account, err := r.Authenticate(ctx, token)
		if err == nil {
			a.stats.successes.Add(1)
			return account, nil
		}

		switch {
		case errors.Is(err, ErrCredentialMismatch),
			errors.Is(err, ErrAccountLocked),
			errors.Is(err, ErrAccountDisabled):
			if rejection == nil {
				rejection = err
			}
		case errors.Is(err, ErrAccountNotFound):
			// this realm has no such account, ask the next one
		default:
			a.stats.realmFaults.Add(1)
			a.logger.WarnContext(ctx, "realm could not answer",
				slog.String("realm", r.Name()),
				slog.Any("error", err))

			if ctx.Err() != nil {
				a.stats.timeouts.Add(1)
				return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
			}
		}
	}

	if rejection != nil {
		a.stats.mismatches.Add(1)
		return nil, rejection
	}

	a.stats.notFound.Add(1)
	return nil, ErrAccountNotFound
}

// Stats returns a snapshot of authentication outcome counters
func (a *RealmAuthenticator) Stats() Stats {
	return a.stats.snapshot()
}
