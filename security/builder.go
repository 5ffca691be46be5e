package security

import (
	"context"
	"log/slog"

	"github.com/bastion-sec/bastion/authc"
	"github.com/bastion-sec/bastion/authz"
	"github.com/bastion-sec/bastion/cache"
	"github.com/bastion-sec/bastion/session"
)

// Builder assembles a Manager. Realms and the cache store are fixed
// for the manager's lifetime once built
type Builder struct {
	realms      []authc.Realm
	store       cache.Store
	sessionOpts []session.Option
	auth        authc.Authenticator
	authorizer  authz.Authorizer
	concurrency int
	logger      *slog.Logger
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Realms registers the ordered realm list; order determines
// authentication precedence
func (b *Builder) Realms(realm authc.Realm, realms ...authc.Realm) *Builder {
	b.realms = append(append(b.realms, realm), realms...)
	return b
}

// CacheStore supplies the backend that session state lives behind
func (b *Builder) CacheStore(store cache.Store) *Builder {
	b.store = store
	return b
}

// SessionOptions forwards options (timeouts, codec, schema, key
// prefix) to the session manager
func (b *Builder) SessionOptions(opts ...session.Option) *Builder {
	b.sessionOpts = append(b.sessionOpts, opts...)
	return b
}

// Authenticator overrides the default realm-backed authenticator
func (b *Builder) Authenticator(auth authc.Authenticator) *Builder {
	b.auth = auth
	return b
}

// Authorizer overrides the default realm-backed authorizer
func (b *Builder) Authorizer(authorizer authz.Authorizer) *Builder {
	b.authorizer = authorizer
	return b
}

// Concurrency caps how many sessions a principal may hold at once;
// the oldest is evicted to make room. Zero means unlimited
func (b *Builder) Concurrency(concurrency int) *Builder {
	b.concurrency = concurrency
	return b
}

func (b *Builder) Logger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) Build() (*Manager, error) {
	if b.store == nil {
		return nil, ErrConfiguration
	}

	auth := b.auth
	if auth == nil {
		if len(b.realms) == 0 {
			return nil, ErrConfiguration
		}
		ra := authc.NewAuthenticator(b.realms[0], b.realms[1:]...)
		if b.logger != nil {
			ra.SetLogger(b.logger)
		}
		auth = ra
	}

	authorizer := b.authorizer
	if authorizer == nil {
		authorizer = buildAuthorizer(b.realms)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	manager := session.NewManager(b.store, b.sessionOpts...)

	return &Manager{
		authenticator: auth,
		authorizer:    authorizer,
		sessions:      manager,
		registry:      session.NewRegistry(manager),
		concurrency:   b.concurrency,
		logger:        logger,
	}, nil
}

func buildAuthorizer(realms []authc.Realm) authz.Authorizer {
	var authzRealms []authz.Realm
	for _, r := range realms {
		if zr, ok := r.(authz.Realm); ok {
			authzRealms = append(authzRealms, zr)
		}
	}

	if len(authzRealms) == 0 {
		return authz.NewAuthorizer(emptyRealm{})
	}

	return authz.NewAuthorizer(authzRealms[0], authzRealms[1:]...)
}

// emptyRealm knows nobody; with it in place authorization falls back
// to the payload captured on the session at login time
type emptyRealm struct{}

func (emptyRealm) Name() string {
	return "empty"
}

func (emptyRealm) Authorization(context.Context, string) (*authc.Authorization, bool, error) {
	return nil, false, nil
}
