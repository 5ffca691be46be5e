package authc

import "context"

type (
	// A Token is a consolidation of an account's principal and
	// supporting credentials submitted during an authentication attempt.
	// Tokens are consumed once per attempt and never persisted
	Token interface {
		// Principal being authenticated
		Principal() string
		// Credentials that prove the identity of the Principal
		Credentials() string
	}

	// Authorization is the payload of roles and permission
	// descriptors associated with an account
	Authorization struct {
		Roles       []string `json:"roles,omitempty"`
		Permissions []string `json:"permissions,omitempty"`
	}

	// An Account is the record an AccountStore holds for a principal.
	// The stored credential is opaque here; a CredentialMatcher
	// decides whether a submitted credential verifies against it
	Account struct {
		Principal  string `json:"principal"`
		Credential string `json:"credential"`
		Authorization
		Locked   bool `json:"locked,omitempty"`
		Disabled bool `json:"disabled,omitempty"`
	}

	// An AccountStore is the external source of identity and
	// authorization records. Implementations must be safe to call
	// concurrently
	AccountStore interface {
		// Find returns the account for the given principal,
		// reporting whether one exists
		Find(ctx context.Context, principal string) (*Account, bool, error)
		// FindAuthorization returns the authorization payload for
		// the given principal, independent of authentication
		FindAuthorization(ctx context.Context, principal string) (*Authorization, bool, error)
	}

	// A CredentialMatcher compares a submitted credential against a
	// stored one. Implementations must run in constant time with
	// respect to credential content and return false, never panic,
	// for malformed stored data
	CredentialMatcher interface {
		Match(submitted, stored string) bool
	}

	// A Realm bridges one account source and one credential
	// verification strategy into authentication answers
	Realm interface {
		// Name identifies the realm in logs
		Name() string
		// Supports returns true if the specified Token can be handled by this Realm
		Supports(Token) bool
		// Authenticate resolves the token to an account, or fails
		// with ErrAccountNotFound, ErrCredentialMismatch,
		// ErrAccountLocked, ErrAccountDisabled, or a realm fault
		Authenticate(context.Context, Token) (*Account, error)
	}

	// An Authenticator is responsible for authenticating accounts
	// in an application
	Authenticator interface {
		// Authenticate a user based on the submitted Token
		Authenticate(context.Context, Token) (*Account, error)
	}
)
