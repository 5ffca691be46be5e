package authz

import (
	"context"
	"errors"

	"github.com/bastion-sec/bastion/authc"
)

type (
	// A Role is a named grouping of permissions, matched by name
	Role interface {
		Desc() string
		Implies(Role) bool
	}

	// A Permission is a structured descriptor of a guarded resource
	// and action. Implies is more-general-implies-grant: holding
	// "tournament:*" grants "tournament:approve", never the reverse
	Permission interface {
		Desc() string
		Implies(Permission) bool
	}

	// A Realm answers authorization queries for a principal
	Realm interface {
		Name() string
		// Authorization returns the roles and permissions this
		// realm holds for the principal, reporting whether the
		// principal is known to it
		Authorization(ctx context.Context, principal string) (*authc.Authorization, bool, error)
	}

	// An Authorizer evaluates permission and role predicates
	// against the union of all registered realms' payloads.
	// Unknown principals hold nothing: deny by default
	Authorizer interface {
		IsPermitted(ctx context.Context, principal string, permission Permission) bool
		IsPermittedAny(ctx context.Context, principal string, permissions ...Permission) bool
		IsPermittedAll(ctx context.Context, principal string, permissions ...Permission) bool

		HasRole(ctx context.Context, principal string, role Role) bool
		HasAnyRole(ctx context.Context, principal string, roles ...Role) bool
		HasAllRoles(ctx context.Context, principal string, roles ...Role) bool

		// CheckPermission fails with ErrNotPermitted instead of
		// returning false, for guard-style call sites
		CheckPermission(ctx context.Context, principal string, permission Permission) error
		CheckRole(ctx context.Context, principal string, role Role) error
	}
)

var ErrNotPermitted = errors.New("not permitted")
