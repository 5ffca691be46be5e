package authz

import (
	"context"
	"fmt"
	"log/slog"
)

type (
	authorizer struct {
		realms []Realm
		logger *slog.Logger
	}
)

var _ Authorizer = (*authorizer)(nil)

func NewAuthorizer(realm Realm, realms ...Realm) Authorizer {
	return &authorizer{
		realms: append([]Realm{realm}, realms...),
		logger: slog.Default(),
	}
}

func (z *authorizer) IsPermitted(ctx context.Context, principal string, permission Permission) bool {
	if len(principal) == 0 {
		return false
	}

	for _, r := range z.realms {
		payload, found, err := r.Authorization(ctx, principal)
		if err != nil {
			z.logger.WarnContext(ctx, "authorization lookup failed",
				slog.String("realm", r.Name()),
				slog.Any("error", err))
			continue
		}
		if !found {
			continue
		}

		for _, held := range payload.Permissions {
			if NewPermission(held).Implies(permission) {
				return true
			}
		}
	}

	return false
}

func (z *authorizer) IsPermittedAny(ctx context.Context, principal string, permissions ...Permission) bool {
	for _, permission := range permissions {
		if z.IsPermitted(ctx, principal, permission) {
			return true
		}
	}

	return false
}

func (z *authorizer) IsPermittedAll(ctx context.Context, principal string, permissions ...Permission) bool {
	for _, permission := range permissions {
		if !z.IsPermitted(ctx, principal, permission) {
			return false
		}
	}

	return true
}

func (z *authorizer) HasRole(ctx context.Context, principal string, role Role) bool {
	if len(principal) == 0 {
		return false
	}

	for _, r := range z.realms {
		payload, found, err := r.Authorization(ctx, principal)
		if err != nil {
			z.logger.WarnContext(ctx, "authorization lookup failed",
				slog.String("realm", r.Name()),
				slog.Any("error", err))
			continue
		}
		if !found {
			continue
		}

		for _, held := range payload.Roles {
			if NewRole(held).Implies(role) {
				return true
			}
		}
	}

	return false
}

func (z *authorizer) HasAnyRole(ctx context.Context, principal string, roles ...Role) bool {
	for _, role := range roles {
		if z.HasRole(ctx, principal, role) {
			return true
		}
	}

	return false
}

func (z *authorizer) HasAllRoles(ctx context.Context, principal string, roles ...Role) bool {
	for _, role := range roles {
		if !z.HasRole(ctx, principal, role) {
			return false
		}
	}

	return true
}

func (z *authorizer) CheckPermission(ctx context.Context, principal string, permission Permission) error {
	if !z.IsPermitted(ctx, principal, permission) {
		return fmt.Errorf("%w: %s", ErrNotPermitted, permission.Desc())
	}

	return nil
}

func (z *authorizer) CheckRole(ctx context.Context, principal string, role Role) error {
	if !z.HasRole(ctx, principal, role) {
		return fmt.Errorf("%w: role %s", ErrNotPermitted, role.Desc())
	}

	return nil
}
