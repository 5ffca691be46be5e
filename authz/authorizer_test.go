package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/bastion-sec/bastion/authc"
	"github.com/stretchr/testify/assert"
)

type staticRealm struct {
	name     string
	payloads map[string]*authc.Authorization
	err      error
}

func (r *staticRealm) Name() string {
	return r.name
}

func (r *staticRealm) Authorization(_ context.Context, principal string) (*authc.Authorization, bool, error) {
	if r.err != nil {
		return nil, false, r.err
	}

	payload, ok := r.payloads[principal]
	return payload, ok, nil
}

func TestIsPermitted(t *testing.T) {
	z := NewAuthorizer(&staticRealm{
		name: "bowling",
		payloads: map[string]*authc.Authorization{
			"thedude": {Permissions: []string{"tournament:approve"}},
		},
	})
	ctx := context.TODO()

	assert.True(t, z.IsPermitted(ctx, "thedude", NewPermission("tournament:approve")))
	assert.False(t, z.IsPermitted(ctx, "thedude", NewPermission("tournament:delete")))
}

func TestIsPermittedWildcardHolder(t *testing.T) {
	z := NewAuthorizer(&staticRealm{
		name: "bowling",
		payloads: map[string]*authc.Authorization{
			"walter": {Permissions: []string{"tournament:*"}},
		},
	})

	assert.True(t, z.IsPermitted(context.TODO(), "walter", NewPermission("tournament:anything")))
}

func TestAuthorizationUnionAcrossRealms(t *testing.T) {
	first := &staticRealm{
		name: "league",
		payloads: map[string]*authc.Authorization{
			"thedude": {Roles: []string{"bowler"}, Permissions: []string{"lane:reserve"}},
		},
	}
	second := &staticRealm{
		name: "tournament",
		payloads: map[string]*authc.Authorization{
			"thedude": {Roles: []string{"official"}, Permissions: []string{"tournament:approve"}},
		},
	}
	z := NewAuthorizer(first, second)
	ctx := context.TODO()

	assert.True(t, z.IsPermitted(ctx, "thedude", NewPermission("lane:reserve")))
	assert.True(t, z.IsPermitted(ctx, "thedude", NewPermission("tournament:approve")))
	assert.True(t, z.HasRole(ctx, "thedude", NewRole("bowler")))
	assert.True(t, z.HasRole(ctx, "thedude", NewRole("official")))
}

func TestUnknownPrincipalDeniedByDefault(t *testing.T) {
	z := NewAuthorizer(&staticRealm{name: "bowling"})
	ctx := context.TODO()

	assert.False(t, z.IsPermitted(ctx, "stranger", NewPermission("tournament:approve")))
	assert.False(t, z.HasRole(ctx, "stranger", NewRole("bowler")))
}

func TestAnonymousPrincipalDenied(t *testing.T) {
	z := NewAuthorizer(&staticRealm{
		name: "bowling",
		payloads: map[string]*authc.Authorization{
			"": {Permissions: []string{"*"}},
		},
	})

	assert.False(t, z.IsPermitted(context.TODO(), "", NewPermission("tournament:approve")))
}

func TestRealmErrorSkipped(t *testing.T) {
	broken := &staticRealm{name: "broken", err: errors.New("connection refused")}
	working := &staticRealm{
		name: "bowling",
		payloads: map[string]*authc.Authorization{
			"thedude": {Permissions: []string{"tournament:approve"}},
		},
	}
	z := NewAuthorizer(broken, working)

	assert.True(t, z.IsPermitted(context.TODO(), "thedude", NewPermission("tournament:approve")))
}

func TestIsPermittedAllAndAny(t *testing.T) {
	z := NewAuthorizer(&staticRealm{
		name: "bowling",
		payloads: map[string]*authc.Authorization{
			"thedude": {Permissions: []string{"tournament:approve", "lane:reserve"}},
		},
	})
	ctx := context.TODO()

	assert.True(t, z.IsPermittedAll(ctx, "thedude",
		NewPermission("tournament:approve"), NewPermission("lane:reserve")))
	assert.False(t, z.IsPermittedAll(ctx, "thedude",
		NewPermission("tournament:approve"), NewPermission("tournament:delete")))
	assert.True(t, z.IsPermittedAny(ctx, "thedude",
		NewPermission("tournament:delete"), NewPermission("lane:reserve")))
	assert.False(t, z.IsPermittedAny(ctx, "thedude",
		NewPermission("tournament:delete"), NewPermission("lane:close")))
}

func TestHasAnyAndAllRoles(t *testing.T) {
	z := NewAuthorizer(&staticRealm{
		name: "bowling",
		payloads: map[string]*authc.Authorization{
			"thedude": {Roles: []string{"bowler", "official"}},
		},
	})
	ctx := context.TODO()

	assert.True(t, z.HasAllRoles(ctx, "thedude", NewRole("bowler"), NewRole("official")))
	assert.False(t, z.HasAllRoles(ctx, "thedude", NewRole("bowler"), NewRole("admin")))
	assert.True(t, z.HasAnyRole(ctx, "thedude", NewRole("admin"), NewRole("bowler")))
}

func TestCheckPermission(t *testing.T) {
	z := NewAuthorizer(&staticRealm{
		name: "bowling",
		payloads: map[string]*authc.Authorization{
			"thedude": {Permissions: []string{"tournament:approve"}},
		},
	})
	ctx := context.TODO()

	assert.NoError(t, z.CheckPermission(ctx, "thedude", NewPermission("tournament:approve")))

	err := z.CheckPermission(ctx, "thedude", NewPermission("tournament:delete"))
	assert.ErrorIs(t, err, ErrNotPermitted)
}

func TestCheckRole(t *testing.T) {
	z := NewAuthorizer(&staticRealm{
		name: "bowling",
		payloads: map[string]*authc.Authorization{
			"thedude": {Roles: []string{"bowler"}},
		},
	})
	ctx := context.TODO()

	assert.NoError(t, z.CheckRole(ctx, "thedude", NewRole("bowler")))
	assert.ErrorIs(t, z.CheckRole(ctx, "thedude", NewRole("admin")), ErrNotPermitted)
}
