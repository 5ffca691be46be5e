package realm

import (
	"context"
	"fmt"

	"github.com/bastion-sec/bastion/authc"
	"github.com/bastion-sec/bastion/authz"
	"github.com/golang-jwt/jwt/v5"
)

type (
	// A BearerRealm authenticates self-contained signed tokens.
	// The credential is the token itself: a valid signature proves
	// the identity, and roles/permissions travel in the claims, so
	// the realm holds no per-principal state to look up afterwards
	BearerRealm struct {
		name string
		key  []byte
	}

	bearerClaims struct {
		Roles       []string `json:"roles,omitempty"`
		Permissions []string `json:"permissions,omitempty"`
		jwt.RegisteredClaims
	}
)

var (
	_ authc.Realm = (*BearerRealm)(nil)
	_ authz.Realm = (*BearerRealm)(nil)
)

// NewBearerRealm creates a realm verifying HS256-signed tokens with
// the given key
func NewBearerRealm(name string, key []byte) *BearerRealm {
	return &BearerRealm{
		name: name,
		key:  key,
	}
}

func (r *BearerRealm) Name() string {
	return r.name
}

func (r *BearerRealm) Supports(token authc.Token) bool {
	_, ok := token.(*authc.BearerToken)
	return ok
}

func (r *BearerRealm) Authenticate(ctx context.Context, token authc.Token) (*authc.Account, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var claims bearerClaims
	parsed, err := jwt.ParseWithClaims(token.Credentials(), &claims,
		func(*jwt.Token) (any, error) { return r.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", authc.ErrCredentialMismatch, err)
	}

	if len(claims.Subject) == 0 {
		return nil, authc.ErrCredentialMismatch
	}

	return &authc.Account{
		Principal: claims.Subject,
		Authorization: authc.Authorization{
			Roles:       claims.Roles,
			Permissions: claims.Permissions,
		},
	}, nil
}

// Authorization reports the principal as unknown: a bearer realm has
// no store to re-query, its payload only exists at authentication time
func (r *BearerRealm) Authorization(context.Context, string) (*authc.Authorization, bool, error) {
	return nil, false, nil
}
