package security

import (
	"errors"

	"github.com/bastion-sec/bastion/session"
)

const (
	// AuthorizationKey is the reserved session attribute carrying
	// the authorization payload captured at login time
	AuthorizationKey = session.ReservedPrefix + "authorization"
)

var (
	// ErrNoSession means the calling context carries no active
	// session, so there is no principal to evaluate against
	ErrNoSession = errors.New("no active session")

	// ErrConfiguration marks a security manager that cannot be
	// built: zero realms, or no cache store. Fatal at construction
	ErrConfiguration = errors.New("invalid security configuration")
)
