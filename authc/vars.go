package authc

import "errors"

var (
	ErrInvalidToken = errors.New("invalid token")

	// ErrAccountNotFound means no configured realm recognized the principal
	ErrAccountNotFound = errors.New("account not found")
	// ErrCredentialMismatch means a realm recognized the principal
	// but the submitted credential did not verify
	ErrCredentialMismatch = errors.New("credential mismatch")
	ErrAccountLocked      = errors.New("account locked")
	ErrAccountDisabled    = errors.New("account disabled")

	// ErrRealm marks a transient realm fault: the realm could not
	// answer, which is not the same as authentication failing
	ErrRealm = errors.New("realm unavailable")
	// ErrTimeout is returned when the caller's deadline ran out
	// before the realms produced a definitive answer
	ErrTimeout = errors.New("authentication timed out")
)
