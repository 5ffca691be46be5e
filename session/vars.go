package session

import (
	"errors"
	"time"
)

var (
	nowFunc = time.Now

	// ErrNotFound means no session exists under the identifier.
	// Sessions may vanish at any moment (cache eviction, logout
	// elsewhere); callers must treat this as a normal outcome
	ErrNotFound = errors.New("session not found")
	// ErrExpired means the session existed but its idle or
	// absolute timeout had elapsed; the record has been removed
	ErrExpired = errors.New("session expired")
)
