package security

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bastion-sec/bastion/authc"
	"github.com/bastion-sec/bastion/authz"
	"github.com/bastion-sec/bastion/session"
)

type (
	// A Subject is the request-scoped view of the current actor:
	// its authentication state, session, and authorization surface.
	// The binding travels on the context returned by Login/Resume;
	// the Manager itself is shared and stateless per request
	Subject interface {
		Authenticated(ctx context.Context) bool
		Principal(ctx context.Context) (string, error)
		Session(ctx context.Context) (*session.Session, error)

		IsPermitted(ctx context.Context, permission string) bool
		IsPermittedAny(ctx context.Context, permissions ...string) bool
		IsPermittedAll(ctx context.Context, permissions ...string) bool
		CheckPermission(ctx context.Context, permission string) error

		HasRole(ctx context.Context, role string) bool
		HasAnyRole(ctx context.Context, roles ...string) bool
		HasAllRoles(ctx context.Context, roles ...string) bool

		Attribute(ctx context.Context, key string, ptr any) (bool, error)
		SetAttribute(ctx context.Context, key string, value any) error
		RemoveAttribute(ctx context.Context, key string) error

		Login(ctx context.Context, token authc.Token) (context.Context, error)
		Logout(ctx context.Context) (context.Context, error)
	}

	// Manager is the façade binding authentication, authorization,
	// and session management behind the Subject surface
	Manager struct {
		authenticator authc.Authenticator
		authorizer    authz.Authorizer
		sessions      *session.Manager
		registry      *session.Registry
		concurrency   int
		logger        *slog.Logger
	}

	sessionCtxKey   struct{}
	principalCtxKey struct{}
)

var _ Subject = (*Manager)(nil)

// Sessions exposes the underlying session manager for callers that
// operate on sessions directly
func (m *Manager) Sessions() *session.Manager {
	return m.sessions
}

// Login authenticates the token and, on success, binds a freshly
// started session to the returned context. The session identifier is
// always newly generated; any session carried into the login is
// stopped so an identifier chosen before authentication can never
// survive it. On failure nothing about session state changes
func (m *Manager) Login(ctx context.Context, token authc.Token) (context.Context, error) {
	account, err := m.authenticator.Authenticate(ctx, token)
	if err != nil {
		return ctx, err
	}

	if id, ok := sessionIDFrom(ctx); ok {
		if prior, ok := principalFrom(ctx); ok {
			_ = m.registry.Deregister(ctx, prior, id)
		}
		if err := m.sessions.Stop(ctx, id); err != nil {
			m.logger.WarnContext(ctx, "failed to stop pre-login session",
				slog.String("session", id),
				slog.Any("error", err))
		}
	}

	if err := m.evictOldestIfNeeded(ctx, account.Principal); err != nil {
		return ctx, err
	}

	ss, err := m.sessions.Start(ctx, account.Principal)
	if err != nil {
		return ctx, err
	}

	// carry the login-time authorization payload with the session so
	// later checks work even for realms with no lookup store
	if err := m.sessions.SetAttribute(ctx, ss.ID(), AuthorizationKey, account.Authorization); err != nil {
		return ctx, err
	}

	if err := m.registry.Register(ctx, account.Principal, ss.ID()); err != nil {
		return ctx, err
	}

	ctx = context.WithValue(ctx, sessionCtxKey{}, ss.ID())
	return context.WithValue(ctx, principalCtxKey{}, account.Principal), nil
}

// Logout stops the bound session and clears the binding. Logging out
// without a session, or twice, is not an error
func (m *Manager) Logout(ctx context.Context) (context.Context, error) {
	id, ok := sessionIDFrom(ctx)
	if !ok {
		return ctx, nil
	}

	if principal, ok := principalFrom(ctx); ok {
		if err := m.registry.Deregister(ctx, principal, id); err != nil {
			return ctx, err
		}
	}

	if err := m.sessions.Stop(ctx, id); err != nil {
		return ctx, err
	}

	ctx = context.WithValue(ctx, sessionCtxKey{}, "")
	return context.WithValue(ctx, principalCtxKey{}, ""), nil
}

// LogoutAll stops every registered session of the principal
func (m *Manager) LogoutAll(ctx context.Context, principal string) error {
	sessions, err := m.registry.ActiveSessions(ctx, principal)
	if err != nil {
		return err
	}

	for _, ss := range sessions {
		if err := m.registry.Deregister(ctx, principal, ss.ID()); err != nil {
			return err
		}
		if err := m.sessions.Stop(ctx, ss.ID()); err != nil {
			return err
		}
	}

	return nil
}

// Resume rebuilds a Subject binding from a carried session
// identifier, e.g. one presented by a returning caller
func (m *Manager) Resume(ctx context.Context, sessionID string) (context.Context, error) {
	ss, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return ctx, err
	}

	ctx = context.WithValue(ctx, sessionCtxKey{}, ss.ID())
	return context.WithValue(ctx, principalCtxKey{}, ss.Principal()), nil
}

func (m *Manager) Authenticated(ctx context.Context) bool {
	ss, err := m.currentSession(ctx)
	if err != nil {
		return false
	}

	return len(ss.Principal()) != 0
}

// Principal returns the principal bound to the caller's session
func (m *Manager) Principal(ctx context.Context) (string, error) {
	ss, err := m.currentSession(ctx)
	if err != nil {
		return "", err
	}

	return ss.Principal(), nil
}

// Session returns a fresh, validated snapshot of the bound session
func (m *Manager) Session(ctx context.Context) (*session.Session, error) {
	id, ok := sessionIDFrom(ctx)
	if !ok {
		return nil, ErrNoSession
	}

	return m.sessions.Get(ctx, id)
}

func (m *Manager) IsPermitted(ctx context.Context, permission string) bool {
	ss, err := m.currentSession(ctx)
	if err != nil || len(ss.Principal()) == 0 {
		return false
	}

	requested := authz.NewPermission(permission)
	if sessionPayloadImplies(ss, requested) {
		return true
	}

	return m.authorizer.IsPermitted(ctx, ss.Principal(), requested)
}

func (m *Manager) IsPermittedAny(ctx context.Context, permissions ...string) bool {
	for _, permission := range permissions {
		if m.IsPermitted(ctx, permission) {
			return true
		}
	}

	return false
}

func (m *Manager) IsPermittedAll(ctx context.Context, permissions ...string) bool {
	for _, permission := range permissions {
		if !m.IsPermitted(ctx, permission) {
			return false
		}
	}

	return true
}

// CheckPermission fails instead of answering false: ErrNoSession when
// there is no bound principal, authz.ErrNotPermitted on denial
func (m *Manager) CheckPermission(ctx context.Context, permission string) error {
	ss, err := m.currentSession(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if len(ss.Principal()) == 0 {
		return ErrNoSession
	}

	if m.IsPermitted(ctx, permission) {
		return nil
	}

	return fmt.Errorf("%w: %s", authz.ErrNotPermitted, permission)
}

func (m *Manager) HasRole(ctx context.Context, role string) bool {
	ss, err := m.currentSession(ctx)
	if err != nil || len(ss.Principal()) == 0 {
		return false
	}

	requested := authz.NewRole(role)
	if sessionPayloadHasRole(ss, requested) {
		return true
	}

	return m.authorizer.HasRole(ctx, ss.Principal(), requested)
}

func (m *Manager) HasAnyRole(ctx context.Context, roles ...string) bool {
	for _, role := range roles {
		if m.HasRole(ctx, role) {
			return true
		}
	}

	return false
}

func (m *Manager) HasAllRoles(ctx context.Context, roles ...string) bool {
	for _, role := range roles {
		if !m.HasRole(ctx, role) {
			return false
		}
	}

	return true
}

func (m *Manager) Attribute(ctx context.Context, key string, ptr any) (bool, error) {
	id, ok := sessionIDFrom(ctx)
	if !ok {
		return false, ErrNoSession
	}

	return m.sessions.Attribute(ctx, id, key, ptr)
}

func (m *Manager) SetAttribute(ctx context.Context, key string, value any) error {
	id, ok := sessionIDFrom(ctx)
	if !ok {
		return ErrNoSession
	}

	return m.sessions.SetAttribute(ctx, id, key, value)
}

func (m *Manager) RemoveAttribute(ctx context.Context, key string) error {
	id, ok := sessionIDFrom(ctx)
	if !ok {
		return ErrNoSession
	}

	return m.sessions.RemoveAttribute(ctx, id, key)
}

//=====================================
//		    Private
//=====================================

func sessionIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionCtxKey{}).(string)
	return id, ok && len(id) != 0
}

func principalFrom(ctx context.Context) (string, bool) {
	principal, ok := ctx.Value(principalCtxKey{}).(string)
	return principal, ok && len(principal) != 0
}

func (m *Manager) currentSession(ctx context.Context) (*session.Session, error) {
	id, ok := sessionIDFrom(ctx)
	if !ok {
		return nil, ErrNoSession
	}

	ss, err := m.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return ss, nil
}

func (m *Manager) evictOldestIfNeeded(ctx context.Context, principal string) error {
	if m.concurrency <= 0 {
		return nil
	}

	sessions, err := m.registry.ActiveSessions(ctx, principal)
	if err != nil {
		return err
	}

	excess := len(sessions) - m.concurrency + 1
	if excess <= 0 {
		return nil
	}

	for _, ss := range sessions[:excess] {
		if err := m.registry.Deregister(ctx, principal, ss.ID()); err != nil {
			return err
		}
		if err := m.sessions.Stop(ctx, ss.ID()); err != nil {
			return err
		}
		m.logger.InfoContext(ctx, "evicted oldest session",
			slog.String("principal", principal),
			slog.String("session", ss.ID()))
	}

	return nil
}

func sessionPayloadImplies(ss *session.Session, requested authz.Permission) bool {
	var payload authc.Authorization
	found, err := ss.Attribute(AuthorizationKey, &payload)
	if err != nil || !found {
		return false
	}

	for _, held := range payload.Permissions {
		if authz.NewPermission(held).Implies(requested) {
			return true
		}
	}

	return false
}

func sessionPayloadHasRole(ss *session.Session, requested authz.Role) bool {
	var payload authc.Authorization
	found, err := ss.Attribute(AuthorizationKey, &payload)
	if err != nil || !found {
		return false
	}

	for _, held := range payload.Roles {
		if authz.NewRole(held).Implies(requested) {
			return true
		}
	}

	return false
}
