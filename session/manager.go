package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bastion-sec/bastion/cache"
	"github.com/bastion-sec/bastion/codec"
	"github.com/google/uuid"
)

type (
	Option func(*Manager)

	// A Manager is the only component that creates, mutates, or
	// invalidates session records. All state lives in the backing
	// cache.Store; the manager itself holds no per-session state
	// and runs no background sweep. Expiration is enforced lazily
	// on access, with the store's own TTL as the backstop for
	// sessions nobody touches again.
	//
	// Concurrent operations on the same session from different
	// callers are not serialized: attribute writes are whole-record
	// read-modify-write and the last writer wins.
	Manager struct {
		store       cache.Store
		codec       codec.Codec
		schema      codec.Schema
		logger      *slog.Logger
		timeout     time.Duration
		idleTimeout time.Duration
		keyPrefix   string
		newID       func() string
	}
)

const (
	defaultKeyPrefix = "session"

	// ReservedPrefix marks attribute names owned by the framework
	// itself; they bypass any user-declared schema
	ReservedPrefix = "__"
)

// WithTimeout sets the absolute session lifetime; zero disables it
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// WithIdleTimeout sets how long a session survives without access
func WithIdleTimeout(idleTimeout time.Duration) Option {
	return func(m *Manager) {
		m.idleTimeout = idleTimeout
	}
}

func WithCodec(c codec.Codec) Option {
	return func(m *Manager) {
		if c != nil {
			m.codec = c
		}
	}
}

// WithSchema makes the manager validate attributes against a declared
// field set: unknown names or mismatched types fail instead of being
// silently carried along
func WithSchema(schema codec.Schema) Option {
	return func(m *Manager) {
		m.schema = schema
	}
}

func WithKeyPrefix(prefix string) Option {
	return func(m *Manager) {
		prefix = strings.TrimSpace(prefix)
		if len(prefix) != 0 {
			m.keyPrefix = prefix
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithIDGenerator replaces the session identifier generator. The
// generator must produce unpredictable, globally unique values
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) {
		if newID != nil {
			m.newID = newID
		}
	}
}

func NewManager(store cache.Store, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		codec:       codec.JSON,
		logger:      slog.Default(),
		timeout:     12 * time.Hour,
		idleTimeout: time.Hour,
		keyPrefix:   defaultKeyPrefix,
		newID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}

	for _, f := range opts {
		f(m)
	}

	return m
}

// Start allocates a fresh session bound to the given principal
// (empty for anonymous) and persists it
func (m *Manager) Start(ctx context.Context, principal string) (*Session, error) {
	nowTime := nowFunc()
	rec := record{
		ID:          m.newID(),
		Principal:   principal,
		StartTime:   nowTime,
		LastAccess:  nowTime,
		Timeout:     m.timeout,
		IdleTimeout: m.idleTimeout,
		Attrs:       make(map[string]string),
	}

	if err := m.save(ctx, &rec); err != nil {
		return nil, err
	}

	return &Session{rec: rec, codec: m.codec}, nil
}

// Get retrieves the session, touching it so its last-access time
// advances. Returns ErrNotFound if no record exists and ErrExpired
// if one existed but timed out (in which case it is removed, and a
// subsequent Get reports ErrNotFound)
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	rec, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	rec.LastAccess = nowFunc()
	if err := m.save(ctx, rec); err != nil {
		return nil, err
	}

	return &Session{rec: *rec, codec: m.codec}, nil
}

// Touch advances the session's last-access time without reading
// anything else
func (m *Manager) Touch(ctx context.Context, id string) error {
	rec, err := m.load(ctx, id)
	if err != nil {
		return err
	}

	rec.LastAccess = nowFunc()
	return m.save(ctx, rec)
}

// SetAttribute writes one attribute via read-modify-write of the
// whole record. A nil value removes the attribute
func (m *Manager) SetAttribute(ctx context.Context, id string, key string, value any) error {
	rec, err := m.load(ctx, id)
	if err != nil {
		return err
	}

	if value == nil {
		delete(rec.Attrs, key)
		return m.save(ctx, rec)
	}

	data, err := m.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("encode attribute %q: %w", key, err)
	}

	if m.schema != nil && !strings.HasPrefix(key, ReservedPrefix) {
		if err := m.schema.Check(key, data); err != nil {
			return err
		}
	}

	if rec.Attrs == nil {
		rec.Attrs = make(map[string]string)
	}
	rec.Attrs[key] = data

	return m.save(ctx, rec)
}

// Attribute reads one attribute from a fresh copy of the session
func (m *Manager) Attribute(ctx context.Context, id string, key string, ptr any) (bool, error) {
	rec, err := m.load(ctx, id)
	if err != nil {
		return false, err
	}

	ss := Session{rec: *rec, codec: m.codec}
	return ss.Attribute(key, ptr)
}

func (m *Manager) RemoveAttribute(ctx context.Context, id string, key string) error {
	return m.SetAttribute(ctx, id, key, nil)
}

// Stop deletes the session unconditionally. Stopping an already
// absent session is not an error
func (m *Manager) Stop(ctx context.Context, id string) error {
	return m.store.Delete(ctx, m.key(id))
}

//=====================================
//		    Private
//=====================================

func (m *Manager) load(ctx context.Context, id string) (*record, error) {
	if len(id) == 0 {
		return nil, ErrNotFound
	}

	data, found, err := m.store.Get(ctx, m.key(id))
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	if !found {
		return nil, ErrNotFound
	}

	var rec record
	if err := m.codec.Decode(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	if m.schema != nil {
		for key, value := range rec.Attrs {
			if strings.HasPrefix(key, ReservedPrefix) {
				continue
			}
			if err := m.schema.Check(key, value); err != nil {
				return nil, err
			}
		}
	}

	// the store's TTL is only a backstop; the logical timeouts
	// decide, even when the entry is still physically present
	if rec.expired(nowFunc()) {
		if err := m.store.Delete(ctx, m.key(id)); err != nil {
			m.logger.WarnContext(ctx, "failed to remove expired session",
				slog.String("session", id),
				slog.Any("error", err))
		}
		return nil, ErrExpired
	}

	return &rec, nil
}

func (m *Manager) save(ctx context.Context, rec *record) error {
	data, err := m.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := m.store.Set(ctx, m.key(rec.ID), data, m.ttl(rec)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	return nil
}

// ttl is the physical horizon handed to the store: the greater of
// the idle window and whatever remains of the absolute window
func (m *Manager) ttl(rec *record) time.Duration {
	if rec.IdleTimeout <= 0 && rec.Timeout <= 0 {
		return 0
	}

	ttl := rec.IdleTimeout
	if rec.Timeout > 0 {
		if remaining := rec.StartTime.Add(rec.Timeout).Sub(nowFunc()); remaining > ttl {
			ttl = remaining
		}
	}

	if ttl <= 0 {
		ttl = time.Second
	}

	return ttl
}

func (m *Manager) key(id string) string {
	return m.keyPrefix + ":" + id
}
