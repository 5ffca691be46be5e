package session

import (
	"context"
	"testing"
	"time"

	"github.com/bastion-sec/bastion/cache"
	"github.com/bastion-sec/bastion/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()

	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	return NewManager(store, opts...)
}

func frozenClock(t *testing.T, start time.Time) *time.Time {
	t.Helper()

	nowTime := start
	nowFunc = func() time.Time { return nowTime }
	t.Cleanup(func() { nowFunc = time.Now })

	return &nowTime
}

func TestStartThenGet(t *testing.T) {
	now := frozenClock(t, time.Unix(1000, 0))
	m := newTestManager(t, WithTimeout(12*time.Hour), WithIdleTimeout(time.Hour))
	ctx := context.Background()

	created, err := m.Start(ctx, "thedude")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID())
	assert.Equal(t, "thedude", created.Principal())
	assert.Equal(t, *now, created.StartTime())
	assert.Equal(t, *now, created.LastAccessTime())

	*now = now.Add(time.Minute)

	got, err := m.Get(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, created.ID(), got.ID())
	assert.Equal(t, created.Principal(), got.Principal())
	assert.Equal(t, created.StartTime(), got.StartTime())
	assert.Equal(t, created.Timeout(), got.Timeout())
	assert.Equal(t, created.IdleTimeout(), got.IdleTimeout())
	// last access refreshed by the get itself
	assert.Equal(t, *now, got.LastAccessTime())
}

func TestGetUnknownSession(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Get(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionIdentifiersUnpredictable(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.Start(ctx, "thedude")
	require.NoError(t, err)
	second, err := m.Start(ctx, "thedude")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())
}

func TestIdleTimeoutExpiresSession(t *testing.T) {
	now := frozenClock(t, time.Unix(1000, 0))
	m := newTestManager(t, WithTimeout(0), WithIdleTimeout(30*time.Second))
	ctx := context.Background()

	ss, err := m.Start(ctx, "thedude")
	require.NoError(t, err)

	*now = now.Add(31 * time.Second)

	_, err = m.Get(ctx, ss.ID())
	assert.ErrorIs(t, err, ErrExpired)

	// the expired record was removed on observation
	_, err = m.Get(ctx, ss.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAbsoluteTimeoutIgnoresTouch(t *testing.T) {
	now := frozenClock(t, time.Unix(1000, 0))
	m := newTestManager(t, WithTimeout(time.Hour), WithIdleTimeout(30*time.Minute))
	ctx := context.Background()

	ss, err := m.Start(ctx, "thedude")
	require.NoError(t, err)

	// keep the session busy past the absolute horizon
	for i := 0; i < 4; i++ {
		*now = now.Add(20 * time.Minute)
		if now.Sub(time.Unix(1000, 0)) <= time.Hour {
			require.NoError(t, m.Touch(ctx, ss.ID()))
		}
	}

	_, err = m.Get(ctx, ss.ID())
	assert.ErrorIs(t, err, ErrExpired)
}

func TestLastAccessMonotonic(t *testing.T) {
	now := frozenClock(t, time.Unix(1000, 0))
	m := newTestManager(t)
	ctx := context.Background()

	ss, err := m.Start(ctx, "thedude")
	require.NoError(t, err)

	prev := ss.LastAccessTime()
	for i := 0; i < 5; i++ {
		*now = now.Add(time.Second)
		got, err := m.Get(ctx, ss.ID())
		require.NoError(t, err)
		assert.False(t, got.LastAccessTime().Before(prev))
		prev = got.LastAccessTime()
	}
}

func TestTouchExtendsIdleWindow(t *testing.T) {
	now := frozenClock(t, time.Unix(1000, 0))
	m := newTestManager(t, WithTimeout(0), WithIdleTimeout(30*time.Second))
	ctx := context.Background()

	ss, err := m.Start(ctx, "thedude")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		*now = now.Add(20 * time.Second)
		require.NoError(t, m.Touch(ctx, ss.ID()))
	}

	_, err = m.Get(ctx, ss.ID())
	assert.NoError(t, err)
}

func TestAttributes(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ss, err := m.Start(ctx, "thedude")
	require.NoError(t, err)

	require.NoError(t, m.SetAttribute(ctx, ss.ID(), "rank", int64(3)))
	require.NoError(t, m.SetAttribute(ctx, ss.ID(), "team", "knutsen"))

	got, err := m.Get(ctx, ss.ID())
	require.NoError(t, err)

	rank, found, err := got.AttributeAsInt("rank")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(3), rank)

	team, found, err := got.AttributeAsString("team")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "knutsen", team)

	assert.ElementsMatch(t, []string{"rank", "team"}, got.AttributeKeys())

	require.NoError(t, m.RemoveAttribute(ctx, ss.ID(), "rank"))

	var ignored int64
	found, err = m.Attribute(ctx, ss.ID(), "rank", &ignored)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestAttributeOnExpiredSession(t *testing.T) {
	now := frozenClock(t, time.Unix(1000, 0))
	m := newTestManager(t, WithTimeout(0), WithIdleTimeout(30*time.Second))
	ctx := context.Background()

	ss, err := m.Start(ctx, "thedude")
	require.NoError(t, err)

	*now = now.Add(31 * time.Second)

	err = m.SetAttribute(ctx, ss.ID(), "rank", int64(3))
	assert.ErrorIs(t, err, ErrExpired)

	var ignored int64
	_, err = m.Attribute(ctx, ss.ID(), "rank", &ignored)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStopIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ss, err := m.Start(ctx, "thedude")
	require.NoError(t, err)

	require.NoError(t, m.Stop(ctx, ss.ID()))

	_, err = m.Get(ctx, ss.ID())
	assert.ErrorIs(t, err, ErrNotFound)

	// stopping again does not fail
	assert.NoError(t, m.Stop(ctx, ss.ID()))
}

func TestAnonymousSession(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ss, err := m.Start(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, ss.Principal())

	got, err := m.Get(ctx, ss.ID())
	require.NoError(t, err)
	assert.Empty(t, got.Principal())
}

func TestSchemaEnforcedOnWrite(t *testing.T) {
	schema := codec.Schema{"rank": codec.Int, "team": codec.String}
	m := newTestManager(t, WithSchema(schema))
	ctx := context.Background()

	ss, err := m.Start(ctx, "thedude")
	require.NoError(t, err)

	assert.NoError(t, m.SetAttribute(ctx, ss.ID(), "rank", int64(3)))
	assert.ErrorIs(t, m.SetAttribute(ctx, ss.ID(), "shoesize", int64(10)), codec.ErrUnknownField)
	assert.ErrorIs(t, m.SetAttribute(ctx, ss.ID(), "rank", "first"), codec.ErrFieldType)
}
