package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	err := s.Set(ctx, "key", "value", 0)
	assert.NoError(t, err)

	value, found, err := s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", value)
}

func TestMemoryStoreGetAbsent(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	_, found, err := s.Get(context.Background(), "nope")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_ = s.Set(ctx, "key", "value", 0)

	err := s.Delete(ctx, "key")
	assert.NoError(t, err)

	_, found, err := s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)

	// deleting again is fine
	assert.NoError(t, s.Delete(ctx, "key"))
}

func TestMemoryStoreTTL(t *testing.T) {
	defer func() { nowFunc = time.Now }()
	nowTime := time.Unix(1000, 0)
	nowFunc = func() time.Time { return nowTime }

	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	err := s.Set(ctx, "key", "value", 30*time.Second)
	assert.NoError(t, err)

	nowTime = nowTime.Add(29 * time.Second)
	_, found, err := s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)

	nowTime = nowTime.Add(2 * time.Second)
	_, found, err = s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Get(ctx, "key")
	assert.ErrorIs(t, err, context.Canceled)

	err = s.Set(ctx, "key", "value", 0)
	assert.ErrorIs(t, err, context.Canceled)
}
