package cache

import (
	"context"
	"sync"
	"time"
)

type (
	entry struct {
		value     string
		expiresAt time.Time
	}

	// MemoryStore is an in-process Store for tests and
	// single-process deployments
	MemoryStore struct {
		mu        sync.RWMutex
		stopGuard sync.Once
		stopChan  chan struct{}
		lookup    map[string]entry
	}
)

var _ Store = (*MemoryStore)(nil)

const cleanupInterval = time.Minute

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		stopChan: make(chan struct{}),
		lookup:   make(map[string]entry),
	}

	go s.startCleanup()

	return s
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	default:
	}

	s.mu.RLock()
	e, ok := s.lookup[key]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}

	if !e.expiresAt.IsZero() && e.expiresAt.Before(nowFunc()) {
		_ = s.Delete(ctx, key)
		return "", false, nil
	}

	return e.value, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = nowFunc().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookup[key] = e

	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.lookup, key)

	return nil
}

// Close stops the background cleanup goroutine
func (s *MemoryStore) Close() error {
	s.stopGuard.Do(func() {
		close(s.stopChan)
	})

	return nil
}

func (s *MemoryStore) startCleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.deleteExpired()
		case <-s.stopChan:
			return
		}
	}
}

func (s *MemoryStore) deleteExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowTime := nowFunc()
	for key, e := range s.lookup {
		if !e.expiresAt.IsZero() && e.expiresAt.Before(nowTime) {
			delete(s.lookup, key)
		}
	}
}
