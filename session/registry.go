package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

type (
	// A Registry indexes the active session identifiers of each
	// principal in the same backing store as the sessions, so the
	// index is shared across processes. The index is advisory:
	// entries whose session has meanwhile vanished are pruned on
	// read, and concurrent registrations are last-writer-wins like
	// every other store write
	Registry struct {
		manager *Manager
	}
)

const registryKeyPrefix = "principal"

func NewRegistry(manager *Manager) *Registry {
	return &Registry{manager: manager}
}

// Register adds a session identifier to the principal's index
func (r *Registry) Register(ctx context.Context, principal string, id string) error {
	if len(principal) == 0 {
		return nil
	}

	ids, err := r.read(ctx, principal)
	if err != nil {
		return err
	}

	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}

	return r.write(ctx, principal, append(ids, id))
}

// Deregister removes a session identifier from the principal's
// index; unknown identifiers are ignored
func (r *Registry) Deregister(ctx context.Context, principal string, id string) error {
	if len(principal) == 0 {
		return nil
	}

	ids, err := r.read(ctx, principal)
	if err != nil {
		return err
	}

	kept := ids[:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}

	return r.write(ctx, principal, kept)
}

// ActiveSessions returns the principal's live sessions, oldest
// access first, pruning index entries whose session is gone
func (r *Registry) ActiveSessions(ctx context.Context, principal string) ([]*Session, error) {
	ids, err := r.read(ctx, principal)
	if err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(ids))
	live := make([]string, 0, len(ids))
	for _, id := range ids {
		rec, err := r.manager.load(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) {
				continue
			}
			return nil, err
		}

		sessions = append(sessions, &Session{rec: *rec, codec: r.manager.codec})
		live = append(live, id)
	}

	if len(live) != len(ids) {
		if err := r.write(ctx, principal, live); err != nil {
			return nil, err
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastAccessTime().Before(sessions[j].LastAccessTime())
	})

	return sessions, nil
}

//=====================================
//		    Private
//=====================================

func (r *Registry) read(ctx context.Context, principal string) ([]string, error) {
	data, found, err := r.manager.store.Get(ctx, r.key(principal))
	if err != nil {
		return nil, fmt.Errorf("read session index: %w", err)
	}

	if !found {
		return nil, nil
	}

	var ids []string
	if err := r.manager.codec.Decode(data, &ids); err != nil {
		return nil, fmt.Errorf("decode session index: %w", err)
	}

	return ids, nil
}

func (r *Registry) write(ctx context.Context, principal string, ids []string) error {
	if len(ids) == 0 {
		return r.manager.store.Delete(ctx, r.key(principal))
	}

	data, err := r.manager.codec.Encode(ids)
	if err != nil {
		return fmt.Errorf("encode session index: %w", err)
	}

	// the index must outlive the sessions it points at; it carries
	// no TTL and relies on pruning instead
	if err := r.manager.store.Set(ctx, r.key(principal), data, 0); err != nil {
		return fmt.Errorf("write session index: %w", err)
	}

	return nil
}

func (r *Registry) key(principal string) string {
	return r.manager.keyPrefix + ":" + registryKeyPrefix + ":" + principal
}
