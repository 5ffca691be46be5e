package session

import (
	"time"

	"github.com/bastion-sec/bastion/codec"
)

type (
	// record is the storable form of a session
	record struct {
		ID          string            `json:"id"`
		Principal   string            `json:"principal,omitempty"`
		StartTime   time.Time         `json:"start_time"`
		LastAccess  time.Time         `json:"last_access"`
		Timeout     time.Duration     `json:"timeout,omitempty"`
		IdleTimeout time.Duration     `json:"idle_timeout,omitempty"`
		Attrs       map[string]string `json:"attrs,omitempty"`
	}

	// A Session is a point-in-time snapshot of server-side state
	// bound to a principal (or anonymous). The identifier is
	// immutable for the session's lifetime; everything else is as
	// of the moment the snapshot was read from the store
	Session struct {
		rec   record
		codec codec.Codec
	}
)

// expired reports whether the record's idle or absolute timeout has
// elapsed. A zero timeout disables that bound
func (r *record) expired(now time.Time) bool {
	if r.IdleTimeout > 0 && r.LastAccess.Add(r.IdleTimeout).Before(now) {
		return true
	}

	if r.Timeout > 0 && r.StartTime.Add(r.Timeout).Before(now) {
		return true
	}

	return false
}

func (s *Session) ID() string {
	return s.rec.ID
}

// Principal returns the bound principal, or the empty string for an
// anonymous session
func (s *Session) Principal() string {
	return s.rec.Principal
}

func (s *Session) StartTime() time.Time {
	return s.rec.StartTime
}

func (s *Session) LastAccessTime() time.Time {
	return s.rec.LastAccess
}

// Timeout is the absolute lifetime bound; zero means unbounded
func (s *Session) Timeout() time.Duration {
	return s.rec.Timeout
}

func (s *Session) IdleTimeout() time.Duration {
	return s.rec.IdleTimeout
}

// Attribute decodes the named attribute into ptr, reporting whether
// it was present
func (s *Session) Attribute(key string, ptr any) (bool, error) {
	data, ok := s.rec.Attrs[key]
	if !ok {
		return false, nil
	}

	if err := s.codec.Decode(data, ptr); err != nil {
		return false, err
	}

	return true, nil
}

func (s *Session) AttributeAsString(key string) (string, bool, error) {
	var value string
	found, err := s.Attribute(key, &value)
	if err != nil {
		return "", false, err
	}

	return value, found, nil
}

func (s *Session) AttributeAsInt(key string) (int64, bool, error) {
	var value int64
	found, err := s.Attribute(key, &value)
	if err != nil {
		return 0, false, err
	}

	return value, found, nil
}

func (s *Session) AttributeAsBool(key string) (bool, bool, error) {
	var value bool
	found, err := s.Attribute(key, &value)
	if err != nil {
		return false, false, err
	}

	return value, found, nil
}

func (s *Session) AttributeAsFloat(key string) (float64, bool, error) {
	var value float64
	found, err := s.Attribute(key, &value)
	if err != nil {
		return 0, false, err
	}

	return value, found, nil
}

func (s *Session) AttributeKeys() []string {
	keys := make([]string, 0, len(s.rec.Attrs))
	for key := range s.rec.Attrs {
		keys = append(keys, key)
	}

	return keys
}
