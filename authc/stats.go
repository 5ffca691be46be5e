package authc

import "sync/atomic"

type (
	// Stats is a point-in-time snapshot of authentication outcomes
	Stats struct {
		Successes   uint64
		NotFound    uint64
		Mismatches  uint64
		RealmFaults uint64
		Timeouts    uint64
	}

	stats struct {
		successes   atomic.Uint64
		notFound    atomic.Uint64
		mismatches  atomic.Uint64
		realmFaults atomic.Uint64
		timeouts    atomic.Uint64
	}
)

func (s *stats) snapshot() Stats {
	return Stats{
		Successes:   s.successes.Load(),
		NotFound:    s.notFound.Load(),
		Mismatches:  s.mismatches.Load(),
		RealmFaults: s.realmFaults.Load(),
		Timeouts:    s.timeouts.Load(),
	}
}
