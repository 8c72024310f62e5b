// Package sentinel requests the next historical page when the last rendered
// row becomes visible.
package sentinel

import "sync"

// Sentinel observes one row key at a time.
type Sentinel struct {
	mu       sync.Mutex
	key      string
	attached bool
	// gen counts observations; each Attach tears down the previous one.
	gen uint64

	guard   func() bool
	request func() bool
}

// New returns a Sentinel. guard reports whether a request may be issued
// (more pages, historical mode, nothing in flight); request asks for the next
// page and reports whether it was issued. Both are called without the
// sentinel's lock held.
func New(guard func() bool, request func() bool) *Sentinel {
	return &Sentinel{guard: guard, request: request}
}

// Attach observes key, replacing any earlier observation. Re-attaching the
// observed key keeps the current observation.
func (s *Sentinel) Attach(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached && s.key == key {
		return
	}
	s.key = key
	s.attached = true
	s.gen++
}

// Detach stops observing.
func (s *Sentinel) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return
	}
	s.key = ""
	s.attached = false
	s.gen++
}

// Observed returns the key currently observed.
func (s *Sentinel) Observed() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, s.attached
}

// Generation returns the observation counter.
func (s *Sentinel) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Visible reports that the row with key entered the viewport. It returns
// true when the next page was requested. Events for keys other than the
// observed one are stale and ignored.
func (s *Sentinel) Visible(key string) bool {
	s.mu.Lock()
	if !s.attached || s.key != key {
		s.mu.Unlock()
		return false
	}
	gen := s.gen
	s.mu.Unlock()

	if s.guard != nil && !s.guard() {
		return false
	}

	s.mu.Lock()
	current := s.attached && s.gen == gen
	s.mu.Unlock()
	if !current || s.request == nil {
		return false
	}
	return s.request()
}
