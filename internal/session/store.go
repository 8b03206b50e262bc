package session

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// Store is a keyed, in-memory session store. Each user's session sits behind
// its own mutex: Transact serializes events for the same user while events
// for different users proceed fully in parallel.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	logger  *slog.Logger
}

type entry struct {
	mu      sync.Mutex
	session Session
}

// NewStore creates an empty session store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		entries: make(map[string]*entry),
		logger:  logger.With("component", "session_store"),
	}
}

// lockedEntry returns the entry for userID with its mutex held, creating a
// default one if absent. A concurrent Sweep can remove an entry between the
// map lookup and the lock; membership is re-checked under the lock so
// mutations never land on an orphaned entry.
func (s *Store) lockedEntry(userID string) *entry {
	for {
		s.mu.Lock()
		e, ok := s.entries[userID]
		if !ok {
			e = &entry{session: Session{LastSeen: time.Now()}}
			s.entries[userID] = e
			s.logger.Debug("Session created", "user_id", userID)
		}
		s.mu.Unlock()

		e.mu.Lock()

		s.mu.Lock()
		live := s.entries[userID] == e
		s.mu.Unlock()
		if live {
			return e
		}
		e.mu.Unlock()
	}
}

// Get returns a copy of the user's session, default-initialized if absent.
// It never fails.
func (s *Store) Get(userID string) Session {
	e := s.lockedEntry(userID)
	defer e.mu.Unlock()
	return e.session
}

// Transact runs fn with exclusive access to the user's session. Mutations made
// by fn are retained. Callers wrap an entire inbound event in Transact so that
// concurrent events for the same user cannot interleave their read-modify-write
// on InputState or Draft.
func (s *Store) Transact(userID string, fn func(*Session)) {
	e := s.lockedEntry(userID)
	defer e.mu.Unlock()

	e.session.LastSeen = time.Now()
	fn(&e.session)
}

// Clear resets the user's session to its default state.
func (s *Store) Clear(userID string) {
	e := s.lockedEntry(userID)
	defer e.mu.Unlock()

	e.session.Reset()
	s.logger.Debug("Session cleared", "user_id", userID)
}

// Len returns the number of sessions currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many were
// removed. Sessions are created lazily on the next event from that user, so
// sweeping is always safe.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, e := range s.entries {
		// An entry whose lock is held has an event mid-flight, so the
		// session is not idle. Skipping it also keeps lock ordering
		// one-way: lockedEntry takes s.mu while holding an entry lock.
		if !e.mu.TryLock() {
			continue
		}
		idle := e.session.LastSeen.Before(cutoff)
		e.mu.Unlock()

		if idle {
			delete(s.entries, userID)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info("Swept idle sessions", "removed", removed, "remaining", len(s.entries))
	}
	return removed
}
