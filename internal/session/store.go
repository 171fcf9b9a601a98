package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"qsignal/pkg/contracts/domain"
)

// Session holds per-interaction state. It lives in memory for the duration
// of a user interaction and is never persisted. The authenticated flag
// starts false and flips only after a successful access check.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu            sync.RWMutex
	lastSeen      time.Time
	authenticated bool
	lastExport    *domain.ExportArtifact
}

// Authenticated reports whether the access gate has admitted this session.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// SetAuthenticated records the outcome of the access check.
func (s *Session) SetAuthenticated(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = ok
}

// SetExport stores the most recent export artifact for download. A new
// upload replaces the previous artifact.
func (s *Session) SetExport(artifact *domain.ExportArtifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastExport = artifact
}

// Export returns the most recent export artifact, or nil when no
// processing has completed in this session.
func (s *Session) Export() *domain.ExportArtifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastExport
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastSeen)
}

// Store is an in-memory session registry keyed by opaque session IDs.
// Sessions are independent: no processing state is shared between them.
// Sessions idle past the TTL expire, so the store (and the export
// artifacts sessions retain) stays bounded over the process lifetime.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store. Sessions expire after being
// idle for ttl; a non-positive ttl disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new unauthenticated session.
func (st *Store) Create() *Session {
	now := st.now()
	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		lastSeen:  now,
	}
	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess
}

// Get looks up a session by ID and marks it as seen. Sessions idle past
// the TTL are dropped as if they never existed.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := st.now()
	if st.expired(sess, now) {
		st.Delete(id)
		return nil, false
	}
	sess.touch(now)
	return sess, true
}

// Delete removes a session. Missing IDs are ignored.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes every session idle past the TTL and returns the number
// removed. Called periodically so abandoned sessions do not accumulate
// between lookups.
func (st *Store) Sweep() int {
	if st.ttl <= 0 {
		return 0
	}
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, sess := range st.sessions {
		if sess.idleSince(now) > st.ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *Store) expired(sess *Session, now time.Time) bool {
	return st.ttl > 0 && sess.idleSince(now) > st.ttl
}
