package view

import (
	"time"

	"github.com/google/uuid"
	"github.com/viccon/sturdyc"
)

// SessionGauge receives the number of live sessions.
type SessionGauge interface {
	SetActiveSessions(count int)
}

// StoreConfig sizes the session store / Dimensionne le magasin de sessions
type StoreConfig struct {
	// IdleTimeout drops a session not used for this long.
	IdleTimeout time.Duration
	// MaxSessions bounds memory; the oldest sessions are evicted first.
	MaxSessions int
}

// SessionStore keeps sessions in memory with a sliding idle timeout.
// SessionStore garde les sessions en mémoire avec une expiration glissante.
type SessionStore struct {
	client *sturdyc.Client[*Session]
	gauge  SessionGauge
	now    func() time.Time
}

// NewSessionStore creates the store. gauge may be nil.
func NewSessionStore(cfg StoreConfig, gauge SessionGauge) *SessionStore {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 12 * time.Hour
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 10000
	}
	shards := 8
	if cfg.MaxSessions < shards {
		shards = 1
	}

	return &SessionStore{
		client: sturdyc.New[*Session](cfg.MaxSessions, shards, cfg.IdleTimeout, 10),
		gauge:  gauge,
		now:    time.Now,
	}
}

// Get returns the session and extends its idle timeout.
func (st *SessionStore) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	s, ok := st.client.Get(id)
	if !ok {
		return nil, false
	}
	st.client.Set(id, s)
	return s, true
}

// Create starts a new session with fresh random ID and CSRF token.
func (st *SessionStore) Create() *Session {
	s := NewSession(uuid.NewString(), uuid.NewString(), st.now())
	st.client.Set(s.ID, s)
	if st.gauge != nil {
		st.gauge.SetActiveSessions(st.client.Size())
	}
	return s
}

// GetOrCreate returns the session for id, or a new one when id is unknown or expired.
// The boolean reports whether a session was created.
func (st *SessionStore) GetOrCreate(id string) (*Session, bool) {
	if s, ok := st.Get(id); ok {
		return s, false
	}
	return st.Create(), true
}

// Len is the number of sessions currently held.
func (st *SessionStore) Len() int {
	return st.client.Size()
}
