package server

import (
	"errors"
	"sync"
	"time"

	"netxlate/internal/core"
	"netxlate/internal/prompt"
	"netxlate/internal/session"
)

var errSessionLimit = errors.New("session limit reached")

type sessionFactory struct {
	invoker      core.Invoker
	builder      *prompt.Builder
	defaultModel string
	metrics      core.MetricsCollector
	logger       core.Logger
}

func (f sessionFactory) create() *session.Session {
	return session.New("", session.Config{
		Invoker:      f.invoker,
		Builder:      f.builder,
		DefaultModel: f.defaultModel,
		Metrics:      f.metrics,
		Logger:       f.logger,
	})
}

type sessionEntry struct {
	session    *session.Session
	lastAccess time.Time
}

// sessionStore keeps one session per user workflow. When full, the least
// recently used session that is not translating is evicted.
type sessionStore struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	max     int
	factory sessionFactory
}

func newSessionStore(max int, factory sessionFactory) *sessionStore {
	if max <= 0 {
		max = core.DefaultMaxSessions
	}
	return &sessionStore{
		entries: make(map[string]*sessionEntry),
		max:     max,
		factory: factory,
	}
}

func (st *sessionStore) create() (*session.Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.entries) >= st.max && !st.evictLocked() {
		return nil, errSessionLimit
	}
	s := st.factory.create()
	st.entries[s.ID()] = &sessionEntry{session: s, lastAccess: time.Now()}
	return s, nil
}

func (st *sessionStore) get(id string) (*session.Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.entries[id]
	if !ok {
		return nil, false
	}
	e.lastAccess = time.Now()
	return e.session, true
}

func (st *sessionStore) delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.entries[id]; !ok {
		return false
	}
	delete(st.entries, id)
	return true
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries)
}

func (st *sessionStore) evictLocked() bool {
	var victim string
	var oldest time.Time
	for id, e := range st.entries {
		if e.session.State() == session.StateTranslating {
			continue
		}
		if victim == "" || e.lastAccess.Before(oldest) {
			victim, oldest = id, e.lastAccess
		}
	}
	if victim == "" {
		return false
	}
	st.factory.logger.Info("Evicting session %s (idle since %s)", victim, oldest.Format(core.TimeFormatDateTime))
	delete(st.entries, victim)
	return true
}
