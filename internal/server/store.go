package server

import (
	"errors"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/casinoholdem/internal/game"
)

var (
	// ErrSessionNotFound is returned for an unknown or expired session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions is returned when the store is full of active sessions.
	ErrTooManySessions = errors.New("too many sessions")
)

// Store keeps sessions in memory and drops them once idle.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
	clock    quartz.Clock
	idle     time.Duration
	max      int
}

// NewStore creates an empty store.
func NewStore(clock quartz.Clock, idle time.Duration, max int) *Store {
	return &Store{
		sessions: make(map[string]*game.Session),
		clock:    clock,
		idle:     idle,
		max:      max,
	}
}

// Add registers a session, evicting idle sessions first when full.
func (st *Store) Add(s *game.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.sessions) >= st.max {
		st.expireLocked()
	}
	if len(st.sessions) >= st.max {
		return ErrTooManySessions
	}
	st.sessions[s.ID()] = s
	return nil
}

// Get returns the session with the given ID.
func (st *Store) Get(id string) (*game.Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok || st.expired(s) {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove deletes a session.
func (st *Store) Remove(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of stored sessions, idle or not.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Expire drops every idle session and returns their IDs.
func (st *Store) Expire() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.expireLocked()
}

func (st *Store) expireLocked() []string {
	var ids []string
	for id, s := range st.sessions {
		if st.expired(s) {
			delete(st.sessions, id)
			ids = append(ids, id)
		}
	}
	return ids
}

func (st *Store) expired(s *game.Session) bool {
	return st.clock.Since(s.LastActive()) >= st.idle
}
