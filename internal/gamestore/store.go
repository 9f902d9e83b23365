// internal/gamestore/store.go
package gamestore

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jason-s-yu/onecard/internal/game"
	"github.com/jason-s-yu/onecard/internal/models"
)

// Session is one live game. All mutations go through Update, which holds
// the session mutex for the whole read-modify-write: the engine itself
// provides no cross-call ordering, so concurrent requests against the same
// game must serialize here.
type Session struct {
	ID uuid.UUID

	mu          sync.Mutex
	state       models.GameState
	subscribers map[chan models.GameState]struct{}
	actionIndex atomic.Int64
}

// Snapshot returns an independent copy of the current state.
func (s *Session) Snapshot() models.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update applies fn to the current state under the session lock and, on
// success, installs the returned state and notifies subscribers.
func (s *Session) Update(fn func(models.GameState) (models.GameState, error)) (models.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.state.Clone())
	if err != nil {
		return models.GameState{}, err
	}
	s.state = next
	snapshot := next.Clone()
	for ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default: // slow subscriber, drop rather than block the game
		}
	}
	return snapshot, nil
}

// Reset replaces the session's game with a freshly started one.
func (s *Session) Reset(settings models.GameSettings) (models.GameState, error) {
	return s.Update(func(models.GameState) (models.GameState, error) {
		return game.CreateStartedState(settings)
	})
}

// Subscribe registers a state-snapshot channel, seeded with the current
// state, and returns it with its unsubscribe function.
func (s *Session) Subscribe() (<-chan models.GameState, func()) {
	ch := make(chan models.GameState, 8)
	s.mu.Lock()
	if s.subscribers == nil {
		s.subscribers = make(map[chan models.GameState]struct{})
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.state.Clone()
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		delete(s.subscribers, ch)
		s.mu.Unlock()
	}
}

// NextActionIndex hands out a monotonically increasing per-session index
// for action records.
func (s *Session) NextActionIndex() int {
	return int(s.actionIndex.Add(1)) - 1
}

// Store is the in-memory session registry keyed by game id.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[uuid.UUID]*Session)}
}

// Create starts a new game from the given settings and registers it.
func (st *Store) Create(settings models.GameSettings) (*Session, error) {
	state, err := game.CreateStartedState(settings)
	if err != nil {
		return nil, err
	}
	session := &Session{ID: uuid.New(), state: state}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[session.ID] = session
	return session, nil
}

// Get looks up a session by id.
func (st *Store) Get(id uuid.UUID) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete drops a session. Unknown ids are a no-op.
func (st *Store) Delete(id uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}
