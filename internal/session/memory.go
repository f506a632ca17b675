package session

import (
	"context"
	"sync"

	"propalyst/internal/model"
)

// MemoryStore keeps sessions in process memory. State is lost on restart,
// which is acceptable for single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.ConversationState
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*model.ConversationState),
	}
}

func (s *MemoryStore) GetOrCreate(_ context.Context, sessionID string) (*model.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.sessions[sessionID]; ok {
		return state, nil
	}
	state := model.NewConversationState(sessionID)
	s.sessions[sessionID] = state
	return state, nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*model.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return state, nil
}

func (s *MemoryStore) Put(_ context.Context, state *model.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[state.SessionID] = state
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions), nil
}
