package flow

import (
	"context"
	"sync"
)

var _ SessionStore = (*MemoryStore)(nil)

// MemoryStore is a process-local SessionStore. Used in dev mode and tests;
// production deployments use the Redis-backed store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]memoryRecord
}

type memoryRecord struct {
	state State
	sess  *Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]memoryRecord)}
}

func (m *MemoryStore) Get(_ context.Context, conversationID int64) (State, *Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[conversationID]
	if !ok {
		return StateIdle, &Session{}, nil
	}
	return rec.state, rec.sess.clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, conversationID int64, state State, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[conversationID] = memoryRecord{state: state, sess: sess.clone()}
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, conversationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, conversationID)
	return nil
}
