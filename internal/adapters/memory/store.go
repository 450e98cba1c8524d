// Package memory provides an in-process conversation store for single-node
// deployments and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/zweadfx/assist/pkg/domain"
)

// Store implements ports.ConversationStore with a mutex-guarded map.
type Store struct {
	mu            sync.RWMutex
	conversations map[string][]domain.Message
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		conversations: make(map[string][]domain.Message),
	}
}

// Save stores a copy of the history so later caller mutations don't leak in.
func (s *Store) Save(_ context.Context, conversationID string, history []domain.Message) error {
	cp := make([]domain.Message, len(history))
	copy(cp, history)

	s.mu.Lock()
	s.conversations[conversationID] = cp
	s.mu.Unlock()
	return nil
}

// Load returns a copy of the stored history.
func (s *Store) Load(_ context.Context, conversationID string) ([]domain.Message, error) {
	s.mu.RLock()
	history, ok := s.conversations[conversationID]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrConversationNotFound
	}

	cp := make([]domain.Message, len(history))
	copy(cp, history)
	return cp, nil
}

// Delete removes the conversation. Deleting an absent ID is a no-op.
func (s *Store) Delete(_ context.Context, conversationID string) error {
	s.mu.Lock()
	delete(s.conversations, conversationID)
	s.mu.Unlock()
	return nil
}

// List returns the stored conversation IDs in lexical order.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids, nil
}
