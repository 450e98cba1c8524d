package ports

import (
	"context"
	"time"

	"github.com/zweadfx/assist/pkg/domain"
)

// ConversationStore persists conversation history across requests.
// The orchestration core never touches it directly; the facade loads prior
// history before a request and saves the updated history after finalization.
type ConversationStore interface {
	// Save persists the history for a conversation ID.
	Save(ctx context.Context, conversationID string, history []domain.Message) error

	// Load retrieves the history for a conversation ID.
	// Returns domain.ErrConversationNotFound if the conversation does not exist.
	Load(ctx context.Context, conversationID string) ([]domain.Message, error)

	// Delete removes the conversation.
	Delete(ctx context.Context, conversationID string) error

	// List returns the IDs of stored conversations.
	List(ctx context.Context) ([]string, error)
}

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates conversation access across replicas.
type DistributedLocker interface {
	// Lock acquires a distributed lock for the given key. It blocks until
	// the lock is acquired or the context is canceled. The returned
	// UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
