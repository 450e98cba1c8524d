package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zweadfx/assist/internal/logging"
	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/ports"
)

// defaultLockTTL bounds how long a crashed replica can hold a conversation.
const defaultLockTTL = 30 * time.Second

// lockEntry holds the per-conversation mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to conversations. A per-ID mutex guards local
// concurrency; an optional distributed locker extends the guarantee across
// replicas. Locks are reference counted so idle conversations cost nothing.
type Manager struct {
	store ports.ConversationStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for deferred errors.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a conversation manager over the given store.
func NewManager(store ports.ConversationStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: defaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) acquire(conversationID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[conversationID]
	if !ok {
		entry = &lockEntry{}
		m.locks[conversationID] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[conversationID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, conversationID)
	}
}

// Load retrieves an existing conversation under its lock.
func (m *Manager) Load(ctx context.Context, conversationID string) ([]domain.Message, error) {
	var history []domain.Message
	err := m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		var err error
		history, err = m.store.Load(ctx, conversationID)
		return err
	})
	return history, err
}

// LoadOrStart loads a conversation, starting an empty one if it does not
// exist yet.
func (m *Manager) LoadOrStart(ctx context.Context, conversationID string) ([]domain.Message, error) {
	var history []domain.Message
	err := m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		var err error
		history, err = m.store.Load(ctx, conversationID)
		if err == nil {
			return nil
		}
		if err != domain.ErrConversationNotFound {
			return fmt.Errorf("failed to check conversation existence: %w", err)
		}

		history = nil
		// Persist immediately to reserve the ID.
		if err := m.store.Save(ctx, conversationID, history); err != nil {
			return fmt.Errorf("failed to initialize conversation: %w", err)
		}
		return nil
	})
	return history, err
}

// Save persists the conversation under its lock.
func (m *Manager) Save(ctx context.Context, conversationID string, history []domain.Message) error {
	return m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		return m.store.Save(ctx, conversationID, history)
	})
}

// Delete removes the conversation under its lock.
func (m *Manager) Delete(ctx context.Context, conversationID string) error {
	return m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		return m.store.Delete(ctx, conversationID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying conversation store.
func (m *Manager) Store() ports.ConversationStore {
	return m.store
}

// WithLock executes fn while holding the conversation's lock, local first and
// distributed second when configured.
func (m *Manager) WithLock(ctx context.Context, conversationID string, fn func(context.Context) error) error {
	entry := m.acquire(conversationID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(conversationID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, conversationID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"conversation_id", conversationID,
					"err", err)
			}
		}()
	}

	return fn(ctx)
}
