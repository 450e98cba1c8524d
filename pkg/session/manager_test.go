package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zweadfx/assist/internal/adapters/memory"
	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/ports"
	"github.com/zweadfx/assist/pkg/session"
)

// slowStore adds latency to provoke races if locking is missing.
type slowStore struct {
	mu   sync.Mutex
	data map[string][]domain.Message
}

func (s *slowStore) Save(_ context.Context, id string, history []domain.Message) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string][]domain.Message)
	}
	s.data[id] = history
	return nil
}

func (s *slowStore) Load(_ context.Context, id string) ([]domain.Message, error) {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if history, ok := s.data[id]; ok {
		return history, nil
	}
	return nil, domain.ErrConversationNotFound
}

func (s *slowStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *slowStore) List(_ context.Context) ([]string, error) {
	return nil, nil
}

func TestManagerSerializesWrites(t *testing.T) {
	manager := session.NewManager(&slowStore{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Save(ctx, "conv-race",
				[]domain.Message{{Role: domain.RoleUser, Content: "hello"}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestManagerLoadOrStart(t *testing.T) {
	manager := session.NewManager(&slowStore{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.LoadOrStart(ctx, "conv-init")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// The ID is reserved even though the history is still empty.
	history, err := manager.Load(ctx, "conv-init")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestManagerRoundTrip(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	history := []domain.Message{
		{Role: domain.RoleUser, Content: "which shoes"},
		{Role: domain.RoleAssistant, Content: "these ones"},
	}
	require.NoError(t, manager.Save(ctx, "conv-1", history))

	loaded, err := manager.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, history, loaded)

	require.NoError(t, manager.Delete(ctx, "conv-1"))
	_, err = manager.Load(ctx, "conv-1")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

// countingLocker records lock acquisitions.
type countingLocker struct {
	mu    sync.Mutex
	locks int
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locks++
	l.mu.Unlock()
	return func(context.Context) error { return nil }, nil
}

func TestManagerUsesDistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker))

	require.NoError(t, manager.Save(context.Background(), "conv-1", nil))
	assert.Equal(t, 1, locker.locks)
}
