// Package redis persists conversations in Redis so multiple replicas can
// serve the same conversation.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/zweadfx/assist/pkg/domain"
)

// indexHorizon scores entries without a TTL far into the future so lazy
// cleanup never prunes them.
const indexHorizon = 4102444800 // 2100-01-01

// Store implements ports.ConversationStore on Redis. Histories are stored as
// JSON values; a ZSET index scored by expiry supports listing with lazy
// cleanup.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the store.
type Option func(*Store)

// WithTTL sets the conversation expiration. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a store over an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "assist:conversation:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(conversationID string) string {
	return s.prefix + conversationID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the history and refreshes the index entry.
func (s *Store) Save(ctx context.Context, conversationID string, history []domain.Message) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	score := float64(indexHorizon)
	if s.ttl > 0 {
		score = float64(time.Now().Add(s.ttl).Unix())
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(conversationID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: conversationID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// Load retrieves the history for a conversation ID.
func (s *Store) Load(ctx context.Context, conversationID string) ([]domain.Message, error) {
	val, err := s.client.Get(ctx, s.key(conversationID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	var history []domain.Message
	if err := json.Unmarshal([]byte(val), &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return history, nil
}

// Delete removes the conversation and its index entry.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(conversationID))
	pipe.ZRem(ctx, s.indexKey(), conversationID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the stored conversation IDs, pruning expired index entries
// first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired conversations: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return ids, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
