package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/chatflow/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.ChatbotStore using Redis.
//
// Each record is a JSON string under <prefix>chatbot:<id>. Two sorted sets with a
// constant score keep ids in lexical order: one global index and one per tenant.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix for records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "chatflow:",
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share the connection.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(id string) string {
	return s.prefix + "chatbot:" + id
}

func (s *Store) indexKey() string {
	return s.prefix + "chatbots"
}

func (s *Store) tenantKey(tenantID string) string {
	return s.prefix + "tenant:" + tenantID + ":chatbots"
}

// Save persists the record to Redis.
func (s *Store) Save(ctx context.Context, bot *domain.Chatbot) error {
	data, err := json.Marshal(bot)
	if err != nil {
		return fmt.Errorf("failed to marshal chatbot: %w", err)
	}

	// A record moving between tenants must leave the old tenant index.
	previous, err := s.Load(ctx, bot.ID)
	if err != nil && !errors.Is(err, domain.ErrChatbotNotFound) {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(bot.ID), data, 0)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: 0, Member: bot.ID})
	if previous != nil && previous.TenantID != bot.TenantID {
		pipe.ZRem(ctx, s.tenantKey(previous.TenantID), bot.ID)
	}
	pipe.ZAdd(ctx, s.tenantKey(bot.TenantID), backend.Z{Score: 0, Member: bot.ID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the record from Redis.
func (s *Store) Load(ctx context.Context, id string) (*domain.Chatbot, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrChatbotNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var bot domain.Chatbot
	if err := json.Unmarshal([]byte(val), &bot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chatbot: %w", err)
	}
	return &bot, nil
}

// List returns the records of a tenant (or all records) in id order.
// Ids whose record vanished since indexing are skipped.
func (s *Store) List(ctx context.Context, tenantID string) ([]*domain.Chatbot, error) {
	index := s.indexKey()
	if tenantID != "" {
		index = s.tenantKey(tenantID)
	}

	ids, err := s.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list chatbots: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Chatbot{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chatbots: %w", err)
	}

	bots := make([]*domain.Chatbot, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var bot domain.Chatbot
		if err := json.Unmarshal([]byte(raw), &bot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chatbot: %w", err)
		}
		bots = append(bots, &bot)
	}
	return bots, nil
}

// Delete removes the record and its index entries.
func (s *Store) Delete(ctx context.Context, id string) error {
	previous, err := s.Load(ctx, id)
	if errors.Is(err, domain.ErrChatbotNotFound) {
		return s.client.ZRem(ctx, s.indexKey(), id).Err()
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	pipe.ZRem(ctx, s.tenantKey(previous.TenantID), id)

	_, err = pipe.Exec(ctx)
	return err
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
