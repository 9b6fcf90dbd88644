package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Store implements ports.ChatbotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists the record in memory.
// Records are kept in their JSON form so callers never share mutable state with the store.
func (s *Store) Save(ctx context.Context, bot *domain.Chatbot) error {
	data, err := json.Marshal(bot)
	if err != nil {
		return fmt.Errorf("failed to marshal chatbot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[bot.ID] = data
	return nil
}

// Load retrieves a record from memory.
func (s *Store) Load(ctx context.Context, id string) (*domain.Chatbot, error) {
	s.mu.RLock()
	data, ok := s.data[id]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrChatbotNotFound
	}
	return decode(data)
}

// List returns the records of a tenant ordered by id.
func (s *Store) List(ctx context.Context, tenantID string) ([]*domain.Chatbot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bots := make([]*domain.Chatbot, 0, len(s.data))
	for _, data := range s.data {
		bot, err := decode(data)
		if err != nil {
			return nil, err
		}
		if tenantID != "" && bot.TenantID != tenantID {
			continue
		}
		bots = append(bots, bot)
	}

	sort.Slice(bots, func(i, j int) bool { return bots[i].ID < bots[j].ID })
	return bots, nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func decode(data []byte) (*domain.Chatbot, error) {
	var bot domain.Chatbot
	if err := json.Unmarshal(data, &bot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chatbot: %w", err)
	}
	return &bot, nil
}
