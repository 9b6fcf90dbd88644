package ports

import (
	"context"

	"github.com/aretw0/chatflow/pkg/domain"
)

// ChatbotStore defines the interface for persisting chatbot records.
// The FlowDocument travels as an opaque structured value and must come back
// with its unknown fields intact.
type ChatbotStore interface {
	// Save creates or replaces the record with bot.ID.
	Save(ctx context.Context, bot *domain.Chatbot) error

	// Load retrieves a record by id.
	// Returns domain.ErrChatbotNotFound if the record does not exist.
	Load(ctx context.Context, id string) (*domain.Chatbot, error)

	// List returns the records of a tenant ordered by id.
	// An empty tenantID lists every record.
	List(ctx context.Context, tenantID string) ([]*domain.Chatbot, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error
}

// SessionReader exposes the conversation records written by the runtime.
// chatflow never writes them.
type SessionReader interface {
	// ListSessions returns the sessions of a chatbot, most recent first.
	ListSessions(ctx context.Context, chatbotID string) ([]domain.Session, error)

	// ListSessionLogs returns up to limit log entries of a session in
	// chronological order. A limit <= 0 returns every entry.
	ListSessionLogs(ctx context.Context, sessionID string, limit int) ([]domain.SessionLog, error)
}
