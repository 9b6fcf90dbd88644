package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Store implements ports.ChatbotStore and ports.SessionReader on the
// chatbots, chatbot_sessions and chatbot_session_logs tables.
type Store struct {
	db *sql.DB
}

// New wraps an open database. Run ApplyMigrations first.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const chatbotColumns = `id, tenant_id, name, company_name, flow_config, fallback_message, max_attempts, is_active, edit_mode, created_at, updated_at`

func (s *Store) Save(ctx context.Context, bot *domain.Chatbot) error {
	flow, err := encodeFlow(bot.FlowConfig)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chatbots (`+chatbotColumns+`)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			name = EXCLUDED.name,
			company_name = EXCLUDED.company_name,
			flow_config = EXCLUDED.flow_config,
			fallback_message = EXCLUDED.fallback_message,
			max_attempts = EXCLUDED.max_attempts,
			is_active = EXCLUDED.is_active,
			edit_mode = EXCLUDED.edit_mode,
			updated_at = EXCLUDED.updated_at
	`, bot.ID, bot.TenantID, bot.Name, bot.CompanyName, flow, bot.FallbackMessage,
		bot.MaxAttempts, bot.Active, string(bot.EditMode), bot.CreatedAt, bot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save chatbot %s: %w", bot.ID, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (*domain.Chatbot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+chatbotColumns+` FROM chatbots WHERE id=$1`, id)
	bot, err := scanChatbot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrChatbotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load chatbot %s: %w", id, err)
	}
	return bot, nil
}

func (s *Store) List(ctx context.Context, tenantID string) ([]*domain.Chatbot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chatbotColumns+` FROM chatbots
		WHERE $1::text = '' OR tenant_id = $1::text
		ORDER BY id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list chatbots: %w", err)
	}
	defer rows.Close()

	bots := []*domain.Chatbot{}
	for rows.Next() {
		bot, err := scanChatbot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chatbot: %w", err)
		}
		bots = append(bots, bot)
	}
	return bots, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chatbots WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete chatbot %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context, chatbotID string) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chatbot_id, contact_phone, current_step, attempts, status, started_at, updated_at
		FROM chatbot_sessions
		WHERE chatbot_id=$1
		ORDER BY started_at DESC, id
	`, chatbotID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := []domain.Session{}
	for rows.Next() {
		var item domain.Session
		var status string
		if err := rows.Scan(&item.ID, &item.ChatbotID, &item.ContactPhone, &item.CurrentStep,
			&item.Attempts, &status, &item.StartedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		item.Status = domain.SessionStatus(status)
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) ListSessionLogs(ctx context.Context, sessionID string, limit int) ([]domain.SessionLog, error) {
	query := `
		SELECT id, session_id, step_id, direction, message, created_at
		FROM chatbot_session_logs
		WHERE session_id=$1
		ORDER BY created_at, id
	`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list session logs: %w", err)
	}
	defer rows.Close()

	out := []domain.SessionLog{}
	for rows.Next() {
		var item domain.SessionLog
		var direction string
		if err := rows.Scan(&item.ID, &item.SessionID, &item.StepID, &direction, &item.Message, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session log: %w", err)
		}
		item.Direction = domain.LogDirection(direction)
		out = append(out, item)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChatbot(row scanner) (*domain.Chatbot, error) {
	var bot domain.Chatbot
	var flow []byte
	var mode string
	if err := row.Scan(&bot.ID, &bot.TenantID, &bot.Name, &bot.CompanyName, &flow, &bot.FallbackMessage,
		&bot.MaxAttempts, &bot.Active, &mode, &bot.CreatedAt, &bot.UpdatedAt); err != nil {
		return nil, err
	}
	bot.EditMode = domain.EditMode(mode)

	if len(flow) > 0 {
		var doc domain.FlowDocument
		if err := json.Unmarshal(flow, &doc); err != nil {
			return nil, fmt.Errorf("decode flow_config: %w", err)
		}
		bot.FlowConfig = &doc
	}
	return &bot, nil
}

// encodeFlow returns the JSON text of doc, or nil for a NULL column.
func encodeFlow(doc *domain.FlowDocument) (any, error) {
	if doc == nil {
		return nil, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode flow_config: %w", err)
	}
	return string(data), nil
}
