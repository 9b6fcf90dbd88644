// Package sqlite persists chatbot records in a local SQLite file.
//
// It expects an *sql.DB that uses the "modernc.org/sqlite" driver; Open
// registers it. Timestamps are stored as fixed-width UTC text so that
// lexical and chronological order agree.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements ports.ChatbotStore and ports.SessionReader on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and prepares the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New initializes the required schema in db and returns a Store.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS chatbots (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			company_name TEXT NOT NULL DEFAULT '',
			flow_config TEXT,
			fallback_message TEXT NOT NULL DEFAULT '',
			max_attempts INTEGER NOT NULL DEFAULT 3,
			is_active INTEGER NOT NULL DEFAULT 1,
			edit_mode TEXT NOT NULL DEFAULT 'guided',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS chatbots_tenant_id_idx ON chatbots (tenant_id);

		CREATE TABLE IF NOT EXISTS chatbot_sessions (
			id TEXT PRIMARY KEY,
			chatbot_id TEXT NOT NULL,
			contact_phone TEXT NOT NULL,
			current_step TEXT NOT NULL DEFAULT '',
			attempts INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			started_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS chatbot_sessions_chatbot_id_idx ON chatbot_sessions (chatbot_id, started_at);

		CREATE TABLE IF NOT EXISTS chatbot_session_logs (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			step_id TEXT NOT NULL DEFAULT '',
			direction TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS chatbot_session_logs_session_id_idx ON chatbot_session_logs (session_id, created_at);`,
	)
	return err
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
	var flow sql.NullString
	if bot.FlowConfig != nil {
		data, err := json.Marshal(bot.FlowConfig)
		if err != nil {
			return fmt.Errorf("encode flow_config: %w", err)
		}
		flow = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chatbots (`+chatbotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			name = excluded.name,
			company_name = excluded.company_name,
			flow_config = excluded.flow_config,
			fallback_message = excluded.fallback_message,
			max_attempts = excluded.max_attempts,
			is_active = excluded.is_active,
			edit_mode = excluded.edit_mode,
			updated_at = excluded.updated_at`,
		bot.ID, bot.TenantID, bot.Name, bot.CompanyName, flow, bot.FallbackMessage,
		bot.MaxAttempts, bot.Active, string(bot.EditMode), FormatTime(bot.CreatedAt), FormatTime(bot.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save chatbot %s: %w", bot.ID, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (*domain.Chatbot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+chatbotColumns+` FROM chatbots WHERE id = ?`, id)
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
		WHERE ?1 = '' OR tenant_id = ?1
		ORDER BY id`, tenantID)
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
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chatbots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete chatbot %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context, chatbotID string) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chatbot_id, contact_phone, current_step, attempts, status, started_at, updated_at
		FROM chatbot_sessions
		WHERE chatbot_id = ?
		ORDER BY started_at DESC, id`, chatbotID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := []domain.Session{}
	for rows.Next() {
		var item domain.Session
		var status, started, updated string
		if err := rows.Scan(&item.ID, &item.ChatbotID, &item.ContactPhone, &item.CurrentStep,
			&item.Attempts, &status, &started, &updated); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		item.Status = domain.SessionStatus(status)
		if item.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if item.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) ListSessionLogs(ctx context.Context, sessionID string, limit int) ([]domain.SessionLog, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, step_id, direction, message, created_at
		FROM chatbot_session_logs
		WHERE session_id = ?
		ORDER BY created_at, id
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list session logs: %w", err)
	}
	defer rows.Close()

	out := []domain.SessionLog{}
	for rows.Next() {
		var item domain.SessionLog
		var direction, created string
		if err := rows.Scan(&item.ID, &item.SessionID, &item.StepID, &direction, &item.Message, &created); err != nil {
			return nil, fmt.Errorf("scan session log: %w", err)
		}
		item.Direction = domain.LogDirection(direction)
		if item.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// FormatTime renders t the way this store writes timestamp columns.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChatbot(row scanner) (*domain.Chatbot, error) {
	var bot domain.Chatbot
	var flow sql.NullString
	var mode, created, updated string
	if err := row.Scan(&bot.ID, &bot.TenantID, &bot.Name, &bot.CompanyName, &flow, &bot.FallbackMessage,
		&bot.MaxAttempts, &bot.Active, &mode, &created, &updated); err != nil {
		return nil, err
	}
	bot.EditMode = domain.EditMode(mode)

	var err error
	if bot.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if bot.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}

	if flow.Valid && flow.String != "" {
		var doc domain.FlowDocument
		if err := json.Unmarshal([]byte(flow.String), &doc); err != nil {
			return nil, fmt.Errorf("decode flow_config: %w", err)
		}
		bot.FlowConfig = &doc
	}
	return &bot, nil
}
