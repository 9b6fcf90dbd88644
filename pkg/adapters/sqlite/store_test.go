package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/chatflow/pkg/adapters/sqlite"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("sqlite.Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunChatbotStoreContract(t, newTestStore(t))
}

func TestSQLiteSessions_Contract(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests.SessionReaderContractTest(t, store, func(t *testing.T, sessions []domain.Session, logs []domain.SessionLog) {
		for _, s := range sessions {
			_, err := store.DB().ExecContext(ctx, `
				INSERT INTO chatbot_sessions (id, chatbot_id, contact_phone, current_step, attempts, status, started_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				s.ID, s.ChatbotID, s.ContactPhone, s.CurrentStep, s.Attempts, string(s.Status),
				sqlite.FormatTime(s.StartedAt), sqlite.FormatTime(s.UpdatedAt))
			require.NoError(t, err)
		}
		for _, l := range logs {
			_, err := store.DB().ExecContext(ctx, `
				INSERT INTO chatbot_session_logs (id, session_id, step_id, direction, message, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				l.ID, l.SessionID, l.StepID, string(l.Direction), l.Message, sqlite.FormatTime(l.CreatedAt))
			require.NoError(t, err)
		}
	})
}

func TestSQLiteStore_ReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatflow.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, &domain.Chatbot{ID: "b1", TenantID: "t1", Name: "Persistente"}))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	bot, err := reopened.Load(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Persistente", bot.Name)
	assert.Nil(t, bot.FlowConfig)
}
