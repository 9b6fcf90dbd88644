package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

// SeedFunc loads runtime-written records into the reader's backing storage.
type SeedFunc func(t *testing.T, sessions []domain.Session, logs []domain.SessionLog)

// SessionReaderContractTest is a reusable test suite that verifies if an adapter complies with ports.SessionReader.
func SessionReaderContractTest(t *testing.T, reader ports.SessionReader, seed SeedFunc) {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := []domain.Session{
		{ID: "s-old", ChatbotID: "bot-1", ContactPhone: "+5511900000001", CurrentStep: "goodbye", Status: domain.SessionCompleted, StartedAt: base, UpdatedAt: base},
		{ID: "s-new", ChatbotID: "bot-1", ContactPhone: "+5511900000002", CurrentStep: "main_menu", Attempts: 1, Status: domain.SessionActive, StartedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
		{ID: "s-other", ChatbotID: "bot-2", ContactPhone: "+5511900000003", CurrentStep: "greeting", Status: domain.SessionExpired, StartedAt: base, UpdatedAt: base},
	}
	logs := []domain.SessionLog{
		{ID: "l-3", SessionID: "s-new", StepID: "main_menu", Direction: domain.DirectionInbound, Message: "9", CreatedAt: base.Add(time.Hour + 2*time.Minute)},
		{ID: "l-1", SessionID: "s-new", StepID: "greeting", Direction: domain.DirectionOutbound, Message: "Olá!", CreatedAt: base.Add(time.Hour)},
		{ID: "l-2", SessionID: "s-new", StepID: "main_menu", Direction: domain.DirectionOutbound, Message: "Menu", CreatedAt: base.Add(time.Hour + time.Minute)},
	}
	seed(t, sessions, logs)

	// 1. Sessions of a chatbot, most recent first
	t.Run("ListSessions", func(t *testing.T) {
		got, err := reader.ListSessions(ctx, "bot-1")
		if err != nil {
			t.Fatalf("unexpected error listing sessions: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 sessions, got %d", len(got))
		}
		if got[0].ID != "s-new" || got[1].ID != "s-old" {
			t.Errorf("expected [s-new s-old], got [%s %s]", got[0].ID, got[1].ID)
		}
		if got[0].Status != domain.SessionActive || got[0].Attempts != 1 {
			t.Errorf("session fields not preserved: %+v", got[0])
		}
	})

	// 2. Unknown chatbot
	t.Run("ListSessions_Unknown", func(t *testing.T) {
		got, err := reader.ListSessions(ctx, "no-such-bot")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no sessions, got %d", len(got))
		}
	})

	// 3. Logs in chronological order
	t.Run("ListSessionLogs", func(t *testing.T) {
		got, err := reader.ListSessionLogs(ctx, "s-new", 0)
		if err != nil {
			t.Fatalf("unexpected error listing logs: %v", err)
		}
		want := []string{"l-1", "l-2", "l-3"}
		if len(got) != len(want) {
			t.Fatalf("expected %d logs, got %d", len(want), len(got))
		}
		for i, id := range want {
			if got[i].ID != id {
				t.Errorf("log %d: got %s, want %s", i, got[i].ID, id)
			}
		}
		if got[0].Direction != domain.DirectionOutbound || got[0].Message != "Olá!" {
			t.Errorf("log fields not preserved: %+v", got[0])
		}
	})

	// 4. Limit keeps the oldest entries
	t.Run("ListSessionLogs_Limit", func(t *testing.T) {
		got, err := reader.ListSessionLogs(ctx, "s-new", 2)
		if err != nil {
			t.Fatalf("unexpected error listing logs: %v", err)
		}
		if len(got) != 2 || got[0].ID != "l-1" || got[1].ID != "l-2" {
			t.Errorf("expected [l-1 l-2], got %+v", got)
		}
	})
}
