package editor_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/chatflow/internal/testutils"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/compiler"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/editor"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newEditor(t *testing.T, opts ...editor.Option) (*editor.Editor, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	opts = append([]editor.Option{
		editor.WithClock(func() time.Time { return fixedNow }),
		editor.WithIDGenerator(func() string { return "generated-id" }),
	}, opts...)
	return editor.New(store, opts...), store
}

func TestSave_Guided(t *testing.T) {
	ed, store := newEditor(t)
	ctx := context.Background()

	bot, err := ed.Save(ctx, editor.SaveRequest{
		TenantID:    "acme",
		Name:        "Pizzaria",
		CompanyName: "Pizzaria do Zé",
		Form:        testutils.SampleForm(),
	})
	require.NoError(t, err)

	assert.Equal(t, "generated-id", bot.ID)
	assert.Equal(t, domain.EditModeGuided, bot.EditMode)
	assert.Equal(t, domain.DefaultFallbackMessage, bot.FallbackMessage)
	assert.Equal(t, domain.DefaultMaxAttempts, bot.MaxAttempts)
	assert.True(t, bot.Active)
	assert.Equal(t, fixedNow, bot.CreatedAt)

	stored, err := store.Load(ctx, "generated-id")
	require.NoError(t, err)
	assert.Equal(t, compiler.BuildFlowFromMenu(testutils.SampleForm()).Steps, stored.FlowConfig.Steps)
	assert.Equal(t, domain.DefaultReplyMessage, stored.FlowConfig.Steps["opt_2"].Message)
}

func TestSave_GuidedRejectsEmptyOptions(t *testing.T) {
	ed, store := newEditor(t)
	ctx := context.Background()

	_, err := ed.Save(ctx, editor.SaveRequest{ChatbotID: "b1", Form: domain.AuthoringForm{GreetingMessage: "Oi"}})
	assert.ErrorIs(t, err, editor.ErrNoOptions)

	_, err = store.Load(ctx, "b1")
	assert.ErrorIs(t, err, domain.ErrChatbotNotFound, "nothing should be written")
}

func TestSave_RawPersistsVerbatim(t *testing.T) {
	ed, store := newEditor(t)
	ctx := context.Background()

	_, err := ed.Save(ctx, editor.SaveRequest{
		ChatbotID: "b1",
		Mode:      domain.EditModeRaw,
		RawFlow:   testutils.SampleRawFlow,
		Form:      domain.AuthoringForm{FallbackMessage: "Hã?", MaxAttempts: -1},
	})
	require.NoError(t, err)

	stored, err := store.Load(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, domain.EditModeRaw, stored.EditMode)
	assert.Equal(t, "Hã?", stored.FallbackMessage)
	assert.Equal(t, domain.DefaultMaxAttempts, stored.MaxAttempts)

	doc := stored.FlowConfig
	assert.Equal(t, "whatsapp", doc.Extra["channel"])
	assert.Len(t, doc.Steps, 4)
	assert.Equal(t, "120", doc.Steps["plans"].Extra["timeoutSeconds"].(interface{ String() string }).String())
	assert.Equal(t, true, doc.Steps["plans"].Options[1].Extra["hidden"])
	assert.Equal(t, 9, doc.Steps["plans"].Options[1].ID)

	expected, err := validator.ValidateFlowDocument(testutils.SampleRawFlow)
	require.NoError(t, err)
	assert.Equal(t, expected, doc)
}

func TestSave_RawHandEditedDocumentRoundTrips(t *testing.T) {
	ed, store := newEditor(t)
	ctx := context.Background()

	raw := `{
		"startStep": "menu",
		"steps": {
			"menu": {"type": "menu", "options": [
				{"text": "Sem id", "next": "bye"},
				{"id": "b", "text": "Id em texto", "next": "bye"},
				{"id": 5, "text": "Fora de ordem", "next": "menu"}
			]},
			"bye": {"type": "end"}
		}
	}`

	_, err := ed.Save(ctx, editor.SaveRequest{ChatbotID: "hand", Mode: domain.EditModeRaw, RawFlow: raw})
	require.NoError(t, err)

	stored, err := store.Load(ctx, "hand")
	require.NoError(t, err)
	out, err := json.Marshal(stored.FlowConfig)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))

	session, err := ed.Open(ctx, "hand")
	require.NoError(t, err)
	assert.Empty(t, session.Form.Options, "no main_menu step, so nothing maps back to the form")
}

func TestSave_RawYAML(t *testing.T) {
	ed, _ := newEditor(t)

	bot, err := ed.Save(context.Background(), editor.SaveRequest{
		Mode:    domain.EditModeRaw,
		Format:  compiler.FormatYAML,
		RawFlow: "startStep: bye\nsteps:\n  bye:\n    type: end\n    message: Tchau\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tchau", bot.FlowConfig.Steps["bye"].Message)
}

func TestSave_FailuresLeaveStoredRecordIntact(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"malformed text", `{"startStep": "greeting", "steps": {`, domain.ErrMalformedDocument},
		{"dangling reference", strings.Replace(testutils.SampleRawFlow, `"next": "plans"`, `"next": "does_not_exist"`, 1), domain.ErrInvalidDocument},
		{"unknown type", strings.Replace(testutils.SampleRawFlow, `"type": "end"`, `"type": "handoff"`, 1), domain.ErrInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rejected []*domain.FlowEvent
			ed, store := newEditor(t, editor.WithLifecycleHooks(domain.LifecycleHooks{
				OnRejected: func(_ context.Context, ev *domain.FlowEvent) { rejected = append(rejected, ev) },
			}))

			original, err := ed.Save(ctx, editor.SaveRequest{ChatbotID: "b1", Form: testutils.SampleForm()})
			require.NoError(t, err)

			_, err = ed.Save(ctx, editor.SaveRequest{ChatbotID: "b1", Mode: domain.EditModeRaw, RawFlow: tt.raw})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			stored, err := store.Load(ctx, "b1")
			require.NoError(t, err)
			assert.Equal(t, original.FlowConfig, stored.FlowConfig)
			assert.Equal(t, domain.EditModeGuided, stored.EditMode)

			require.Len(t, rejected, 1)
			assert.Equal(t, domain.EventFlowRejected, rejected[0].Type)
			assert.ErrorIs(t, rejected[0].Err, tt.wantErr)
		})
	}
}

func TestSave_MalformedAndInvalidAreDistinguishable(t *testing.T) {
	ed, _ := newEditor(t)
	ctx := context.Background()

	_, malformed := ed.Save(ctx, editor.SaveRequest{Mode: domain.EditModeRaw, RawFlow: "{"})
	_, invalid := ed.Save(ctx, editor.SaveRequest{Mode: domain.EditModeRaw, RawFlow: `{"startStep": "x", "steps": {}}`})

	assert.True(t, errors.Is(malformed, domain.ErrMalformedDocument))
	assert.False(t, errors.Is(malformed, domain.ErrInvalidDocument))
	assert.True(t, errors.Is(invalid, domain.ErrInvalidDocument))
	assert.False(t, errors.Is(invalid, domain.ErrMalformedDocument))

	var verr *validator.ValidationError
	require.ErrorAs(t, invalid, &verr)
	assert.Equal(t, "steps", verr.Path)
}

func TestSave_UnknownMode(t *testing.T) {
	ed, _ := newEditor(t)
	_, err := ed.Save(context.Background(), editor.SaveRequest{Mode: "visual"})
	assert.ErrorIs(t, err, editor.ErrUnknownMode)
}

func TestSave_UpdateKeepsIdentityFields(t *testing.T) {
	ed, _ := newEditor(t)
	ctx := context.Background()

	first, err := ed.Save(ctx, editor.SaveRequest{ChatbotID: "b1", TenantID: "acme", Name: "Bot", CompanyName: "Acme", Form: testutils.SampleForm()})
	require.NoError(t, err)

	later := fixedNow.Add(time.Hour)
	ed2 := editor.New(ed.Store(), editor.WithClock(func() time.Time { return later }))

	second, err := ed2.Save(ctx, editor.SaveRequest{ChatbotID: "b1", Mode: domain.EditModeRaw, RawFlow: testutils.SampleRawFlow})
	require.NoError(t, err)

	assert.Equal(t, "acme", second.TenantID)
	assert.Equal(t, "Bot", second.Name)
	assert.Equal(t, "Acme", second.CompanyName)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, later, second.UpdatedAt)
}

func TestOpen_DerivesBothSurfaces(t *testing.T) {
	ed, _ := newEditor(t)
	ctx := context.Background()

	form := testutils.SampleForm()
	form.FallbackMessage = "Não entendi"
	form.MaxAttempts = 4
	_, err := ed.Save(ctx, editor.SaveRequest{ChatbotID: "b1", Form: form})
	require.NoError(t, err)

	session, err := ed.Open(ctx, "b1")
	require.NoError(t, err)

	assert.Equal(t, domain.EditModeGuided, session.Mode)
	assert.Equal(t, form.GreetingMessage, session.Form.GreetingMessage)
	assert.Equal(t, "Não entendi", session.Form.FallbackMessage)
	assert.Equal(t, 4, session.Form.MaxAttempts)
	require.Len(t, session.Form.Options, 2)
	assert.Equal(t, "Cardápio", session.Form.Options[0].Text)
	assert.Equal(t, domain.DefaultReplyMessage, session.Form.Options[1].Reply)
	assert.Contains(t, session.RawFlow, `"startStep": "greeting"`)
	assert.Empty(t, session.Warnings)

	reparsed, err := validator.ValidateFlowDocument(session.RawFlow)
	require.NoError(t, err)
	assert.Equal(t, session.Chatbot.FlowConfig, reparsed)
}

func TestOpen_RawDocumentDegradesSilently(t *testing.T) {
	ed, _ := newEditor(t)
	ctx := context.Background()

	raw := `{"startStep": "inicio", "steps": {
		"inicio": {"type": "menu", "message": "m", "options": [{"id": 1, "text": "fim", "next": "fim"}]},
		"fim": {"type": "end", "message": "tchau"},
		"solto": {"type": "end", "message": "?"}
	}}`
	_, err := ed.Save(ctx, editor.SaveRequest{ChatbotID: "b1", Mode: domain.EditModeRaw, RawFlow: raw})
	require.NoError(t, err)

	session, err := ed.Open(ctx, "b1")
	require.NoError(t, err)

	assert.Equal(t, domain.EditModeRaw, session.Mode)
	assert.NotNil(t, session.Form.Options)
	assert.Empty(t, session.Form.Options)
	assert.Equal(t, []string{`step "solto" is unreachable from "inicio"`}, session.Warnings)
}

func TestOpen_NotFound(t *testing.T) {
	ed, _ := newEditor(t)
	_, err := ed.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrChatbotNotFound)
}

func TestDelete(t *testing.T) {
	var deleted []string
	ed, store := newEditor(t, editor.WithLifecycleHooks(domain.LifecycleHooks{
		OnDeleted: func(_ context.Context, ev *domain.FlowEvent) { deleted = append(deleted, ev.ChatbotID) },
	}))
	ctx := context.Background()

	_, err := ed.Save(ctx, editor.SaveRequest{ChatbotID: "b1", Form: testutils.SampleForm()})
	require.NoError(t, err)

	require.NoError(t, ed.Delete(ctx, "b1"))
	_, err = store.Load(ctx, "b1")
	assert.ErrorIs(t, err, domain.ErrChatbotNotFound)
	assert.Equal(t, []string{"b1"}, deleted)
}

type recordingLocker struct {
	mu     sync.Mutex
	keys   []string
	unlock int
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.unlock++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestSave_UsesLockerOnlyForValidDocuments(t *testing.T) {
	locker := &recordingLocker{}
	ed, _ := newEditor(t, editor.WithLocker(locker))
	ctx := context.Background()

	_, err := ed.Save(ctx, editor.SaveRequest{ChatbotID: "b1", Form: testutils.SampleForm()})
	require.NoError(t, err)
	_, err = ed.Save(ctx, editor.SaveRequest{ChatbotID: "b1", Mode: domain.EditModeRaw, RawFlow: "{"})
	require.Error(t, err)

	assert.Equal(t, []string{"chatbot:b1"}, locker.keys)
	assert.Equal(t, 1, locker.unlock)
}

func TestCheck_ReturnsLintWarnings(t *testing.T) {
	ed, _ := newEditor(t)

	doc, warnings, err := ed.Check(`{"startStep": "a", "steps": {"a": {"type": "end"}, "b": {"type": "end"}}}`, "")
	require.NoError(t, err)
	assert.Equal(t, "a", doc.StartStep)
	assert.Equal(t, []string{`step "b" is unreachable from "a"`}, warnings)
}

func TestPreview(t *testing.T) {
	ed, _ := newEditor(t)

	doc, err := ed.Preview(testutils.SampleForm())
	require.NoError(t, err)
	assert.Equal(t, domain.StepGreeting, doc.StartStep)

	_, err = ed.Preview(domain.AuthoringForm{})
	assert.ErrorIs(t, err, editor.ErrNoOptions)
}

func TestSave_ReportsFlowDiff(t *testing.T) {
	var diffs []*domain.FlowDiff
	ed, _ := newEditor(t, editor.WithLifecycleHooks(domain.LifecycleHooks{
		OnSaved: func(_ context.Context, ev *domain.FlowEvent) { diffs = append(diffs, ev.Diff) },
	}))
	ctx := context.Background()

	form := testutils.SampleForm()
	_, err := ed.Save(ctx, editor.SaveRequest{ChatbotID: "b1", Form: form})
	require.NoError(t, err)

	_, err = ed.Save(ctx, editor.SaveRequest{ChatbotID: "b1", Form: form})
	require.NoError(t, err)

	form.GreetingMessage = "Bem-vindo de volta!"
	_, err = ed.Save(ctx, editor.SaveRequest{ChatbotID: "b1", Form: form})
	require.NoError(t, err)

	require.Len(t, diffs, 3)
	require.NotNil(t, diffs[0])
	assert.Contains(t, diffs[0].Added, domain.StepGreeting)
	assert.Nil(t, diffs[1], "an identical save changes nothing")
	require.NotNil(t, diffs[2])
	assert.Equal(t, []string{domain.StepGreeting}, diffs[2].Changed)
}

func TestSave_ConcurrentWithProcessLocker(t *testing.T) {
	store := memory.NewStore()
	locker := memory.NewLocker()
	ed := editor.New(store, editor.WithLocker(locker))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ed.Save(ctx, editor.SaveRequest{ChatbotID: "shared", Form: testutils.SampleForm()})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err := store.Load(ctx, "shared")
	require.NoError(t, err)
	assert.Zero(t, locker.Held())
}
