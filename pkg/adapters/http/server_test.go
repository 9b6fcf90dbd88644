package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/chatflow/internal/testutils"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler  http.Handler
	store    *memory.Store
	sessions *memory.Sessions
	metrics  *Metrics
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.NewStore(),
		sessions: memory.NewSessions(),
		metrics:  NewMetrics(),
	}
	ed := editor.New(f.store, editor.WithLifecycleHooks(f.metrics.Hooks()))

	all := append([]Option{WithSessionReader(f.sessions), WithMetrics(f.metrics)}, opts...)
	h, err := NewHandler(ed, all...)
	require.NoError(t, err)
	f.handler = h
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/flows/validate"))
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]string](t, w)
	assert.Equal(t, "chatflow-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])

	w = f.do(t, http.MethodGet, "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/flows/build")
}

func TestBuildFlow(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/flows/build", testutils.SampleForm())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	doc := decode[domain.FlowDocument](t, w)
	assert.Equal(t, domain.StepGreeting, doc.StartStep)
	assert.Contains(t, doc.Steps, "opt_2")
}

func TestValidateFlow(t *testing.T) {
	f := newFixture(t)

	t.Run("Valid", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/flows/validate", RawDocumentRequest{Document: testutils.SampleRawFlow})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[ValidateResponse](t, w)
		assert.True(t, resp.Valid)
		assert.Equal(t, "greeting", resp.Document.StartStep)
	})

	t.Run("Malformed Is 400", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/flows/validate", RawDocumentRequest{Document: `{"startStep": "greeting",`})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "malformed", decode[errorResponse](t, w).Kind)
	})

	t.Run("Dangling Reference Is 422", func(t *testing.T) {
		doc := `{"startStep":"main_menu","steps":{"main_menu":{"type":"menu","message":"m","options":[{"id":1,"text":"x","next":"nowhere"}]}}}`
		w := f.do(t, http.MethodPost, "/flows/validate", RawDocumentRequest{Document: doc})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decode[errorResponse](t, w)
		assert.Equal(t, "invalid", resp.Kind)
		assert.Equal(t, "steps.main_menu.options[0].next", resp.Path)
	})

	t.Run("YAML", func(t *testing.T) {
		doc := "startStep: bye\nsteps:\n  bye: {type: end, message: tchau}\n"
		w := f.do(t, http.MethodPost, "/flows/validate", RawDocumentRequest{Document: doc, Format: "yaml"})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("Missing Document Rejected By Schema", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/flows/validate", map[string]string{"format": "json"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "request", decode[errorResponse](t, w).Kind)
	})
}

func TestDeriveMenu(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/flows/derive", RawDocumentRequest{Document: testutils.SampleRawFlow})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[DeriveResponse](t, w)
	require.NotEmpty(t, resp.Options)

	w = f.do(t, http.MethodPost, "/flows/derive", RawDocumentRequest{Document: "not json"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[DeriveResponse](t, w).Options)
	assert.Contains(t, w.Body.String(), `"options":[]`)
}

func TestRenderGraph(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/flows/graph", RawDocumentRequest{Document: testutils.SampleRawFlow})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD"))

	w = f.do(t, http.MethodPost, "/flows/graph", RawDocumentRequest{Document: `{"startStep":"x","steps":{}}`})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestChatbotLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w := f.do(t, http.MethodPost, "/chatbots", SaveChatbotRequest{
		TenantID:    "tenant-1",
		Name:        "Atendimento",
		CompanyName: "Acme",
		Form:        testutils.SampleForm(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Chatbot](t, w)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, domain.EditModeGuided, created.EditMode)

	w = f.do(t, http.MethodGet, "/chatbots/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/chatbots/"+created.ID+"/form", nil)
	require.Equal(t, http.StatusOK, w.Code)
	session := decode[editor.EditSession](t, w)
	assert.Len(t, session.Form.Options, len(testutils.SampleForm().Options))
	assert.NotEmpty(t, session.RawFlow)

	t.Run("Malformed Raw Save Leaves Record Intact", func(t *testing.T) {
		before, err := f.store.Load(ctx, created.ID)
		require.NoError(t, err)

		w := f.do(t, http.MethodPut, "/chatbots/"+created.ID, SaveChatbotRequest{Mode: domain.EditModeRaw, RawFlow: "{oops"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "malformed", decode[errorResponse](t, w).Kind, "rejected by the editor, not the request schema")

		after, err := f.store.Load(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Raw Save Keeps Unknown Fields", func(t *testing.T) {
		w := f.do(t, http.MethodPut, "/chatbots/"+created.ID, SaveChatbotRequest{Mode: domain.EditModeRaw, RawFlow: testutils.SampleRawFlow})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"channel"`)
	})

	t.Run("Guided Save Without Options Is 422", func(t *testing.T) {
		w := f.do(t, http.MethodPut, "/chatbots/"+created.ID, SaveChatbotRequest{Mode: domain.EditModeGuided})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "no_options", decode[errorResponse](t, w).Kind)
	})

	w = f.do(t, http.MethodGet, "/chatbots?tenant_id=tenant-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[ChatbotList](t, w).Chatbots, 1)

	w = f.do(t, http.MethodGet, "/chatbots?tenant_id=other", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"chatbots":[]`)

	w = f.do(t, http.MethodDelete, "/chatbots/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/chatbots/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[errorResponse](t, w).Kind)
}

func TestSessions(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	f.sessions.Add(domain.Session{ID: "s-1", ChatbotID: "bot-1", CurrentStep: "main_menu", StartedAt: now, UpdatedAt: now})
	f.sessions.AddLog(
		domain.SessionLog{ID: "l-1", SessionID: "s-1", StepID: "greeting", Message: "oi", CreatedAt: now},
		domain.SessionLog{ID: "l-2", SessionID: "s-1", StepID: "main_menu", Message: "menu", CreatedAt: now.Add(time.Second)},
	)

	w := f.do(t, http.MethodGet, "/chatbots/bot-1/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"s-1"`)

	w = f.do(t, http.MethodGet, "/sessions/s-1/logs?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode[map[string][]domain.SessionLog](t, w)["logs"]
	require.Len(t, logs, 1)
	assert.Equal(t, "l-1", logs[0].ID)

	w = f.do(t, http.MethodGet, "/sessions/s-1/logs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessions_NotConfigured(t *testing.T) {
	h, err := NewHandler(editor.New(memory.NewStore()))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chatbots/bot-1/sessions", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestSaveRateLimit(t *testing.T) {
	f := newFixture(t, WithSaveRate(0.001, 1))
	body := SaveChatbotRequest{Form: testutils.SampleForm()}

	first := f.do(t, http.MethodPost, "/chatbots", body)
	require.Equal(t, http.StatusCreated, first.Code)

	second := f.do(t, http.MethodPost, "/chatbots", body)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/chatbots", SaveChatbotRequest{Form: testutils.SampleForm()})
	f.do(t, http.MethodPost, "/chatbots", SaveChatbotRequest{Mode: domain.EditModeRaw, RawFlow: "{"})

	w := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `chatflow_flows_saved_total{mode="guided"} 1`)
	assert.Contains(t, body, `chatflow_flows_rejected_total{mode="raw",reason="malformed"} 1`)
	assert.Contains(t, body, `chatflow_http_requests_total{code="201",route="/chatbots"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodOptions, "/chatbots", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestValidateFlow_TooLarge(t *testing.T) {
	metrics := NewMetrics()
	ed := editor.New(memory.NewStore(), editor.WithMaxDocumentSize(32))
	h, err := NewHandler(ed, WithMetrics(metrics))
	require.NoError(t, err)
	f := &fixture{handler: h, metrics: metrics}

	w := f.do(t, http.MethodPost, "/flows/validate", RawDocumentRequest{Document: testutils.SampleRawFlow})
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	assert.Equal(t, "too_large", decode[errorResponse](t, w).Kind)
	assert.Equal(t, "too_large", RejectReason(editor.ErrDocumentTooLarge))
}

func TestSaveChatbot_NullFormOptions(t *testing.T) {
	f := newFixture(t)

	raw := `{"mode":"raw","raw_flow":` + strconv.Quote(testutils.SampleRawFlow) + `,"form":{"options":null}}`
	req := httptest.NewRequest(http.MethodPost, "/chatbots", strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, domain.EditModeRaw, decode[domain.Chatbot](t, w).EditMode)

	req = httptest.NewRequest(http.MethodPost, "/chatbots", strings.NewReader(`{"mode":"guided","form":{"options":null}}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "no_options", decode[errorResponse](t, w).Kind)
}
