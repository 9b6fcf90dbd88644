package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/chatflow/internal/testutils"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/editor"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func newTestServer() (*Server, *memory.Store) {
	store := memory.NewStore()
	return NewServer(editor.New(store), nil), store
}

func TestBuildFlowTool(t *testing.T) {
	s, _ := newTestServer()
	form, _ := json.Marshal(testutils.SampleForm())

	res, err := s.handleBuildFlow(context.Background(), callRequest(map[string]any{"form": string(form)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var doc domain.FlowDocument
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &doc))
	assert.Equal(t, domain.StepGreeting, doc.StartStep)

	res, err = s.handleBuildFlow(context.Background(), callRequest(map[string]any{"form": "{"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestValidateFlowTool(t *testing.T) {
	s, _ := newTestServer()
	ctx := context.Background()

	got, err := s.handleValidateFlow(ctx, mcp.CallToolRequest{}, map[string]any{"document": testutils.SampleRawFlow})
	require.NoError(t, err)
	assert.True(t, got.Valid)

	got, err = s.handleValidateFlow(ctx, mcp.CallToolRequest{}, map[string]any{"document": "{"})
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, "malformed", got.Kind)

	got, err = s.handleValidateFlow(ctx, mcp.CallToolRequest{}, map[string]any{"document": `{"startStep":"a","steps":{"a":{"type":"greeting","next":"b"}}}`})
	require.NoError(t, err)
	assert.Equal(t, "invalid", got.Kind)
	assert.Equal(t, "steps.a.next", got.Path)

	_, err = s.handleValidateFlow(ctx, mcp.CallToolRequest{}, map[string]any{"document": "{}", "format": "xml"})
	assert.Error(t, err)
}

func TestDeriveMenuTool(t *testing.T) {
	s, _ := newTestServer()

	got, err := s.handleDeriveMenu(context.Background(), mcp.CallToolRequest{}, map[string]any{"document": testutils.SampleRawFlow})
	require.NoError(t, err)
	assert.NotEmpty(t, got.Options)

	got, err = s.handleDeriveMenu(context.Background(), mcp.CallToolRequest{}, map[string]any{"document": "garbage"})
	require.NoError(t, err)
	assert.NotNil(t, got.Options)
	assert.Empty(t, got.Options)
}

func TestRenderGraphTool(t *testing.T) {
	s, _ := newTestServer()

	res, err := s.handleRenderGraph(context.Background(), callRequest(map[string]any{"document": testutils.SampleRawFlow}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "graph TD")

	res, err = s.handleRenderGraph(context.Background(), callRequest(map[string]any{"document": "{}"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetChatbotTool(t *testing.T) {
	s, store := newTestServer()
	ctx := context.Background()

	bot, err := editor.New(store).Save(ctx, editor.SaveRequest{Name: "Loja", Form: testutils.SampleForm()})
	require.NoError(t, err)

	res, err := s.handleGetChatbot(ctx, callRequest(map[string]any{"chatbot_id": bot.ID}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var session editor.EditSession
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &session))
	assert.Equal(t, "Loja", session.Chatbot.Name)
	assert.Len(t, session.Form.Options, len(testutils.SampleForm().Options))

	res, err = s.handleGetChatbot(ctx, callRequest(map[string]any{"chatbot_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
