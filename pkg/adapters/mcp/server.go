package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/internal/presentation/graph"
	"github.com/aretw0/chatflow/pkg/compiler"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/editor"
	"github.com/aretw0/chatflow/pkg/validator"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ValidateResult is the structured outcome of validate_flow.
type ValidateResult struct {
	Valid    bool     `json:"valid" jsonschema_description:"True when the document can be saved"`
	Kind     string   `json:"kind,omitempty" jsonschema_description:"malformed, invalid or too_large when rejected"`
	Path     string   `json:"path,omitempty" jsonschema_description:"Location of the first structural problem"`
	Reason   string   `json:"reason,omitempty" jsonschema_description:"Why the document was rejected"`
	Warnings []string `json:"warnings,omitempty" jsonschema_description:"Non-blocking findings such as unreachable steps"`
}

// DeriveResult is the structured outcome of derive_menu.
type DeriveResult struct {
	Options []domain.MenuOption `json:"options" jsonschema_description:"Menu options recovered from main_menu"`
}

// Server exposes the flow tools as an MCP server.
type Server struct {
	editor    *editor.Editor
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance over ed.
func NewServer(ed *editor.Editor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		editor:    ed,
		logger:    logger,
		mcpServer: server.NewMCPServer("chatflow-mcp", strings.TrimSpace(chatflow.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, mostly for tests.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: build_flow
	s.mcpServer.AddTool(mcp.NewTool("build_flow",
		mcp.WithDescription("Compile a guided menu form into a FlowDocument. Never fails; blank fields get defaults."),
		mcp.WithString("form", mcp.Required(), mcp.Description("JSON object with greetingMessage, menuMessage and options [{text, reply}]")),
	), s.handleBuildFlow)

	// TOOL: validate_flow
	s.mcpServer.AddTool(mcp.NewTool("validate_flow",
		mcp.WithDescription("Check that FlowDocument text is well-formed and structurally valid."),
		mcp.WithString("document", mcp.Required(), mcp.Description("FlowDocument text")),
		mcp.WithString("format", mcp.Description("json (default) or yaml")),
		mcp.WithOutputSchema[ValidateResult](),
	), mcp.NewStructuredToolHandler(s.handleValidateFlow))

	// TOOL: derive_menu
	s.mcpServer.AddTool(mcp.NewTool("derive_menu",
		mcp.WithDescription("Recover the guided menu options from a FlowDocument."),
		mcp.WithString("document", mcp.Required(), mcp.Description("FlowDocument text")),
		mcp.WithString("format", mcp.Description("json (default) or yaml")),
		mcp.WithOutputSchema[DeriveResult](),
	), mcp.NewStructuredToolHandler(s.handleDeriveMenu))

	// TOOL: render_graph
	s.mcpServer.AddTool(mcp.NewTool("render_graph",
		mcp.WithDescription("Render a valid FlowDocument as a Mermaid flowchart."),
		mcp.WithString("document", mcp.Required(), mcp.Description("FlowDocument text")),
		mcp.WithString("format", mcp.Description("json (default) or yaml")),
	), s.handleRenderGraph)

	// TOOL: get_chatbot
	s.mcpServer.AddTool(mcp.NewTool("get_chatbot",
		mcp.WithDescription("Load a stored chatbot with its derived guided form and raw document."),
		mcp.WithString("chatbot_id", mcp.Required(), mcp.Description("Chatbot id")),
	), s.handleGetChatbot)
}

func (s *Server) handleBuildFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var form domain.AuthoringForm
	if err := json.Unmarshal([]byte(request.GetString("form", "")), &form); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("form is not valid JSON: %v", err)), nil
	}
	out, err := json.MarshalIndent(compiler.BuildFlowFromMenu(form), "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) handleValidateFlow(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResult, error) {
	document, _ := args["document"].(string)
	formatName, _ := args["format"].(string)

	format, err := compiler.ParseFormat(formatName)
	if err != nil {
		return ValidateResult{}, err
	}

	_, warnings, err := s.editor.Check(document, format)
	if err == nil {
		return ValidateResult{Valid: true, Warnings: warnings}, nil
	}

	result := ValidateResult{Reason: err.Error()}
	var verr *validator.ValidationError
	switch {
	case errors.Is(err, domain.ErrMalformedDocument):
		result.Kind = "malformed"
	case errors.As(err, &verr):
		result.Kind, result.Path, result.Reason = "invalid", verr.Path, verr.Reason
	case errors.Is(err, editor.ErrDocumentTooLarge):
		result.Kind = "too_large"
	default:
		return ValidateResult{}, err
	}
	s.logger.Debug("MCP validate_flow: document rejected", "kind", result.Kind, "path", result.Path)
	return result, nil
}

func (s *Server) handleDeriveMenu(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DeriveResult, error) {
	document, _ := args["document"].(string)
	formatName, _ := args["format"].(string)

	format, err := compiler.ParseFormat(formatName)
	if err != nil {
		return DeriveResult{}, err
	}
	return DeriveResult{Options: compiler.DeriveMenuOptionsFromText([]byte(document), format)}, nil
}

func (s *Server) handleRenderGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := compiler.ParseFormat(request.GetString("format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, _, err := s.editor.Check(request.GetString("document", ""), format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(doc, nil)), nil
}

func (s *Server) handleGetChatbot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("chatbot_id", "")
	session, err := s.editor.Open(ctx, id)
	if errors.Is(err, domain.ErrChatbotNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("chatbot %q not found", id)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open chatbot: %w", err)
	}
	out, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: chatflow://chatbots
	s.mcpServer.AddResource(mcp.NewResource("chatflow://chatbots", "Stored chatbots",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		bots, err := s.editor.Store().List(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("failed to list chatbots: %w", err)
		}
		jsonBytes, _ := json.Marshal(bots)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "chatflow://chatbots",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
