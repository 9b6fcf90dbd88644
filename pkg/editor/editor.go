package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/chatflow/pkg/compiler"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/validator"
	"github.com/google/uuid"
)

var (
	// ErrNoOptions is returned by a guided save whose form has no menu options.
	ErrNoOptions = errors.New("guided form needs at least one menu option")
	// ErrUnknownMode is returned when the request selects neither guided nor raw.
	ErrUnknownMode = errors.New("unknown edit mode")
)

// SaveRequest carries one save from the editing surface.
type SaveRequest struct {
	// ChatbotID selects the record to replace. Empty creates a new record.
	ChatbotID   string
	TenantID    string
	Name        string
	CompanyName string

	// Mode chooses the authoring path. Empty means guided.
	Mode domain.EditMode

	// Form is compiled in guided mode. Its fallback settings apply in both modes.
	Form domain.AuthoringForm

	// RawFlow is the document text used in raw mode.
	RawFlow string
	Format  compiler.Format
}

// EditSession is what an operator sees when opening a chatbot for editing.
// Form and RawFlow are both derived from the stored document.
type EditSession struct {
	Chatbot  *domain.Chatbot      `json:"chatbot"`
	Form     domain.AuthoringForm `json:"form"`
	RawFlow  string               `json:"raw_flow"`
	Mode     domain.EditMode      `json:"mode"`
	Warnings []string             `json:"warnings,omitempty"`
}

// Editor validates and persists FlowDocuments on behalf of operators.
type Editor struct {
	store   ports.ChatbotStore
	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	now     func() time.Time
	newID   func() string
	maxSize int
}

// New creates an Editor over store.
func New(store ports.ChatbotStore, opts ...Option) *Editor {
	e := &Editor{
		store:   store,
		lockTTL: 10 * time.Second,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		newID:   uuid.NewString,
		maxSize: maxDocumentSizeFromEnv(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the backing store.
func (e *Editor) Store() ports.ChatbotStore {
	return e.store
}

// Save compiles or validates the requested document and persists it with the
// record's sibling fields. Nothing is written unless the document is valid.
func (e *Editor) Save(ctx context.Context, req SaveRequest) (*domain.Chatbot, error) {
	mode := req.Mode
	if mode == "" {
		mode = domain.EditModeGuided
	}

	doc, err := e.compile(mode, req)
	if err != nil {
		e.reject(ctx, req, mode, err)
		return nil, err
	}

	id := req.ChatbotID
	if id == "" {
		id = e.newID()
	}

	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, "chatbot:"+id, e.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("lock chatbot %s: %w", id, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("failed to release chatbot lock", "chatbot_id", id, "error", err)
			}
		}()
	}

	bot, err := e.store.Load(ctx, id)
	switch {
	case errors.Is(err, domain.ErrChatbotNotFound):
		bot = &domain.Chatbot{ID: id, Active: true, CreatedAt: e.now()}
	case err != nil:
		return nil, fmt.Errorf("load chatbot %s: %w", id, err)
	}

	if req.TenantID != "" {
		bot.TenantID = req.TenantID
	}
	if name := SanitizeText(req.Name); name != "" {
		bot.Name = name
	}
	if company := SanitizeText(req.CompanyName); company != "" {
		bot.CompanyName = company
	}
	diff := domain.DiffFlows(bot.FlowConfig, doc)
	bot.FlowConfig = doc
	bot.FallbackMessage = fallbackMessage(SanitizeText(req.Form.FallbackMessage))
	bot.MaxAttempts = maxAttempts(req.Form.MaxAttempts)
	bot.EditMode = mode
	bot.UpdatedAt = e.now()

	if err := e.store.Save(ctx, bot); err != nil {
		return nil, fmt.Errorf("save chatbot %s: %w", id, err)
	}

	e.logger.Info("flow saved", "chatbot_id", bot.ID, "tenant_id", bot.TenantID, "mode", mode, "steps", len(doc.Steps))
	if !diff.IsEmpty() {
		e.logger.Debug("flow changed", "chatbot_id", bot.ID,
			"added", diff.Added, "removed", diff.Removed, "changed", diff.Changed)
	}
	if e.hooks.OnSaved != nil {
		e.hooks.OnSaved(ctx, &domain.FlowEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventFlowSaved},
			ChatbotID: bot.ID,
			TenantID:  bot.TenantID,
			Mode:      mode,
			Steps:     len(doc.Steps),
			Diff:      diff,
		})
	}
	return bot, nil
}

// compile produces the document to persist for the selected mode.
func (e *Editor) compile(mode domain.EditMode, req SaveRequest) (*domain.FlowDocument, error) {
	switch mode {
	case domain.EditModeGuided:
		return e.Preview(req.Form)
	case domain.EditModeRaw:
		doc, _, err := e.Check(req.RawFlow, req.Format)
		return doc, err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// Preview compiles a guided form without persisting it.
func (e *Editor) Preview(form domain.AuthoringForm) (*domain.FlowDocument, error) {
	if len(form.Options) == 0 {
		return nil, ErrNoOptions
	}

	built := compiler.BuildFlowFromMenu(sanitizeForm(form))

	// The builder only emits valid documents; this guards the persisted shape anyway.
	doc, err := validator.ValidateFlowDocument(built)
	if err != nil {
		return nil, fmt.Errorf("builder produced an invalid document: %w", err)
	}
	return doc, nil
}

// Check parses and validates raw document text without persisting it.
// It also returns non-blocking lint warnings for a valid document.
func (e *Editor) Check(text string, format compiler.Format) (*domain.FlowDocument, []string, error) {
	if format == "" {
		format = compiler.FormatJSON
	}

	if err := checkDocumentText(text, e.maxSize); err != nil {
		return nil, nil, err
	}

	parsed, err := compiler.Parse([]byte(text), format)
	if err != nil {
		return nil, nil, err
	}

	doc, err := validator.ValidateFlowDocument(parsed)
	if err != nil {
		return nil, nil, err
	}
	return doc, validator.Lint(doc), nil
}

// Open loads a chatbot and projects it into both editing surfaces.
func (e *Editor) Open(ctx context.Context, chatbotID string) (*EditSession, error) {
	bot, err := e.store.Load(ctx, chatbotID)
	if err != nil {
		return nil, err
	}

	session := &EditSession{
		Chatbot: bot,
		Form:    compiler.DeriveForm(bot),
		Mode:    bot.EditMode,
	}
	if session.Mode == "" {
		session.Mode = domain.EditModeGuided
	}

	if bot.FlowConfig != nil {
		raw, err := json.MarshalIndent(bot.FlowConfig, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode flow_config of %s: %w", bot.ID, err)
		}
		session.RawFlow = string(raw)
		session.Warnings = validator.Lint(bot.FlowConfig)
	}
	return session, nil
}

// Delete removes a chatbot record.
func (e *Editor) Delete(ctx context.Context, chatbotID string) error {
	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, "chatbot:"+chatbotID, e.lockTTL)
		if err != nil {
			return fmt.Errorf("lock chatbot %s: %w", chatbotID, err)
		}
		defer func() { _ = unlock(context.WithoutCancel(ctx)) }()
	}

	if err := e.store.Delete(ctx, chatbotID); err != nil {
		return fmt.Errorf("delete chatbot %s: %w", chatbotID, err)
	}

	e.logger.Info("chatbot deleted", "chatbot_id", chatbotID)
	if e.hooks.OnDeleted != nil {
		e.hooks.OnDeleted(ctx, &domain.FlowEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventChatbotDeleted},
			ChatbotID: chatbotID,
		})
	}
	return nil
}

func (e *Editor) reject(ctx context.Context, req SaveRequest, mode domain.EditMode, err error) {
	e.logger.Warn("flow rejected", "chatbot_id", req.ChatbotID, "mode", mode, "error", err)
	if e.hooks.OnRejected != nil {
		e.hooks.OnRejected(ctx, &domain.FlowEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventFlowRejected},
			ChatbotID: req.ChatbotID,
			TenantID:  req.TenantID,
			Mode:      mode,
			Err:       err,
		})
	}
}

func fallbackMessage(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.DefaultFallbackMessage
	}
	return s
}

func maxAttempts(n int) int {
	if n <= 0 {
		return domain.DefaultMaxAttempts
	}
	return n
}
