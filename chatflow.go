package chatflow

import (
	"fmt"
	"log/slog"
	"path/filepath"

	loamAdapter "github.com/aretw0/chatflow/pkg/adapters/loam"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/compiler"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/editor"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/validator"
)

// config collects what New needs before the editor exists.
type config struct {
	store      ports.ChatbotStore
	editorOpts []editor.Option
}

// Option defines a functional option for New.
type Option func(*config)

// WithStore injects a custom ChatbotStore, bypassing the default store selection.
func WithStore(s ports.ChatbotStore) Option {
	return func(c *config) {
		c.store = s
	}
}

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.editorOpts = append(c.editorOpts, editor.WithLogger(logger))
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.editorOpts = append(c.editorOpts, editor.WithLifecycleHooks(hooks))
	}
}

// WithLocker serializes saves of the same chatbot across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(c *config) {
		c.editorOpts = append(c.editorOpts, editor.WithLocker(l))
	}
}

// New returns an Editor backed by a Loam repository at dir.
// An empty dir keeps records in memory. WithStore overrides both.
func New(dir string, opts ...Option) (*editor.Editor, error) {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}

	if c.store == nil {
		if dir == "" {
			c.store = memory.NewStore()
		} else {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve path: %w", err)
			}
			store, err := loamAdapter.Open(abs)
			if err != nil {
				return nil, fmt.Errorf("failed to open repository: %w", err)
			}
			c.store = store
		}
	}

	return editor.New(c.store, c.editorOpts...), nil
}

// BuildFlowFromMenu compiles a guided form into a FlowDocument. It never fails.
func BuildFlowFromMenu(form domain.AuthoringForm) *domain.FlowDocument {
	return compiler.BuildFlowFromMenu(form)
}

// DeriveMenuOptionsFromFlow recovers the guided menu options from a document.
func DeriveMenuOptionsFromFlow(doc *domain.FlowDocument) []domain.MenuOption {
	return compiler.DeriveMenuOptionsFromFlow(doc)
}

// ValidateFlowDocument checks a candidate document (parsed value, text or typed
// document) and returns its typed form.
func ValidateFlowDocument(candidate any) (*domain.FlowDocument, error) {
	return validator.ValidateFlowDocument(candidate)
}
