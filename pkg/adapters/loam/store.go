// Package loam stores chatbot records as Markdown documents with frontmatter,
// one file per chatbot, using the Loam document engine.
package loam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
)

// Store implements ports.ChatbotStore on a Loam repository.
type Store struct {
	Repo  core.Repository
	Typed *loam.TypedRepository[ChatbotMetadata]
}

// New wraps an initialized Loam repository.
func New(repo core.Repository) *Store {
	return &Store{
		Repo:  repo,
		Typed: loam.NewTypedRepository[ChatbotMetadata](repo),
	}
}

// Open initializes a repository rooted at dir without versioning.
func Open(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve loam dir: %w", err)
	}
	repo, err := loam.Init(abs, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("init loam repo: %w", err)
	}
	return New(repo), nil
}

func (s *Store) Save(ctx context.Context, bot *domain.Chatbot) error {
	meta, err := toMetadata(bot)
	if err != nil {
		return err
	}

	err = s.Typed.Save(ctx, &loam.DocumentModel[ChatbotMetadata]{
		ID:      bot.ID,
		Content: fmt.Sprintf("# %s\n", displayName(bot)),
		Data:    meta,
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", bot.ID, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (*domain.Chatbot, error) {
	doc, err := s.Typed.Get(ctx, id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || !s.exists(ctx, id) {
			return nil, domain.ErrChatbotNotFound
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	return fromMetadata(doc.ID, doc.Data)
}

func (s *Store) List(ctx context.Context, tenantID string) ([]*domain.Chatbot, error) {
	docs, err := s.Typed.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	bots := []*domain.Chatbot{}
	for _, doc := range docs {
		if tenantID != "" && doc.Data.TenantID != tenantID {
			continue
		}
		bot, err := fromMetadata(doc.ID, doc.Data)
		if err != nil {
			return nil, err
		}
		bots = append(bots, bot)
	}
	sort.Slice(bots, func(i, j int) bool { return bots[i].ID < bots[j].ID })
	return bots, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if !s.exists(ctx, id) {
		return nil
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("loam delete failed for %s: %w", id, err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, id string) bool {
	docs, err := s.Typed.List(ctx)
	if err != nil {
		return false
	}
	for _, doc := range docs {
		if documentID(doc.ID, doc.Data) == id {
			return true
		}
	}
	return false
}

func toMetadata(bot *domain.Chatbot) (ChatbotMetadata, error) {
	meta := ChatbotMetadata{
		ID:              bot.ID,
		TenantID:        bot.TenantID,
		Name:            bot.Name,
		CompanyName:     bot.CompanyName,
		FallbackMessage: bot.FallbackMessage,
		MaxAttempts:     strconv.Itoa(bot.MaxAttempts),
		Active:          strconv.FormatBool(bot.Active),
		EditMode:        string(bot.EditMode),
		CreatedAt:       formatTime(bot.CreatedAt),
		UpdatedAt:       formatTime(bot.UpdatedAt),
	}
	if bot.FlowConfig != nil {
		data, err := json.Marshal(bot.FlowConfig)
		if err != nil {
			return ChatbotMetadata{}, fmt.Errorf("encode flow_config: %w", err)
		}
		meta.FlowConfig = string(data)
	}
	return meta, nil
}

func fromMetadata(docID string, meta ChatbotMetadata) (*domain.Chatbot, error) {
	bot := &domain.Chatbot{
		ID:              documentID(docID, meta),
		TenantID:        meta.TenantID,
		Name:            meta.Name,
		CompanyName:     meta.CompanyName,
		FallbackMessage: meta.FallbackMessage,
		MaxAttempts:     parseInt(meta.MaxAttempts),
		Active:          parseBool(meta.Active),
		EditMode:        domain.EditMode(meta.EditMode),
		CreatedAt:       parseTime(meta.CreatedAt),
		UpdatedAt:       parseTime(meta.UpdatedAt),
	}
	if strings.TrimSpace(meta.FlowConfig) != "" {
		var doc domain.FlowDocument
		if err := json.Unmarshal([]byte(meta.FlowConfig), &doc); err != nil {
			return nil, fmt.Errorf("decode flow_config of %s: %w", bot.ID, err)
		}
		bot.FlowConfig = &doc
	}
	return bot, nil
}

// documentID prefers the id recorded in frontmatter and falls back to the file name.
func documentID(docID string, meta ChatbotMetadata) string {
	if meta.ID != "" {
		return meta.ID
	}
	return filepath.ToSlash(strings.TrimSuffix(docID, filepath.Ext(docID)))
}

func displayName(bot *domain.Chatbot) string {
	if bot.Name != "" {
		return bot.Name
	}
	return bot.ID
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
