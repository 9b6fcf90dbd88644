package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Sessions implements ports.SessionReader over records held in memory.
// The runtime is external, so Add and AddLog exist for tests and demos.
type Sessions struct {
	mu       sync.RWMutex
	sessions []domain.Session
	logs     []domain.SessionLog
}

// NewSessions creates an empty session reader.
func NewSessions() *Sessions {
	return &Sessions{}
}

// Add records sessions as if the runtime had written them.
func (s *Sessions) Add(sessions ...domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, sessions...)
}

// AddLog records log entries as if the runtime had written them.
func (s *Sessions) AddLog(logs ...domain.SessionLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, logs...)
}

// ListSessions returns the sessions of a chatbot, most recent first.
func (s *Sessions) ListSessions(ctx context.Context, chatbotID string) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Session{}
	for _, sess := range s.sessions {
		if sess.ChatbotID == chatbotID {
			out = append(out, sess)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

// ListSessionLogs returns the log entries of a session in chronological order.
func (s *Sessions) ListSessionLogs(ctx context.Context, sessionID string, limit int) ([]domain.SessionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.SessionLog{}
	for _, l := range s.logs {
		if l.SessionID == sessionID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
