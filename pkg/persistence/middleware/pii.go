package middleware

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

// Mask replaces every hidden fragment.
const Mask = "***"

// DefaultPatterns match e-mail addresses, CPF numbers and phone numbers typed
// by contacts into inbound messages.
var DefaultPatterns = []string{
	`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`,
	`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`,
	`\+?\d[\d\s().-]{8,}\d`,
}

type piiMiddleware struct {
	next     ports.SessionReader
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that hides contact phones and masks
// inbound log text matching the patterns. An empty list uses DefaultPatterns.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	if len(patternStrings) == 0 {
		patternStrings = DefaultPatterns
	}
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SessionReader) ports.SessionReader {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) ListSessions(ctx context.Context, chatbotID string) ([]domain.Session, error) {
	sessions, err := m.next.ListSessions(ctx, chatbotID)
	if err != nil {
		return nil, err
	}
	// Copy so a reader backed by shared memory is never modified.
	out := make([]domain.Session, len(sessions))
	for i, s := range sessions {
		s.ContactPhone = MaskPhone(s.ContactPhone)
		out[i] = s
	}
	return out, nil
}

func (m *piiMiddleware) ListSessionLogs(ctx context.Context, sessionID string, limit int) ([]domain.SessionLog, error) {
	logs, err := m.next.ListSessionLogs(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SessionLog, len(logs))
	for i, l := range logs {
		// Outbound text comes from the flow document and holds no contact data.
		if l.Direction == domain.DirectionInbound {
			l.Message = m.maskText(l.Message)
		}
		out[i] = l
	}
	return out, nil
}

func (m *piiMiddleware) maskText(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

// MaskPhone keeps the last four digits of a phone number.
func MaskPhone(phone string) string {
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits <= 4 {
		return strings.Repeat("*", len(phone))
	}

	var b strings.Builder
	seen := 0
	for _, r := range phone {
		if r < '0' || r > '9' {
			b.WriteRune(r)
			continue
		}
		seen++
		if seen > digits-4 {
			b.WriteRune(r)
		} else {
			b.WriteByte('*')
		}
	}
	return b.String()
}
