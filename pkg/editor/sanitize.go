package editor

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/chatflow/pkg/domain"
)

var (
	// DefaultMaxDocumentSize is 256KB, far above any menu a person would type.
	DefaultMaxDocumentSize = 256 << 10
	// EnvMaxDocumentSize is the environment variable to override the default.
	EnvMaxDocumentSize = "CHATFLOW_MAX_DOCUMENT_SIZE"
)

// ErrDocumentTooLarge is returned when raw document text exceeds the size limit.
var ErrDocumentTooLarge = errors.New("document exceeds maximum allowed size")

// checkDocumentText enforces the size limit and UTF-8 validity of raw text.
// Invalid UTF-8 is reported as malformed.
func checkDocumentText(text string, limit int) error {
	if len(text) > limit {
		return fmt.Errorf("%w: size=%d limit=%d", ErrDocumentTooLarge, len(text), limit)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: invalid UTF-8 sequence", domain.ErrMalformedDocument)
	}
	return nil
}

// SanitizeText strips control characters other than newline, tab and carriage
// return. Invalid UTF-8 bytes are dropped.
func SanitizeText(input string) string {
	// Fast path: if no control chars, return as is.
	clean := utf8.ValidString(input)
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r == utf8.RuneError {
			continue
		}
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanitizeForm cleans every operator-typed field of a guided form.
func sanitizeForm(form domain.AuthoringForm) domain.AuthoringForm {
	out := form
	out.GreetingMessage = SanitizeText(form.GreetingMessage)
	out.MenuMessage = SanitizeText(form.MenuMessage)
	out.FallbackMessage = SanitizeText(form.FallbackMessage)
	out.Options = make([]domain.MenuOption, len(form.Options))
	for i, opt := range form.Options {
		out.Options[i] = domain.MenuOption{
			ID:    opt.ID,
			Text:  SanitizeText(opt.Text),
			Reply: SanitizeText(opt.Reply),
		}
	}
	return out
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxDocumentSizeFromEnv() int {
	if val := os.Getenv(EnvMaxDocumentSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxDocumentSize
}
