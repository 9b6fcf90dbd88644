package editor

import (
	"log/slog"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

// Option configures an Editor.
type Option func(*Editor)

// WithLocker serializes saves of the same chatbot across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Editor) {
		e.locker = locker
	}
}

// WithLockTTL bounds how long a save may hold its lock (default 10s).
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Editor) {
		e.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) {
		e.now = now
	}
}

// WithIDGenerator overrides how ids are minted for new chatbots.
func WithIDGenerator(newID func() string) Option {
	return func(e *Editor) {
		e.newID = newID
	}
}

// WithMaxDocumentSize caps raw document text in bytes
// (default 256KB, or CHATFLOW_MAX_DOCUMENT_SIZE).
func WithMaxDocumentSize(n int) Option {
	return func(e *Editor) {
		if n > 0 {
			e.maxSize = n
		}
	}
}
