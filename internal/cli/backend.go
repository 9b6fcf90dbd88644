package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/chatflow/internal/config"
	loamAdapter "github.com/aretw0/chatflow/pkg/adapters/loam"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/adapters/postgres"
	redisAdapter "github.com/aretw0/chatflow/pkg/adapters/redis"
	"github.com/aretw0/chatflow/pkg/adapters/sqlite"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/editor"
	"github.com/aretw0/chatflow/pkg/persistence/middleware"
	"github.com/aretw0/chatflow/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// ErrUnknownDriver is returned for a store driver this binary does not ship.
var ErrUnknownDriver = errors.New("unknown store driver")

// Backend bundles the ports selected by configuration.
type Backend struct {
	Store ports.ChatbotStore
	// Sessions is nil for drivers that do not hold conversation tables.
	Sessions ports.SessionReader
	// Locker is the Redis save lock when enabled, a process-local one otherwise.
	Locker ports.DistributedLocker

	closers []func() error
}

// Close releases every connection opened by OpenBackend.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenBackend builds the chatbot store (and optional session reader and locker)
// described by cfg.
func OpenBackend(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "memory":
		b.Store = memory.NewStore()
		b.Sessions = memory.NewSessions()

	case "sqlite":
		store, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		b.Store, b.Sessions = store, store
		b.closers = append(b.closers, store.Close)

	case "postgres":
		db, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.ApplyMigrations(ctx, db, postgres.Migrations()); err != nil {
			_ = db.Close()
			return nil, err
		}
		store := postgres.New(db)
		b.Store, b.Sessions = store, store
		b.closers = append(b.closers, store.Close)

	case "redis":
		store := redisAdapter.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redisAdapter.WithPrefix(cfg.Prefix))
		b.Store = store
		b.closers = append(b.closers, store.Close)

	case "loam":
		store, err := loamAdapter.Open(cfg.Dir)
		if err != nil {
			return nil, err
		}
		b.Store = store

	default:
		return nil, fmt.Errorf("%w: %q (expected memory, sqlite, postgres, redis or loam)", ErrUnknownDriver, cfg.Driver)
	}

	if cfg.Lock {
		if cfg.RedisAddr == "" {
			_ = b.Close()
			return nil, errors.New("store.lock requires store.redis_addr")
		}
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		b.Locker = redisAdapter.NewLocker(client, cfg.Prefix)
		b.closers = append(b.closers, client.Close)
	} else {
		b.Locker = memory.NewLocker()
	}

	if cfg.MaskPII && b.Sessions != nil {
		mask, err := middleware.NewPIIMiddleware(cfg.MaskPatterns)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Sessions = mask(b.Sessions)
	}

	logger.Debug("Store ready", "driver", driverName(driver), "sessions", b.Sessions != nil, "distributed_lock", cfg.Lock)
	return b, nil
}

// NewEditor wires an editor over the backend.
func NewEditor(b *Backend, logger *slog.Logger, hooks domain.LifecycleHooks) *editor.Editor {
	opts := []editor.Option{
		editor.WithLogger(logger),
		editor.WithLifecycleHooks(hooks),
	}
	if b.Locker != nil {
		opts = append(opts, editor.WithLocker(b.Locker))
	}
	return editor.New(b.Store, opts...)
}

func driverName(d string) string {
	if d == "" {
		return "memory"
	}
	return d
}
