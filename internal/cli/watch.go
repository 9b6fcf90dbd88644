package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/chatflow/pkg/compiler"
	"github.com/aretw0/chatflow/pkg/editor"
	"github.com/fsnotify/fsnotify"
)

// debounce absorbs the burst of events editors emit for a single save.
const debounce = 100 * time.Millisecond

// WatchFile calls onChange every time path is written, created or renamed into
// place, until ctx is done. The parent directory is watched so that editors which
// replace the file atomically are still seen.
func WatchFile(ctx context.Context, path string, logger *slog.Logger, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Change detected", "path", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "error", err)
		}
	}
}

// ValidateFile reads path and reports the validation outcome on out.
// It returns the error so callers can pick an exit code.
func ValidateFile(ed *editor.Editor, path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	_, warnings, err := ed.Check(string(data), compiler.FormatFromPath(path))
	if err != nil {
		printSystemMessage(out, "%s: %v", filepath.Base(path), err)
		return err
	}
	for _, w := range warnings {
		printSystemMessage(out, "warning: %s", w)
	}
	printSystemMessage(out, "%s is valid! ✅", filepath.Base(path))
	return nil
}

// RunValidateWatch validates path now and again after every change until ctx is done.
func RunValidateWatch(ctx context.Context, ed *editor.Editor, path string, out io.Writer, logger *slog.Logger) error {
	_ = ValidateFile(ed, path, out)
	printSystemMessage(out, "Waiting for changes...")

	return WatchFile(ctx, path, logger, func() {
		_ = ValidateFile(ed, path, out)
	})
}
