package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
)

// DefaultDebounce is how long Watch waits after the last change before calling onChange.
const DefaultDebounce = 500 * time.Millisecond

// Watch calls onChange whenever a file named by args is written, created,
// removed or renamed. Bursts of events are collapsed into one call.
// It blocks until ctx is cancelled. Errors from onChange are logged and
// watching continues.
func Watch(ctx context.Context, args []string, debounce time.Duration, onChange func(ctx context.Context) error) error {
	logger := contextutil.LoggerFromContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, root := range Roots(args) {
		if err := addTree(watcher, root); err != nil {
			return err
		}
		logger.DebugContext(ctx, "watching directory", "dir", root)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
					if err := addTree(watcher, event.Name); err != nil {
						logger.WarnContext(ctx, "failed to watch new directory", "dir", event.Name, "error", err)
					}
					// A directory moved in brings its files without separate events.
					if treeHasMatch(args, event.Name) {
						logger.DebugContext(ctx, "directory with documents added", "dir", event.Name)
						pending = true
						timer.Reset(debounce)
					}
					continue
				}
			}
			if !relevant(event) || !Matches(args, event.Name) {
				continue
			}
			logger.DebugContext(ctx, "document changed", "path", event.Name, "op", event.Op.String())
			pending = true
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "file watcher error", "error", err)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if err := onChange(ctx); err != nil {
				logger.ErrorContext(ctx, "re-ingest failed", "error", err)
			}
		}
	}
}

// Matches reports whether path is one of the files named by args.
func Matches(args []string, path string) bool {
	path = filepath.Clean(path)
	if hiddenPath(path) || !indexer.SupportedExtension(path) {
		return false
	}
	for _, arg := range args {
		if IsPattern(arg) {
			if ok, _ := doublestar.PathMatch(filepath.Clean(arg), path); ok {
				return true
			}
			continue
		}
		clean := filepath.Clean(arg)
		if clean == path {
			return true
		}
		if info, err := os.Stat(clean); err == nil && info.IsDir() {
			if rel, err := filepath.Rel(clean, path); err == nil && filepath.IsLocal(rel) {
				return true
			}
		}
	}
	return false
}

func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// treeHasMatch reports whether any file under root is named by args.
func treeHasMatch(args []string, root string) bool {
	found := false
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if Matches(args, path) {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}
