package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Options configures the watch loop.
type Options struct {
	// Root is the directory watched recursively. Changed paths are reported
	// relative to it.
	Root string

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Ready, when set, is called once every directory below Root is being
	// watched.
	Ready func()
}

// Watch monitors Root and calls onChange with the slash-separated path,
// relative to Root, of every relevant change. It blocks until ctx is done.
func Watch(ctx context.Context, opts Options, onChange func(rel string)) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return fmt.Errorf("resolving root %q: %w", opts.Root, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dirs := sets.New[string]()

	if err := addRecursive(watcher, dirs, root); err != nil {
		return fmt.Errorf("watching %s: %w", opts.Root, err)
	}

	opts.Logger.Debug("watching", slog.String("root", root), slog.Int("directories", dirs.Len()))

	if opts.Ready != nil {
		opts.Ready()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event) {
				continue
			}

			trackDirs(watcher, dirs, event, opts.Logger)

			rel, relErr := filepath.Rel(root, event.Name)
			if relErr != nil || strings.HasPrefix(rel, "..") {
				continue
			}

			onChange(filepath.ToSlash(rel))

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// trackDirs keeps the watch list in step with directories appearing and
// disappearing below the root.
func trackDirs(watcher *fsnotify.Watcher, dirs sets.Set[string], event fsnotify.Event, logger *slog.Logger) {
	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(watcher, dirs, event.Name); err != nil {
				logger.Warn("watching new directory", slog.String("path", event.Name), slog.String("error", err.Error()))
			}
		}

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !dirs.Has(event.Name) {
			return
		}

		for _, d := range dirs.UnsortedList() {
			if d == event.Name || strings.HasPrefix(d, event.Name+string(filepath.Separator)) {
				dirs.Delete(d)
			}
		}
	}
}

// addRecursive walks root and adds all directories not yet in dirs to the
// watcher. Hidden directories below root are skipped.
func addRecursive(watcher *fsnotify.Watcher, dirs sets.Set[string], root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}

		if dirs.Has(path) {
			return nil
		}

		if err := watcher.Add(path); err != nil {
			return err
		}

		dirs.Insert(path)

		return nil
	})
}

// isRelevant filters out metadata-only events and editor scratch files.
func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return true
}
