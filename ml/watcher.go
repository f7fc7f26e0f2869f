package ml

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchArtifacts reloads the store whenever one of its artifact files is
// rewritten on disk. Editors and deploy scripts replace files with
// rename-over-write, so creates and renames count as changes too. A
// reload that fails leaves the running snapshot untouched.
func WatchArtifacts(ctx context.Context, store *ArtifactStore, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	paths := store.Paths()
	tracked := map[string]bool{
		filepath.Clean(paths.Model):    true,
		filepath.Clean(paths.Features): true,
		filepath.Clean(paths.Means):    true,
	}

	dirs := map[string]bool{}
	for path := range tracked {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return err
		}
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !tracked[filepath.Clean(event.Name)] {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := store.Reload(); err != nil {
					logger.Warn("artifact reload failed, keeping previous snapshot",
						zap.String("file", event.Name), zap.Error(err))
					continue
				}
				logger.Info("artifacts reloaded", zap.String("file", event.Name))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("artifact watcher error", zap.Error(err))
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}
