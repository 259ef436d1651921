package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// watchDropDirectory ingests submission documents dropped as YAML files
// into the configured directory. Documents already present at startup
// are picked up first so a restart loses nothing.
func (a *DMTAgent) watchDropDirectory(ctx context.Context) error {
	dir := a.cfg.Agent.DropDirectory

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	a.log.Info("watching %s for submission documents", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && isSubmissionDocument(entry.Name()) {
			a.ingestDropFile(ctx, filepath.Join(dir, entry.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if isSubmissionDocument(event.Name) {
				a.ingestDropFile(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.Error("watcher error on %s: %s", dir, err)
		}
	}
}

func isSubmissionDocument(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yml" || ext == ".yaml"
}

// ingestDropFile ingests one document and renames it so it is not
// picked up again. Failures keep the original file in place for
// inspection, marked aside as .failed.
func (a *DMTAgent) ingestDropFile(ctx context.Context, path string) {
	sub, err := a.submissions.IngestFile(ctx, path)
	if err != nil {
		a.log.Error("failed to ingest %s: %s", path, err)
		if renameErr := os.Rename(path, path+".failed"); renameErr != nil {
			a.log.Error("failed to set %s aside: %s", path, renameErr)
		}
		return
	}

	a.log.Info("ingested %s as submission %s", path, sub.ID)
	if err := os.Rename(path, path+".done"); err != nil {
		a.log.Error("failed to mark %s done: %s", path, err)
	}
}
