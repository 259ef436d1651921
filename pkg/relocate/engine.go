package relocate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/primdata/dmt/internal/config"
	"github.com/primdata/dmt/pkg/db/models"
	"github.com/primdata/dmt/pkg/db/store"
	"github.com/primdata/dmt/pkg/drs"
	"github.com/primdata/dmt/pkg/log"
)

// Engine performs file moves and keeps the metadata store in step with
// the filesystem. Every mutating call updates both within the same
// invocation; a crash between the two is detectable afterwards because
// the file's recorded directory no longer matches its physical location.
type Engine struct {
	cfg *config.BaseConfig
	st  store.MetadataStore
	log log.LoggerService
}

func NewEngine(cfg *config.BaseConfig, st store.MetadataStore, logger log.LoggerService) *Engine {
	return &Engine{
		cfg: cfg,
		st:  st,
		log: logger.Named("relocate"),
	}
}

// Relocate renames a file's on-disk entry into newDirectory, creating it
// if needed, then records the move. Preconditions are checked before any
// disk mutation.
func (e *Engine) Relocate(ctx context.Context, file *models.DataFile, newDirectory string) error {
	if !file.Online {
		return fmt.Errorf("%w: %s", ErrFileOffline, file.Name)
	}
	if file.Directory == nil {
		return fmt.Errorf("%w: %s is online but has no directory", ErrFileNotOnDisk, file.Name)
	}

	oldDirectory := *file.Directory
	oldPath := filepath.Join(oldDirectory, file.Name)
	if _, err := os.Stat(oldPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotOnDisk, oldPath)
	}

	if err := os.MkdirAll(newDirectory, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", newDirectory, err)
	}

	newPath := filepath.Join(newDirectory, file.Name)
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", oldPath, newPath, err)
	}

	file.Directory = &newDirectory
	if err := e.st.UpdateDataFile(ctx, file); err != nil {
		return fmt.Errorf("moved %s but failed to record it: %w", newPath, err)
	}

	e.CleanupDirectory(oldDirectory)

	return e.updatePublishedLink(newDirectory, newPath, e.PublishedLinkPath(file))
}

// PublishedLinkPath is where a file is visible in the published output
// workspace: the DRS path under the base output directory.
func (e *Engine) PublishedLinkPath(file *models.DataFile) string {
	return filepath.Join(e.cfg.BaseOutputDir, drs.ConstructPath(file), file.Name)
}

// ReconcilePublishedLink refreshes the published mirror after a file's
// name or identity changed: the link at oldLinkPath is dropped if it is
// a symlink, and the correct state for the file's current location is
// restored. Offline files have no mirror to maintain.
func (e *Engine) ReconcilePublishedLink(file *models.DataFile, oldLinkPath string) error {
	if file.Directory == nil {
		return nil
	}
	physical := filepath.Join(*file.Directory, file.Name)
	newLink := e.PublishedLinkPath(file)

	if oldLinkPath != "" && oldLinkPath != newLink {
		if info, err := os.Lstat(oldLinkPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
			if err := os.Remove(oldLinkPath); err != nil {
				return fmt.Errorf("failed to remove stale link %s: %w", oldLinkPath, err)
			}
			e.CleanupDirectory(filepath.Dir(oldLinkPath))
		}
	}

	return e.updatePublishedLink(*file.Directory, physical, newLink)
}

// updatePublishedLink reconciles the published path with the file's new
// physical home. A file stored outside the output workspace is mirrored
// there by a symlink; a file stored inside it needs no link, and any
// leftover one is removed.
func (e *Engine) updatePublishedLink(newDirectory, physicalPath, linkPath string) error {
	if physicalPath == linkPath {
		return nil
	}

	if SameWorkspace(newDirectory, e.cfg.BaseOutputDir) {
		if info, err := os.Lstat(linkPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
			if err := os.Remove(linkPath); err != nil {
				return fmt.Errorf("failed to remove stale link %s: %w", linkPath, err)
			}
			e.CleanupDirectory(filepath.Dir(linkPath))
		}
		return nil
	}

	return e.MaintainSymlink(linkPath, linkPath, physicalPath)
}

// CleanupDirectory removes the directory and any empty parents if the
// last file has left it. Failure here is logged, not fatal: a leftover
// empty directory is untidy but harmless.
func (e *Engine) CleanupDirectory(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		e.log.Error("failed to inspect %s after move: %s", dir, err)
		return
	}
	if len(entries) > 0 {
		return
	}
	if err := DeleteDRSDir(dir); err != nil {
		e.log.Error("failed to remove empty directory %s: %s", dir, err)
	}
}

// MaintainSymlink keeps the published-output mirror pointing at a file's
// physical location. The stale link is removed only if it really is a
// symlink; a regular file under that name means the output area and the
// database disagree, which must surface rather than be deleted over.
func (e *Engine) MaintainSymlink(oldLinkPath, newLinkPath, physicalPath string) error {
	if oldLinkPath != "" {
		if info, err := os.Lstat(oldLinkPath); err == nil {
			if info.Mode()&os.ModeSymlink == 0 {
				return fmt.Errorf("%s exists but is not a symlink", oldLinkPath)
			}
			if err := os.Remove(oldLinkPath); err != nil {
				return fmt.Errorf("failed to remove stale link %s: %w", oldLinkPath, err)
			}
			e.CleanupDirectory(filepath.Dir(oldLinkPath))
		}
	}

	linkDir := filepath.Dir(newLinkPath)
	if err := os.MkdirAll(linkDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", linkDir, err)
	}
	if err := os.Symlink(physicalPath, newLinkPath); err != nil {
		return fmt.Errorf("failed to link %s to %s: %w", newLinkPath, physicalPath, err)
	}
	return nil
}
