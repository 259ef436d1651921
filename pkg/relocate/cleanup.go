package relocate

import (
	"os"
	"path/filepath"
)

// CleanupStatus tags the outcome of a best-effort directory cleanup.
type CleanupStatus int

const (
	CleanupSuccess CleanupStatus = iota
	CleanupPartial
	CleanupFailed
)

// CleanupResult reports what a cleanup pass managed to remove. Partial
// cleanup is an accepted outcome, so failures are collected rather than
// raised.
type CleanupResult struct {
	Status  CleanupStatus
	Removed []string
	Errors  []error
}

// RemoveEmptyDirs removes every directory under root that is empty, or
// becomes empty once its own empty subdirectories have been removed.
// root itself is never removed. Errors on individual directories are
// recorded and the traversal continues.
func RemoveEmptyDirs(root string) CleanupResult {
	result := CleanupResult{}
	removeEmptySubdirs(root, &result)

	switch {
	case len(result.Errors) == 0:
		result.Status = CleanupSuccess
	case len(result.Removed) > 0:
		result.Status = CleanupPartial
	default:
		result.Status = CleanupFailed
	}
	return result
}

// removeEmptySubdirs is a post-order traversal: children are drained
// before the parent is considered. Returns whether dir is empty after
// the pass.
func removeEmptySubdirs(dir string, result *CleanupResult) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Errors = append(result.Errors, err)
		return false
	}

	remaining := len(entries)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sub := filepath.Join(dir, entry.Name())
		if removeEmptySubdirs(sub, result) {
			if err := os.Remove(sub); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			result.Removed = append(result.Removed, sub)
			remaining--
		}
	}

	return remaining == 0
}

// DeleteDRSDir removes an empty DRS directory and then drains empty
// parents, stopping at the workspace root or the first non-empty level.
func DeleteDRSDir(dir string) error {
	stop := ""
	if base, err := WorkspaceAnyDir(dir); err == nil {
		stop = base
	}

	for dir != stop && dir != "/" && dir != "." {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			return nil
		}
		if err := os.Remove(dir); err != nil {
			return err
		}
		dir = filepath.Dir(dir)
	}
	return nil
}
