// Package relocate moves data files between filesystem locations while
// keeping the metadata store, empty-directory hygiene and symbolic-link
// mirrors consistent.
package relocate

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrFileOffline   = fmt.Errorf("file is offline")
	ErrFileNotOnDisk = fmt.Errorf("file not found on disk")
	ErrNotAWorkspace = fmt.Errorf("path is not in a group workspace")
)

// The two path shapes a group workspace can take on the storage system.
var (
	newStyleWorkspace = regexp.MustCompile(`^/gws/nopw/j04/([^/]+)`)
	oldStyleWorkspace = regexp.MustCompile(`^/group_workspaces/([^/]+)/([^/]+)`)
	streamComponent   = regexp.MustCompile(`^stream\d+$`)
)

// workspaceBase returns the workspace prefix of a path, if it has one.
func workspaceBase(path string) (string, bool) {
	if m := newStyleWorkspace.FindString(path); m != "" {
		return m, true
	}
	if m := oldStyleWorkspace.FindString(path); m != "" {
		return m, true
	}
	return "", false
}

// SameWorkspace reports whether two paths live in the same group
// workspace. Paths outside any workspace never match.
func SameWorkspace(path1, path2 string) bool {
	base1, ok1 := workspaceBase(path1)
	base2, ok2 := workspaceBase(path2)
	return ok1 && ok2 && base1 == base2
}

// WorkspaceRoot returns the workspace prefix including its stream
// directory, e.g. /gws/nopw/j04/primavera1/stream1.
func WorkspaceRoot(path string) (string, error) {
	base, ok := workspaceBase(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotAWorkspace, path)
	}

	rest := strings.TrimPrefix(path[len(base):], "/")
	stream, _, _ := strings.Cut(rest, "/")
	if !streamComponent.MatchString(stream) {
		return "", fmt.Errorf("%w: %s has no stream directory", ErrNotAWorkspace, path)
	}

	return base + "/" + stream, nil
}

// WorkspaceAnyDir returns the workspace prefix without requiring a
// stream directory beneath it.
func WorkspaceAnyDir(path string) (string, error) {
	base, ok := workspaceBase(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotAWorkspace, path)
	}
	return base, nil
}
