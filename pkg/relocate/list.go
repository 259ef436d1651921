package relocate

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// DefaultSuffix is the file extension listed when none is given.
const DefaultSuffix = ".nc"

// ListFiles returns the files under root whose names end with suffix.
// An empty suffix matches everything. Symbolic links count as files
// unless ignoreSymlinks is set.
func ListFiles(root, suffix string, ignoreSymlinks bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ignoreSymlinks && d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if suffix != "" && !strings.HasSuffix(path, suffix) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
