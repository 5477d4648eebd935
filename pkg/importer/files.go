package importer

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/audiobookroom/audiobookroom/pkg/fileutils"
	"github.com/pkg/errors"
)

type numbered struct {
	number int
	path   string
}

// CollectFiles lists the files of a book directory in playback order. Files
// and subdirectories are ordered by the first number in their names, and
// anything without a number is skipped. A directory's own files come before
// the files of its subdirectories.
func CollectFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var files, dirs []numbered
	for _, entry := range entries {
		n, ok := fileutils.FirstNumber(entry.Name())
		if !ok {
			continue
		}
		item := numbered{number: n, path: filepath.Join(dir, entry.Name())}
		if entry.IsDir() {
			dirs = append(dirs, item)
		} else {
			files = append(files, item)
		}
	}
	sortByNumber(files)
	sortByNumber(dirs)

	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.path)
	}
	for _, d := range dirs {
		nested, err := CollectFiles(d.path)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

// Ties keep the name order from os.ReadDir.
func sortByNumber(items []numbered) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].number < items[j].number
	})
}
