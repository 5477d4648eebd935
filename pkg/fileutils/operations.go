package fileutils

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LinkFile hard-links src to dst, creating dst's directory if needed. When
// the link fails (e.g. src is on another filesystem), the file is copied
// instead. The returned bool is true when the file was linked.
func LinkFile(src, dst string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return false, errors.WithStack(err)
	}

	err := os.Link(src, dst)
	if err == nil {
		return true, nil
	}
	if os.IsExist(err) {
		return false, errors.WithStack(err)
	}

	err = copyFile(src, dst)
	if err != nil {
		// Don't leave a partial file behind.
		os.Remove(dst)
		return false, errors.WithStack(err)
	}
	return false, nil
}

// copyFile copies a file from source to destination.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer sourceFile.Close()

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	if err != nil {
		return errors.WithStack(err)
	}

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return errors.WithStack(err)
	}

	err = destFile.Chmod(sourceInfo.Mode())
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// RemoveBookFolder deletes a book folder (relative to libraryDir) and then
// its parent author folder if that is left empty.
func RemoveBookFolder(libraryDir, folder string) error {
	if folder == "" {
		return errors.New("refusing to remove an empty book folder")
	}
	bookDir := filepath.Join(libraryDir, filepath.FromSlash(folder))

	rel, err := filepath.Rel(libraryDir, bookDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.Errorf("book folder %q is outside the library", folder)
	}

	if err := os.RemoveAll(bookDir); err != nil {
		return errors.WithStack(err)
	}

	authorDir := filepath.Dir(bookDir)
	if filepath.Clean(authorDir) == filepath.Clean(libraryDir) {
		return nil
	}
	entries, err := os.ReadDir(authorDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WithStack(err)
	}
	if len(entries) == 0 {
		if err := os.Remove(authorDir); err != nil && !os.IsNotExist(err) {
			return errors.WithStack(err)
		}
	}
	return nil
}
