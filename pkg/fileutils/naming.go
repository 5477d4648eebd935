package fileutils

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	smartDoubleQuotesRE = regexp.MustCompile(`[“”]`)
	smartSingleQuotesRE = regexp.MustCompile(`[‘’]`)
	invalidCharsRE      = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	spacesRE            = regexp.MustCompile(`\s+`)
	firstNumberRE       = regexp.MustCompile(`\d+`)
)

// SanitizeForFilename removes or replaces characters that are not safe for
// file and folder names.
func SanitizeForFilename(name string) string {
	name = smartDoubleQuotesRE.ReplaceAllString(name, `"`)
	name = smartSingleQuotesRE.ReplaceAllString(name, `'`)

	// Different operating systems have different restrictions, so we'll be conservative.
	name = invalidCharsRE.ReplaceAllString(name, "")
	name = spacesRE.ReplaceAllString(name, " ")

	// Windows doesn't like trailing dots.
	name = strings.Trim(name, " .")

	if len(name) > 200 {
		name = name[:200]
		name = strings.Trim(name, " .")
	}

	return name
}

// BookFolder returns the library-relative folder of a book. It always uses
// forward slashes since it is stored in the database and served over HTTP.
func BookFolder(authorName, bookTitle string) string {
	return path.Join(SanitizeForFilename(authorName), SanitizeForFilename(bookTitle))
}

// ChapterFileName names the index-th (1-based) chapter file of a book.
func ChapterFileName(index int, ext string) string {
	return fmt.Sprintf("%04d%s", index, strings.ToLower(ext))
}

// FirstNumber returns the first run of digits in name. Files are ordered by
// it on import, so "Chapter 2" sorts before "Chapter 10".
func FirstNumber(name string) (int, bool) {
	match := firstNumberRE.FindString(name)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		// Longer than an int; treat it as unnumbered.
		return 0, false
	}
	return n, true
}
