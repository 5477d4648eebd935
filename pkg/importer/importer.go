// Package importer turns a directory of audio files into a book: the files
// are hard-linked into the library as 0001.ext, 0002.ext, ... and the author,
// book and chapter rows are created.
package importer

import (
	"context"
	"database/sql"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/audiobookroom/audiobookroom/pkg/authors"
	"github.com/audiobookroom/audiobookroom/pkg/books"
	"github.com/audiobookroom/audiobookroom/pkg/chapters"
	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/fileutils"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/audiobookroom/audiobookroom/pkg/mp4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type Options struct {
	AuthorName string
	BookTitle  string
	SourceDir  string
	// OnProgress, if set, is called after each file is linked.
	OnProgress func(done, total int)
}

type Result struct {
	Book     *models.Book
	Chapters []*models.Chapter
	// Copied counts the files that couldn't be hard-linked.
	Copied int
}

type Importer struct {
	db         *bun.DB
	libraryDir string
}

func New(db *bun.DB, libraryDir string) *Importer {
	return &Importer{db: db, libraryDir: libraryDir}
}

func (im *Importer) Import(ctx context.Context, opts Options) (*Result, error) {
	log := logger.FromContext(ctx)

	authorName := strings.TrimSpace(opts.AuthorName)
	bookTitle := strings.TrimSpace(opts.BookTitle)
	if authorName == "" || bookTitle == "" {
		return nil, errcodes.ValidationError("An author and a title are required")
	}

	files, err := CollectFiles(opts.SourceDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errcodes.ValidationError("No numbered files found in " + opts.SourceDir)
	}

	mediaType, ok := models.MediaTypeForExtension(filepath.Ext(files[0]))
	if !ok {
		return nil, errcodes.ValidationError("Unsupported file type " + filepath.Ext(files[0]))
	}

	folder := fileutils.BookFolder(authorName, bookTitle)
	_, err = books.NewService(im.db).RetrieveBook(ctx, books.RetrieveBookOptions{Folder: &folder})
	if err == nil {
		return nil, errcodes.Conflict("A book already exists in " + folder)
	}
	if !errors.Is(err, errcodes.NotFound("Book")) {
		return nil, err
	}

	// Cleanup removes the whole folder, so never import into one that exists.
	if _, err := os.Stat(filepath.Join(im.libraryDir, filepath.FromSlash(folder))); err == nil {
		return nil, errcodes.Conflict("The folder " + folder + " already exists in the library")
	} else if !os.IsNotExist(err) {
		return nil, errors.WithStack(err)
	}

	log.Info("importing book", logger.Data{
		"author":     authorName,
		"title":      bookTitle,
		"source_dir": opts.SourceDir,
		"files":      len(files),
	})

	result := &Result{}
	chapterRows := make([]*models.Chapter, 0, len(files))
	var total float64
	allDurations := true

	for i, src := range files {
		name := fileutils.ChapterFileName(i+1, filepath.Ext(src))
		dst := filepath.Join(im.libraryDir, filepath.FromSlash(folder), name)

		checkAudio(ctx, src)

		linked, err := fileutils.LinkFile(src, dst)
		if err != nil {
			im.cleanup(ctx, folder)
			return nil, err
		}
		if !linked {
			result.Copied++
		}

		ch := &models.Chapter{
			Position: i,
			Name:     strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
			Path:     path.Join(folder, name),
		}
		if d, ok := probeDuration(ctx, dst); ok {
			ch.Duration = &d
			total += d
		} else {
			allDurations = false
		}
		chapterRows = append(chapterRows, ch)

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(files))
		}
	}

	book := &models.Book{
		Title:        bookTitle,
		ChapterCount: len(chapterRows),
		Folder:       folder,
		MediaType:    mediaType,
	}
	if allDurations {
		book.TotalDuration = &total
	}

	err = im.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		author, err := authors.NewService(tx).FindOrCreateAuthor(ctx, authorName)
		if err != nil {
			return err
		}
		book.AuthorID = author.ID
		book.Author = author

		if err := books.NewService(tx).CreateBook(ctx, book); err != nil {
			return err
		}
		for _, ch := range chapterRows {
			ch.BookID = book.ID
		}
		return chapters.NewService(tx).CreateChapters(ctx, chapterRows)
	})
	if err != nil {
		im.cleanup(ctx, folder)
		return nil, err
	}

	log.Info("imported book", logger.Data{"book_id": book.ID, "chapters": len(chapterRows), "copied": result.Copied})

	result.Book = book
	result.Chapters = chapterRows
	return result, nil
}

func (im *Importer) cleanup(ctx context.Context, folder string) {
	if err := fileutils.RemoveBookFolder(im.libraryDir, folder); err != nil {
		logger.FromContext(ctx).Err(err).Warn("failed to clean up after import", logger.Data{"folder": folder})
	}
}

// checkAudio logs files whose content doesn't look like audio. They are
// imported anyway since the extension decides how they are served.
func checkAudio(ctx context.Context, path string) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("failed to detect file type", logger.Data{"path": path})
		return
	}
	if strings.HasPrefix(mtype.String(), "audio/") || mtype.Is("video/mp4") {
		return
	}
	logger.FromContext(ctx).Warn("file doesn't look like audio", logger.Data{"path": path, "mime": mtype.String()})
}

// probeDuration reads the duration of m4a files. Other formats have no
// duration.
func probeDuration(ctx context.Context, path string) (float64, bool) {
	if mt, _ := models.MediaTypeForExtension(filepath.Ext(path)); mt != models.MediaTypeM4A {
		return 0, false
	}
	info, err := mp4.Probe(path)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("failed to read chapter duration", logger.Data{"path": path})
		return 0, false
	}
	return info.Seconds(), true
}
