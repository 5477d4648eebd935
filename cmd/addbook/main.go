package main

import (
	"context"
	"fmt"
	"os"

	"github.com/audiobookroom/audiobookroom/pkg/config"
	"github.com/audiobookroom/audiobookroom/pkg/database"
	"github.com/audiobookroom/audiobookroom/pkg/importer"
	"github.com/audiobookroom/audiobookroom/pkg/migrations"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	app := &cli.App{
		Name:      "addbook",
		Usage:     "import a directory of numbered audio files as a book",
		ArgsUsage: "<source dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "author name", Required: true},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "book title", Required: true},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("exactly one source directory is required", 1)
			}

			cfg, err := config.New()
			if err != nil {
				return err
			}
			db, err := database.New(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := log.WithContext(c.Context)
			if _, err := migrations.BringUpToDate(ctx, db); err != nil {
				return err
			}

			return run(ctx, importer.New(db, cfg.LibraryDir), importer.Options{
				AuthorName: c.String("author"),
				BookTitle:  c.String("title"),
				SourceDir:  c.Args().First(),
				OnProgress: func(done, total int) {
					fmt.Printf("\rlinked %d/%d", done, total)
				},
			})
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("addbook error")
	}
}

func run(ctx context.Context, im *importer.Importer, opts importer.Options) error {
	res, err := im.Import(ctx, opts)
	fmt.Println()
	if err != nil {
		return errors.Wrap(err, "import failed")
	}

	fmt.Printf("Imported %q by %s: %d chapters into %s\n", res.Book.Title, opts.AuthorName, len(res.Chapters), res.Book.Folder)
	if res.Copied > 0 {
		fmt.Printf("%d files were copied because they couldn't be hard-linked\n", res.Copied)
	}
	return nil
}
