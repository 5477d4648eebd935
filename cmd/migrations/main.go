package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/audiobookroom/audiobookroom/pkg/config"
	"github.com/audiobookroom/audiobookroom/pkg/database"
	"github.com/audiobookroom/audiobookroom/pkg/migrations"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	var (
		db       *bun.DB
		migrator *migrate.Migrator
	)

	app := &cli.App{
		Name:  "migrations",
		Usage: "apply, roll back and inspect schema migrations",
		Before: func(_ *cli.Context) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			db, err = database.New(cfg)
			if err != nil {
				return err
			}
			migrator = migrate.NewMigrator(db, migrations.Migrations)
			return nil
		},
		After: func(_ *cli.Context) error {
			if db == nil {
				return nil
			}
			return errors.WithStack(db.Close())
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create the migration bookkeeping tables",
				Action: func(c *cli.Context) error {
					return errors.WithStack(migrator.Init(c.Context))
				},
			},
			{
				Name:  "migrate",
				Usage: "apply every pending migration",
				Action: func(c *cli.Context) error {
					group, err := migrations.BringUpToDate(c.Context, db)
					if err != nil {
						return err
					}
					if group.ID == 0 {
						fmt.Println("Nothing to migrate")
						return nil
					}
					fmt.Printf("Migrated to %s\n", group)
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "roll back the last migration group",
				Action: func(c *cli.Context) error {
					group, err := migrator.Rollback(c.Context)
					if err != nil {
						return errors.WithStack(err)
					}
					if group.ID == 0 {
						fmt.Println("Nothing to roll back")
						return nil
					}
					fmt.Printf("Rolled back %s\n", group)
					return nil
				},
			},
			{
				Name:      "create",
				Usage:     "write a new Go migration file",
				ArgsUsage: "<words of the name>",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("a migration name is required", 1)
					}
					mf, err := migrator.CreateGoMigration(
						c.Context,
						strings.Join(c.Args().Slice(), "_"),
						migrate.WithGoTemplate(migrationTemplate),
					)
					if err != nil {
						return errors.WithStack(err)
					}
					fmt.Printf("Created %s (%s)\n", mf.Name, mf.Path)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "list applied and pending migrations",
				Action: func(c *cli.Context) error {
					ms, err := migrator.MigrationsWithStatus(c.Context)
					if err != nil {
						return errors.WithStack(err)
					}
					fmt.Printf("Migrations: %s\n", ms)
					fmt.Printf("Pending: %s\n", ms.Unapplied())
					fmt.Printf("Last group: %s\n", ms.LastGroup())
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("migrations error")
	}
}

const migrationTemplate = `package %s

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("")
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
`
