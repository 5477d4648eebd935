package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/audiobookroom/audiobookroom/pkg/config"
	"github.com/audiobookroom/audiobookroom/pkg/database"
	"github.com/audiobookroom/audiobookroom/pkg/migrations"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/audiobookroom/audiobookroom/pkg/users"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

const minPasswordLength = 8

func main() {
	log := logger.New()

	var db *bun.DB

	openDB := func(c *cli.Context) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}
		db, err = database.New(cfg)
		if err != nil {
			return err
		}
		_, err = migrations.BringUpToDate(log.WithContext(c.Context), db)
		return err
	}

	roleFlag := &cli.IntFlag{
		Name:  "role",
		Usage: "role level: 0 for admin, 1 for listener",
		Value: 1,
	}
	passwordFlag := &cli.StringFlag{
		Name:  "password",
		Usage: "password; prompted for when omitted",
	}

	app := &cli.App{
		Name:   "users",
		Usage:  "manage accounts",
		Before: openDB,
		After: func(_ *cli.Context) error {
			if db != nil {
				return db.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "create an account",
				ArgsUsage: "<username>",
				Flags:     []cli.Flag{roleFlag, passwordFlag},
				Action: func(c *cli.Context) error {
					username, err := usernameArg(c)
					if err != nil {
						return err
					}
					roleName, err := roleForLevel(c.Int("role"))
					if err != nil {
						return err
					}
					password, err := readPassword(c)
					if err != nil {
						return err
					}

					user, err := users.NewService(db).Create(c.Context, users.CreateUserOptions{
						Username: username,
						Password: password,
						RoleName: roleName,
					})
					if err != nil {
						return err
					}
					fmt.Printf("Created %s (id %d) as %s\n", user.Username, user.ID, roleName)
					return nil
				},
			},
			{
				Name:      "modify",
				Usage:     "change the password and/or role of an account",
				ArgsUsage: "<username>",
				Flags: []cli.Flag{
					roleFlag,
					passwordFlag,
					&cli.BoolFlag{Name: "keep-password", Usage: "only change the role"},
				},
				Action: func(c *cli.Context) error {
					username, err := usernameArg(c)
					if err != nil {
						return err
					}

					svc := users.NewService(db)
					user, err := svc.RetrieveByUsername(c.Context, username)
					if err != nil {
						return err
					}

					if c.IsSet("role") {
						roleName, err := roleForLevel(c.Int("role"))
						if err != nil {
							return err
						}
						if err := svc.SetRole(c.Context, user, roleName); err != nil {
							return err
						}
						fmt.Printf("Moved %s to %s\n", user.Username, roleName)
					}

					if !c.Bool("keep-password") {
						password, err := readPassword(c)
						if err != nil {
							return err
						}
						if err := svc.ResetPassword(c.Context, user.ID, password, false); err != nil {
							return err
						}
						fmt.Printf("Changed the password of %s\n", user.Username)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("users error")
	}
}

func usernameArg(c *cli.Context) (string, error) {
	username := strings.TrimSpace(c.Args().First())
	if c.NArg() != 1 || username == "" {
		return "", cli.Exit("exactly one username is required", 1)
	}
	return username, nil
}

func roleForLevel(level int) (string, error) {
	name, ok := models.RoleNameForLevel(level)
	if !ok {
		return "", errors.Errorf("unknown role level %d", level)
	}
	return name, nil
}

func readPassword(c *cli.Context) (string, error) {
	password := c.String("password")
	if password == "" {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return "", errors.New("--password is required when stdin is not a terminal")
		}

		fmt.Print("Password: ")
		first, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", errors.WithStack(err)
		}
		fmt.Print("Repeat password: ")
		second, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", errors.WithStack(err)
		}
		if string(first) != string(second) {
			return "", errors.New("passwords don't match")
		}
		password = string(first)
	}

	if len(password) < minPasswordLength {
		return "", errors.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return password, nil
}
