package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Dosada05/tennis-planner/config"
	"github.com/Dosada05/tennis-planner/db"
	"github.com/Dosada05/tennis-planner/identity"
	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/repositories"
	"github.com/Dosada05/tennis-planner/services"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	app := &cli.App{
		Name:  "clubctl",
		Usage: "operator tasks for the tennis planner database",
		Commands: []*cli.Command{
			migrateCommand(),
			checkDBCommand(logger),
			seedCommand(),
			setPasswordCommand(),
			exportCommand(logger),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// withDB loads the configuration and opens the database for one command.
func withDB(fn func(c *cli.Context, cfg *config.Config, conn *sql.DB) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		conn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return err
		}
		defer conn.Close()
		return fn(c, cfg, conn)
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply the database schema",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "print", Usage: "print the schema instead of applying it"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("print") {
				_, err := fmt.Fprint(c.App.Writer, db.Schema())
				return err
			}
			return withDB(func(c *cli.Context, _ *config.Config, conn *sql.DB) error {
				if err := db.Migrate(c.Context, conn); err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, "schema applied")
				return nil
			})(c)
		},
	}
}

func checkDBCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "check-db",
		Usage: "print row counts of the planner tables",
		Action: withDB(func(c *cli.Context, _ *config.Config, conn *sql.DB) error {
			dashboard := newDashboard(conn, logger)
			counts, err := dashboard.Counts(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "accounts:    %d\nplayers:     %d\ntournaments: %d\nentries:     %d\n",
				counts.Accounts, counts.Players, counts.Tournaments, counts.Entries)
			return nil
		}),
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "load accounts, players, tournaments and entries from a YAML file",
		ArgsUsage: "<file.yaml>",
		Action: withDB(func(c *cli.Context, _ *config.Config, conn *sql.DB) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one seed file", 2)
			}
			f, err := os.Open(c.Args().First())
			if err != nil {
				return err
			}
			defer f.Close()

			seed, err := loadSeed(f)
			if err != nil {
				return err
			}
			plan, err := seed.plan()
			if err != nil {
				return err
			}
			err = plan.apply(c.Context, seedRepos{
				tx:          repositories.NewTransactor(conn),
				accounts:    repositories.NewPostgresAccountRepository(conn),
				players:     repositories.NewPostgresPlayerRepository(conn),
				tournaments: repositories.NewPostgresTournamentRepository(conn),
				entries:     repositories.NewPostgresEntryRepository(conn),
			})
			if err != nil {
				return err
			}

			passwords := identity.NewPasswordProvider(repositories.NewPostgresIdentityRepository(conn), bcrypt.DefaultCost)
			for email, password := range plan.passwords {
				if err := passwords.SetPassword(c.Context, email, password); err != nil {
					return fmt.Errorf("failed to set password for %s: %w", email, err)
				}
			}
			fmt.Fprintf(c.App.Writer, "seeded %d accounts, %d players, %d tournaments, %d entries\n",
				len(plan.accounts), len(plan.players), len(plan.tournaments), len(plan.entries))
			return nil
		}),
	}
}

func setPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "set-password",
		Usage: "set the built-in password of an account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"CLUBCTL_PASSWORD"}},
		},
		Action: withDB(func(c *cli.Context, _ *config.Config, conn *sql.DB) error {
			passwords := identity.NewPasswordProvider(repositories.NewPostgresIdentityRepository(conn), bcrypt.DefaultCost)
			if err := passwords.SetPassword(c.Context, c.String("email"), c.String("password")); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "password updated for %s\n", c.String("email"))
			return nil
		}),
	}
}

func exportCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the manager matrix to an XLSX file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "manager", Required: true, Usage: "email of a manager account"},
			&cli.StringFlag{Name: "out", Value: "matice.xlsx"},
			&cli.IntFlag{Name: "week", Usage: "ISO week to keep, 0 for all"},
		},
		Action: withDB(func(c *cli.Context, _ *config.Config, conn *sql.DB) error {
			manager, err := findManager(c.Context, repositories.NewPostgresAccountRepository(conn), c.String("manager"))
			if err != nil {
				return err
			}
			exports := services.NewExportService(newDashboard(conn, logger), nil, logger)
			data, err := exports.Workbook(c.Context, manager, services.ManagerFilter{Week: c.Int("week")})
			if err != nil {
				return err
			}
			if err := os.WriteFile(c.String("out"), data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "wrote %s (%d bytes)\n", c.String("out"), len(data))
			return nil
		}),
	}
}

func newDashboard(conn *sql.DB, logger *slog.Logger) services.DashboardService {
	return services.NewDashboardService(
		repositories.NewPostgresAccountRepository(conn),
		repositories.NewPostgresPlayerRepository(conn),
		repositories.NewPostgresTournamentRepository(conn),
		repositories.NewPostgresEntryRepository(conn),
		logger,
	)
}

func findManager(ctx context.Context, repo repositories.AccountRepository, email string) (models.Account, error) {
	accounts, err := repo.ListByEmail(ctx, email)
	if err != nil {
		return models.Account{}, err
	}
	switch {
	case len(accounts) == 0:
		return models.Account{}, fmt.Errorf("no account for %s", email)
	case len(accounts) > 1:
		return models.Account{}, fmt.Errorf("%d accounts share the email %s", len(accounts), email)
	case accounts[0].Role != models.RoleManager:
		return models.Account{}, errors.New("export requires a manager account")
	}
	return accounts[0], nil
}
