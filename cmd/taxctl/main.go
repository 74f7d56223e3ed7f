package main

import (
	"fmt"
	"os"

	"github.com/ashmitsharp/classtrib-api/internal/config"
	"github.com/ashmitsharp/classtrib-api/internal/database"
	"github.com/ashmitsharp/classtrib-api/internal/database/db"
	"github.com/ashmitsharp/classtrib-api/internal/services"
	"github.com/ashmitsharp/classtrib-api/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

// session holds the pool opened by the Before hook of each command
type session struct {
	pool *pgxpool.Pool
}

func (s *session) open(c *cli.Context) error {
	pool, err := database.Connect(c.Context, &config.Config{DatabaseURL: c.String("db-url")})
	if err != nil {
		return err
	}
	s.pool = pool
	return nil
}

func (s *session) close(c *cli.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func main() {
	_ = godotenv.Load()

	s := &session{}

	app := &cli.App{
		Name:  "taxctl",
		Usage: "Maintenance tasks for the classtrib database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create missing tables and indexes",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: s.open,
				After:  s.close,
				Action: func(c *cli.Context) error {
					return database.Migrate(c.Context, s.pool)
				},
			},
			{
				Name:  "create-admin",
				Usage: "Create an admin account or promote an existing one",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
				},
				Before: s.open,
				After:  s.close,
				Action: func(c *cli.Context) error {
					hash, err := services.HashPassword(c.String("password"))
					if err != nil {
						return err
					}
					user, err := db.New(s.pool).EnsureAdmin(c.Context, c.String("username"), hash)
					if err != nil {
						return fmt.Errorf("ensure admin: %w", err)
					}
					logger.Log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("Admin ready")
					return nil
				},
			},
			{
				Name:      "import-nbs",
				Usage:     "Replace the NBS reference table with the rows of a workbook",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{Name: "file", Required: true, Usage: "xlsx or xls workbook"},
					&cli.IntFlag{Name: "sheet-index", Value: 1, Usage: "zero-based index of the NBS sheet"},
				},
				Before: s.open,
				After:  s.close,
				Action: importNBS(s),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("taxctl failed")
	}
}

func importNBS(s *session) cli.ActionFunc {
	return func(c *cli.Context) error {
		path := c.String("file")
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()

		entries, err := services.ReadNBSWorkbook(f, path, c.Int("sheet-index"))
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("no NBS rows found in %s", path)
		}

		n, err := db.New(s.pool).ReplaceNBS(c.Context, entries)
		if err != nil {
			return fmt.Errorf("replace nbs: %w", err)
		}

		logger.Log.Info().Int64("rows", n).Str("file", path).Msg("NBS table replaced")
		return nil
	}
}
