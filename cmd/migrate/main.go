package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/migrate"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the InvoiceDesk relational schema",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "", "read migrations from this directory instead of the ones built into the binary")

	// flags are parsed after construction, so dir is read lazily
	source := func() migrateSource { return migrateSource{dir: dir} }

	root.AddCommand(
		schemaCommand("up", "Apply every pending migration", source, func(ctx context.Context, r *migrate.Runner, _ []string) ([]migrate.Step, error) {
			return r.Up(ctx)
		}),
		schemaCommand("down", "Revert the most recent migration", source, func(ctx context.Context, r *migrate.Runner, _ []string) ([]migrate.Step, error) {
			return r.Down(ctx)
		}),
		schemaCommand("reset", "Revert every applied migration", source, func(ctx context.Context, r *migrate.Runner, _ []string) ([]migrate.Step, error) {
			return r.Reset(ctx)
		}),
		toCommand(source),
		statusCommand(source),
		newCommand(&dir),
		lintCommand(&dir),
	)
	return root
}

// migrateSource is an optional on-disk migrations directory; empty means embedded.
type migrateSource struct {
	dir string
}

// open connects to the configured database and binds the chosen migrations to it.
func (s migrateSource) open(ctx context.Context) (*migrate.Runner, func() error, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.FeatureFlags.StorageBackend != config.StorageBackendSQL {
		return nil, nil, fmt.Errorf("storage backend is %q; only the sql backend has a schema", cfg.FeatureFlags.StorageBackend)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		Output:      os.Stderr,
	})

	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return nil, nil, err
	}
	var sqlDB *sql.DB
	if sqlDB, err = client.DB().DB(); err != nil {
		return nil, nil, multierr.Combine(err, client.Close())
	}

	var fsys fs.FS
	if s.dir != "" {
		fsys = os.DirFS(s.dir)
	}
	runner, err := migrate.NewRunner(sqlDB, client.Dialect(), fsys)
	if err != nil {
		return nil, nil, multierr.Combine(err, client.Close())
	}
	return runner, client.Close, nil
}

type schemaAction func(ctx context.Context, r *migrate.Runner, args []string) ([]migrate.Step, error)

func schemaCommand(use, short string, source func() migrateSource, action schemaAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			runner, closeDB, err := source().open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, closeDB()) }()

			steps, err := action(cmd.Context(), runner, args)
			printSteps(cmd.OutOrStdout(), steps)
			return err
		},
	}
}

func toCommand(source func() migrateSource) *cobra.Command {
	cmd := schemaCommand("to VERSION", "Migrate up or down to VERSION (YYYYMMDDHHMMSS, 0 for empty)", source,
		func(ctx context.Context, r *migrate.Runner, args []string) ([]migrate.Step, error) {
			version, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return r.To(ctx, version)
		})
	cmd.Args = cobra.ExactArgs(1)
	return cmd
}

func statusCommand(source func() migrateSource) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether each is applied",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			runner, closeDB, err := source().open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, closeDB()) }()

			rows, err := runner.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, row := range rows {
				state := color.YellowString("pending")
				if row.Applied {
					state = color.GreenString("applied")
				}
				fmt.Fprintf(out, "%d  %-8s %s\n", row.Version, state, row.Path)
			}
			return nil
		},
	}
}

func newCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "new NAME",
		Short: "Write an empty migration named NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := *dir
			if target == "" {
				target = migrate.SourceDir
			}
			path, err := migrate.Scaffold(target, args[0], time.Now())
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "created %s\n", path)
			return nil
		},
	}
}

func lintCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Check migration file names and goose sections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := *dir
			if target == "" {
				target = migrate.SourceDir
			}
			if err := migrate.Lint(os.DirFS(target)); err != nil {
				for _, problem := range multierr.Errors(err) {
					color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "  %v\n", problem)
				}
				return fmt.Errorf("%d migration problem(s) in %s", len(multierr.Errors(err)), target)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "migrations in %s look good\n", target)
			return nil
		},
	}
}

func printSteps(w io.Writer, steps []migrate.Step) {
	if len(steps) == 0 {
		fmt.Fprintln(w, "nothing to do")
		return
	}
	for _, step := range steps {
		fmt.Fprintf(w, "%-4s %d %s\n", step.Direction, step.Version, step.Path)
	}
}
