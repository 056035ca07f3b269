package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/invoicedesk-backend/internal/activity"
	"github.com/angelmondragon/invoicedesk-backend/internal/bootstrap"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

// env is what every subcommand runs against.
type env struct {
	cfg      *config.Config
	logg     *logger.Logger
	repos    bootstrap.Repositories
	activity activity.Service
	close    func() error
}

type opener func(ctx context.Context) (*env, error)

func openFromEnvironment(ctx context.Context) (*env, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logg := logger.New(logger.Options{
		ServiceName: "admin",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      logger.FormatConsole,
		Output:      os.Stderr,
	})

	store, err := bootstrap.OpenStorage(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}
	activitySvc, err := activity.NewService(store.Repos.Activity, logg)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:      cfg,
		logg:     logg,
		repos:    store.Repos,
		activity: activitySvc,
		close:    func() error { return store.Close(context.Background()) },
	}, nil
}

// NewRootCommand builds the CLI. open is deferred until a subcommand runs so --help
// works without a database.
func NewRootCommand(open opener) *cobra.Command {
	var current *env

	root := &cobra.Command{
		Use:           "admin",
		Short:         "InvoiceDesk administration",
		Long:          "Seeds bootstrap accounts and exports invoices and the activity log.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	resolve := func(cmd *cobra.Command) (*env, error) {
		if current != nil {
			return current, nil
		}
		e, err := open(cmd.Context())
		if err != nil {
			return nil, failure(cmd.ErrOrStderr(), "could not open storage", err, "check INVOICEDESK_* settings or .env")
		}
		current = e
		return e, nil
	}

	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if current == nil || current.close == nil {
			return nil
		}
		if err := current.close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
		return nil
	}

	root.AddCommand(newSeedCommand(resolve), newExportCommand(resolve))
	return root
}

// Execute runs the CLI against the configured storage.
func Execute() error {
	return NewRootCommand(openFromEnvironment).ExecuteContext(context.Background())
}
