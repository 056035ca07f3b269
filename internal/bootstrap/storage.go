// Package bootstrap opens the configured storage backend and seeds bootstrap accounts.
// Both binaries share it so the api server and the admin CLI always see the same data.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/invoicedesk-backend/internal/activity"
	invoice "github.com/angelmondragon/invoicedesk-backend/internal/invoices"
	product "github.com/angelmondragon/invoicedesk-backend/internal/products"
	"github.com/angelmondragon/invoicedesk-backend/internal/settings"
	"github.com/angelmondragon/invoicedesk-backend/internal/users"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db"
	"github.com/angelmondragon/invoicedesk-backend/pkg/docstore"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/migrate"
)

// Repositories is one backend's implementation of every domain store.
type Repositories struct {
	Users    users.Repository
	Products product.Repository
	Invoices invoice.Repository
	Settings settings.Repository
	Activity activity.Repository
}

// Storage owns the open connection behind Repositories. Exactly one of SQL and Docstore
// is set.
type Storage struct {
	Backend  string
	Repos    Repositories
	SQL      *db.Client
	Docstore *docstore.Store
}

// OpenStorage connects the backend selected by the storage feature flag. SQL installs run
// the dev auto-migration; the document backend creates its unique indexes.
func OpenStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Storage, error) {
	switch cfg.FeatureFlags.StorageBackend {
	case config.StorageBackendMongo:
		store := docstore.New(cfg.Docstore, logg)
		userRepo := users.NewMongoRepository(store)
		if err := userRepo.EnsureIndexes(ctx); err != nil {
			return nil, multierr.Append(fmt.Errorf("docstore indexes: %w", err), store.Close(ctx))
		}
		return &Storage{
			Backend:  config.StorageBackendMongo,
			Docstore: store,
			Repos: Repositories{
				Users:    userRepo,
				Products: product.NewMongoRepository(store),
				Invoices: invoice.NewMongoRepository(store),
				Settings: settings.NewMongoRepository(store),
				Activity: activity.NewMongoRepository(store),
			},
		}, nil

	default:
		client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
			return nil, multierr.Append(fmt.Errorf("dev migrations: %w", err), client.Close())
		}
		conn := client.DB()
		return &Storage{
			Backend: config.StorageBackendSQL,
			SQL:     client,
			Repos: Repositories{
				Users:    users.NewRepository(conn),
				Products: product.NewRepository(conn),
				Invoices: invoice.NewRepository(conn),
				Settings: settings.NewRepository(conn),
				Activity: activity.NewRepository(conn),
			},
		}, nil
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	if s.Docstore != nil {
		return s.Docstore.Ping(ctx)
	}
	return s.SQL.Ping(ctx)
}

func (s *Storage) Close(ctx context.Context) error {
	if s.Docstore != nil {
		return s.Docstore.Close(ctx)
	}
	if s.SQL != nil {
		return s.SQL.Close()
	}
	return nil
}
