package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

// Collection names shared by the document repositories.
const (
	CollectionUsers      = "users"
	CollectionProducts   = "products"
	CollectionInvoices   = "invoices"
	CollectionActivities = "activities"
	CollectionSettings   = "settings"
)

var ErrClosed = errors.New("docstore: closed")

type connectFunc func(ctx context.Context) (*mongo.Client, error)

// Store hands out a process-wide mongo client. The first caller dials; concurrent callers
// wait on the same lock and reuse the result. A failed dial leaves the store empty so the
// next caller retries.
type Store struct {
	cfg     config.DocstoreConfig
	logg    *logger.Logger
	connect connectFunc

	mu     sync.Mutex
	client *mongo.Client
	closed bool
}

func New(cfg config.DocstoreConfig, logg *logger.Logger) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Store{cfg: cfg, logg: logg}
	s.connect = s.dial
	return s
}

func (s *Store) dial(ctx context.Context) (*mongo.Client, error) {
	if s.cfg.URI == "" {
		return nil, fmt.Errorf("docstore uri is required")
	}
	opts := options.Client().ApplyURI(s.cfg.URI)
	if s.cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(s.cfg.ConnectTimeout)
	}
	if s.cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(s.cfg.MaxPoolSize)
	}

	dialCtx := ctx
	if s.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(dialCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// Client returns the shared client, dialing on first use.
func (s *Store) Client(ctx context.Context) (*mongo.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.client != nil {
		return s.client, nil
	}

	client, err := s.connect(ctx)
	if err != nil {
		s.logg.Error(ctx, "docstore connection failed", err)
		return nil, err
	}
	s.client = client
	s.logg.Info(s.logg.WithField(ctx, "database", s.cfg.Database), "docstore connection established")
	return client, nil
}

// Collection resolves a collection in the configured database.
func (s *Store) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	client, err := s.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(s.cfg.Database).Collection(name), nil
}

func (s *Store) Ping(ctx context.Context) error {
	client, err := s.Client(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client if one was established. Later calls to Client fail.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client = nil
	return err
}
