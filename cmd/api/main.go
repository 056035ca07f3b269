package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/invoicedesk-backend/api"
	"github.com/angelmondragon/invoicedesk-backend/api/controllers"
	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	"github.com/angelmondragon/invoicedesk-backend/api/routes"
	"github.com/angelmondragon/invoicedesk-backend/internal/access"
	"github.com/angelmondragon/invoicedesk-backend/internal/activity"
	"github.com/angelmondragon/invoicedesk-backend/internal/auth"
	"github.com/angelmondragon/invoicedesk-backend/internal/bootstrap"
	invoice "github.com/angelmondragon/invoicedesk-backend/internal/invoices"
	"github.com/angelmondragon/invoicedesk-backend/internal/media"
	product "github.com/angelmondragon/invoicedesk-backend/internal/products"
	"github.com/angelmondragon/invoicedesk-backend/internal/settings"
	"github.com/angelmondragon/invoicedesk-backend/internal/users"
	"github.com/angelmondragon/invoicedesk-backend/pkg/auth/session"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/metrics"
	"github.com/angelmondragon/invoicedesk-backend/pkg/redis"
	"github.com/angelmondragon/invoicedesk-backend/pkg/storage"
	"github.com/angelmondragon/invoicedesk-backend/pkg/storage/gcs"
)

func main() {
	responses.NumericDecimals()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStorage(ctx, cfg, logg)
	requireResource(ctx, logg, "storage", err)

	var closers []func() error
	closers = append(closers, func() error { return store.Close(context.Background()) })
	readiness := []controllers.ReadinessCheck{{Name: store.Backend, Ping: store.Ping}}

	deps := routes.Dependencies{
		Config: cfg,
		Logger: logg,
		Users:  store.Repos.Users,
	}

	var sessions session.Store = session.Stateless{}
	var checker session.AccessSessionChecker
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		closers = append(closers, redisClient.Close)

		manager, err := session.NewManager(redisClient, cfg.JWT)
		requireResource(ctx, logg, "session manager", err)
		sessions, checker = manager, manager
		deps.Attempts = redisClient
		deps.Idempotency = redisClient
		readiness = append(readiness, controllers.ReadinessCheck{Name: "redis", Ping: redisClient.Ping})
	} else {
		logg.Warn(ctx, "redis disabled; sessions are stateless and rate limits are per process")
	}
	deps.Guard = access.NewGuard(cfg.JWT, checker)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.HTTPMetrics = metrics.NewHTTPMetrics(registry)
	deps.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})

	activitySvc, err := activity.NewService(store.Repos.Activity, logg)
	requireResource(ctx, logg, "activity service", err)

	seeder, err := users.NewSeeder(store.Repos.Users, cfg.Password, activitySvc)
	requireResource(ctx, logg, "user seeder", err)
	if cfg.FeatureFlags.AutoSeed {
		requireResource(ctx, logg, "seed accounts", bootstrap.SeedAccounts(ctx, seeder, cfg.Seed, logg))
	}

	verifier, err := auth.NewVerifier(store.Repos.Users, cfg.Password, logg)
	requireResource(ctx, logg, "credential verifier", err)
	deps.Auth, err = auth.NewService(auth.ServiceParams{
		Verifier:  verifier,
		UserRepo:  store.Repos.Users,
		Sessions:  sessions,
		Activity:  activitySvc,
		JWTConfig: cfg.JWT,
	})
	requireResource(ctx, logg, "auth service", err)

	var uploader storage.Uploader
	switch cfg.FeatureFlags.UploadBackend {
	case config.UploadBackendGCS:
		client, err := gcs.NewClient(ctx, cfg.GCS, logg)
		requireResource(ctx, logg, "gcs", err)
		uploader = client
		readiness = append(readiness, controllers.ReadinessCheck{Name: "gcs", Ping: client.Ping})
	default:
		local, err := storage.NewLocal(cfg.Media.LocalDir, cfg.Media.LocalBaseURL)
		requireResource(ctx, logg, "local uploads", err)
		uploader = local
		deps.UploadsDir = local.Dir()
	}

	productSvc, err := product.NewService(store.Repos.Products, activitySvc, product.WithImageBase(uploader.BaseURL()))
	requireResource(ctx, logg, "product service", err)

	deps.Invoices, err = invoice.NewService(invoice.ServiceParams{
		Repo:     store.Repos.Invoices,
		Catalog:  productSvc,
		Activity: activitySvc,
		Metrics:  metrics.NewInvoiceMetrics(registry),
	})
	requireResource(ctx, logg, "invoice service", err)

	deps.Settings, err = settings.NewService(store.Repos.Settings, activitySvc)
	requireResource(ctx, logg, "settings service", err)

	deps.Media, err = media.NewService(uploader, cfg.Media, activitySvc, metrics.NewUploadMetrics(registry))
	requireResource(ctx, logg, "media service", err)

	deps.Products = productSvc
	deps.Activity = activitySvc
	deps.Readiness = readiness

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := net.JoinHostPort("", port)
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
		"storage":  store.Backend,
		"uploads":  uploader.Backend(),
	})
	logg.Info(ctx, "starting api server")

	serveErr := api.Serve(ctx, api.NewServer(addr, routes.NewRouter(deps)), logg)

	var closeErr error
	for i := len(closers) - 1; i >= 0; i-- {
		closeErr = multierr.Append(closeErr, closers[i]())
	}
	if closeErr != nil {
		logg.Error(ctx, "error releasing resources", closeErr)
	}
	if serveErr != nil {
		logg.Error(ctx, "api server stopped unexpectedly", serveErr)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
