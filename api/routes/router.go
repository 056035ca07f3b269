package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/angelmondragon/invoicedesk-backend/api/controllers"
	"github.com/angelmondragon/invoicedesk-backend/api/middleware"
	"github.com/angelmondragon/invoicedesk-backend/internal/access"
	"github.com/angelmondragon/invoicedesk-backend/internal/activity"
	"github.com/angelmondragon/invoicedesk-backend/internal/auth"
	invoice "github.com/angelmondragon/invoicedesk-backend/internal/invoices"
	"github.com/angelmondragon/invoicedesk-backend/internal/media"
	product "github.com/angelmondragon/invoicedesk-backend/internal/products"
	"github.com/angelmondragon/invoicedesk-backend/internal/settings"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/invoicedesk-backend/pkg/redis"
)

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Dependencies is everything the router hands to middleware and controllers. Nil
// optional fields disable the feature they back.
type Dependencies struct {
	Config *config.Config
	Logger *logger.Logger

	Guard *access.Guard
	Users userLookup

	// Attempts counts sign-in attempts; Idempotency replays creates. Both are optional.
	Attempts    middleware.AttemptCounter
	Idempotency pkgredis.IdempotencyStore

	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	Readiness      []controllers.ReadinessCheck

	// UploadsDir is served under the local media base URL when uploads stay on disk.
	UploadsDir string

	Auth     auth.Service
	Products product.Service
	Invoices invoice.Service
	Media    media.Service
	Settings settings.Service
	Activity activity.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.ThrottlePolicy{
		Name:     "login",
		Window:   cfg.AuthRateLimit.LoginWindow,
		PerIP:    cfg.AuthRateLimit.LoginIPLimit,
		PerEmail: cfg.AuthRateLimit.LoginEmailLimit,
	}
	attempts := deps.Attempts
	if attempts == nil {
		attempts = middleware.NewLocalCounter(loginPolicy)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness...))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	if deps.UploadsDir != "" && strings.HasPrefix(cfg.Media.LocalBaseURL, "/") {
		base := "/" + strings.Trim(cfg.Media.LocalBaseURL, "/")
		r.Handle(base+"/*", http.StripPrefix(base, http.FileServer(http.Dir(deps.UploadsDir))))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/catalog", controllers.PublicCatalog(deps.Products, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.Throttle(loginPolicy, attempts, logg)).Post("/login", controllers.AuthLogin(deps.Auth, cfg, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, cfg, logg))
		r.With(middleware.Auth(deps.Guard, logg)).Get("/me", controllers.AuthMe())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Guard, logg))
		r.Use(middleware.RequireLevel(access.Staff, logg))
		replayable := middleware.Replayable(deps.Idempotency, middleware.DefaultReplayTTL, logg)

		superAdmin := chi.Chain(
			middleware.RequireLevel(access.SuperAdminOnly, logg),
			middleware.RequireFreshRole(deps.Users, access.SuperAdminOnly, logg),
		)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(deps.Products, logg))
			r.With(append(superAdmin, replayable)...).Post("/", controllers.ProductCreate(deps.Products, logg))
			r.With(superAdmin...).Put("/{productId}", controllers.ProductUpdate(deps.Products, logg))
			r.With(superAdmin...).Delete("/{productId}", controllers.ProductDelete(deps.Products, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(deps.Invoices, logg))
			r.With(replayable).Post("/", controllers.InvoiceCreate(deps.Invoices, logg))
			r.Get("/export.csv", controllers.InvoiceExportCSV(deps.Invoices, logg))
			r.Route("/draft", func(r chi.Router) {
				r.Post("/select", controllers.DraftSelect(deps.Invoices, logg))
				r.Post("/replace", controllers.DraftReplace(deps.Invoices, logg))
				r.Post("/quantity", controllers.DraftQuantity(deps.Invoices, logg))
				r.Post("/remove", controllers.DraftRemove(deps.Invoices, logg))
				r.Post("/totals", controllers.DraftTotals(deps.Invoices, logg))
			})
			r.Get("/{invoiceId}", controllers.InvoiceGet(deps.Invoices, logg))
			r.Get("/{invoiceId}/pdf", controllers.InvoicePDF(deps.Invoices, deps.Settings, logg))
			r.With(superAdmin...).Delete("/{invoiceId}", controllers.InvoiceDelete(deps.Invoices, logg))
		})

		r.Post("/uploads", controllers.Upload(deps.Media, logg))

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.SettingsGet(deps.Settings, logg))
			r.With(superAdmin...).Post("/", controllers.SettingsUpsert(deps.Settings, logg))
		})

		r.Route("/activity", func(r chi.Router) {
			r.Use(superAdmin...)
			r.Get("/", controllers.ActivityList(deps.Activity, logg))
			r.Get("/export.pdf", controllers.ActivityExportPDF(deps.Activity, logg))
		})
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(middleware.PageGuard(deps.Guard, logg))
		r.Get("/", controllers.DashboardPage())
		r.Get("/*", controllers.DashboardPage())
	})

	return r
}
