package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/invoicedesk-backend/api/middleware"
	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	"github.com/angelmondragon/invoicedesk-backend/internal/access"
	"github.com/angelmondragon/invoicedesk-backend/internal/activity"
	"github.com/angelmondragon/invoicedesk-backend/internal/auth"
	invoice "github.com/angelmondragon/invoicedesk-backend/internal/invoices"
	"github.com/angelmondragon/invoicedesk-backend/internal/media"
	product "github.com/angelmondragon/invoicedesk-backend/internal/products"
	"github.com/angelmondragon/invoicedesk-backend/internal/settings"
	"github.com/angelmondragon/invoicedesk-backend/internal/users"
	"github.com/angelmondragon/invoicedesk-backend/pkg/auth/session"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/storage"
)

const (
	superEmail = "owner@shop.ng"
	adminEmail = "clerk@shop.ng"
	password   = "correct-horse"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev, CORSOrigins: []string{"*"}},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "invoicedesk", ExpirationMinutes: 15},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8 * 1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		AuthRateLimit: config.AuthRateLimitConfig{LoginWindow: time.Minute, LoginEmailLimit: 50, LoginIPLimit: 50},
		Media: config.MediaConfig{
			MaxUploadMB:    1,
			ImageMaxWidth:  64,
			ImageMaxHeight: 64,
			LocalDir:       t.TempDir(),
			LocalBaseURL:   "/uploads",
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	responses.NumericDecimals()
	cfg := testConfig(t)
	logg := logger.Nop()
	conn := dbtest.Open(t).DB()

	activitySvc, err := activity.NewService(activity.NewRepository(conn), logg)
	require.NoError(t, err)

	userRepo := users.NewRepository(conn)
	seeder, err := users.NewSeeder(userRepo, cfg.Password, nil)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = seeder.Seed(ctx, users.SeedInput{Email: superEmail, Password: password, Role: enums.RoleSuperAdmin})
	require.NoError(t, err)
	_, err = seeder.Seed(ctx, users.SeedInput{Email: adminEmail, Password: password, Role: enums.RoleAdmin})
	require.NoError(t, err)

	verifier, err := auth.NewVerifier(userRepo, cfg.Password, logg)
	require.NoError(t, err)
	authSvc, err := auth.NewService(auth.ServiceParams{
		Verifier:  verifier,
		UserRepo:  userRepo,
		Sessions:  session.Stateless{},
		Activity:  activitySvc,
		JWTConfig: cfg.JWT,
	})
	require.NoError(t, err)

	local, err := storage.NewLocal(cfg.Media.LocalDir, cfg.Media.LocalBaseURL)
	require.NoError(t, err)

	productSvc, err := product.NewService(product.NewRepository(conn), activitySvc, product.WithImageBase(local.BaseURL()))
	require.NoError(t, err)
	invoiceSvc, err := invoice.NewService(invoice.ServiceParams{
		Repo:     invoice.NewRepository(conn),
		Catalog:  productSvc,
		Activity: activitySvc,
	})
	require.NoError(t, err)
	settingsSvc, err := settings.NewService(settings.NewRepository(conn), activitySvc)
	require.NoError(t, err)

	mediaSvc, err := media.NewService(local, cfg.Media, activitySvc, nil)
	require.NoError(t, err)

	return NewRouter(Dependencies{
		Config:     cfg,
		Logger:     logg,
		Guard:      access.NewGuard(cfg.JWT, nil),
		Users:      userRepo,
		UploadsDir: local.Dir(),
		Auth:       authSvc,
		Products:   productSvc,
		Invoices:   invoiceSvc,
		Media:      mediaSvc,
		Settings:   settingsSvc,
		Activity:   activitySvc,
	})
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func login(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec, env := do(t, h, http.MethodPost, "/api/v1/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func TestHealthAndPublicCatalog(t *testing.T) {
	h := newTestRouter(t)

	rec, _ := do(t, h, http.MethodGet, "/health/live", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/health/ready", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, h, http.MethodGet, "/api/public/catalog", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, string(env.Data))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := newTestRouter(t)
	rec, env := do(t, h, http.MethodPost, "/api/v1/auth/login", "", `{"email":"`+adminEmail+`","password":"nope-nope"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	h := newTestRouter(t)
	rec, _ := do(t, h, http.MethodGet, "/api/v1/invoices", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminCannotManageProducts(t *testing.T) {
	h := newTestRouter(t)
	admin := login(t, h, adminEmail)

	rec, env := do(t, h, http.MethodPost, "/api/v1/products", admin, `{"name":"Rice","price":1500,"quantity":10}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "FORBIDDEN", env.Error.Code)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/activity", admin, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/settings", admin, `{"theme":"dark"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInvoiceLifecycle(t *testing.T) {
	h := newTestRouter(t)
	super := login(t, h, superEmail)
	admin := login(t, h, adminEmail)

	rec, env := do(t, h, http.MethodPost, "/api/v1/products", super, `{"name":"Rice","price":1500,"discountedPrice":1400,"quantity":10,"category":"grains"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	rec, env = do(t, h, http.MethodPost, "/api/v1/invoices/draft/select", admin, `{"items":[],"productId":"`+created.ID.String()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var draft struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &draft))
	require.Len(t, draft.Items, 1)
	require.Equal(t, "Rice", draft.Items[0].Name)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/invoices/draft/quantity", admin,
		`{"items":[{"productId":"`+created.ID.String()+`","name":"Rice","quantity":1,"price":1500}],"index":0,"quantity":11}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := `{"customer":"Ada","items":[{"productId":"` + created.ID.String() + `","quantity":2,"price":1}],"cashPayment":1000,"onlinePayment":0}`
	rec, env = do(t, h, http.MethodPost, "/api/v1/invoices", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var inv struct {
		ID         uuid.UUID `json:"id"`
		Status     string    `json:"status"`
		Total      float64   `json:"total"`
		AmountOwed float64   `json:"amountOwed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &inv))
	require.Equal(t, "partially", inv.Status)
	require.InDelta(t, 2800, inv.Total, 0.001)
	require.InDelta(t, 1800, inv.AmountOwed, 0.001)

	rec, env = do(t, h, http.MethodGet, "/api/v1/invoices?limit=10", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+inv.ID.String()+"/pdf", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	pdf := httptest.NewRecorder()
	h.ServeHTTP(pdf, req)
	require.Equal(t, http.StatusOK, pdf.Code)
	require.Equal(t, "application/pdf", pdf.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(pdf.Body.String(), "%PDF"))

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/invoices/"+inv.ID.String(), admin, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = do(t, h, http.MethodDelete, "/api/v1/invoices/"+uuid.NewString(), super, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Invoice not found", env.Error.Message)

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/invoices/"+inv.ID.String(), super, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/api/v1/activity?type=warning", super, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.NotEmpty(t, entries)
	require.Equal(t, "Deleted invoice for Ada", entries[0].Action)
}

func TestInvoiceCreateRejectsOverpayment(t *testing.T) {
	h := newTestRouter(t)
	super := login(t, h, superEmail)

	_, env := do(t, h, http.MethodPost, "/api/v1/products", super, `{"name":"Salt","price":100,"quantity":5}`)
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	body := `{"customer":"Bola","items":[{"productId":"` + created.ID.String() + `","quantity":1}],"cashPayment":500}`
	rec, env := do(t, h, http.MethodPost, "/api/v1/invoices", super, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	rec, env = do(t, h, http.MethodGet, "/api/v1/invoices", super, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Empty(t, page.Items)
}

func TestSettingsDefaultsToEmptyObject(t *testing.T) {
	h := newTestRouter(t)
	admin := login(t, h, adminEmail)
	super := login(t, h, superEmail)

	rec, env := do(t, h, http.MethodGet, "/api/v1/settings", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{}`, string(env.Data))

	rec, _ = do(t, h, http.MethodPost, "/api/v1/settings", super, `{"company":{"name":"Mama Put"},"theme":"dark"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, env = do(t, h, http.MethodGet, "/api/v1/settings", admin, "")
	var doc struct {
		Company struct {
			Name string `json:"name"`
		} `json:"company"`
		Theme string `json:"theme"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	require.Equal(t, "Mama Put", doc.Company.Name)
	require.Equal(t, "dark", doc.Theme)
}

func TestDashboardGuard(t *testing.T) {
	h := newTestRouter(t)
	admin := login(t, h, adminEmail)

	get := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := get("/dashboard/invoices", "")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, access.LoginPath, rec.Header().Get("Location"))

	rec = get("/dashboard/settings", admin)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, access.UnauthorizedPath, rec.Header().Get("Location"))

	rec = get("/dashboard/invoices", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.JSONEq(t, `{"page":"invoices","role":"admin"}`, string(env.Data))

	for _, path := range []string{"/dashboard//settings", "/dashboard/./settings", "/dashboard/products//new", "/dashboard/invoices/../logs"} {
		rec = get(path, admin)
		require.Equal(t, http.StatusFound, rec.Code, path)
		require.Equal(t, access.UnauthorizedPath, rec.Header().Get("Location"), path)
	}

	rec = get("/dashboard//invoices?tab=open", admin)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/dashboard/invoices?tab=open", rec.Header().Get("Location"))
}
