package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck is one backing service probed by /health/ready.
type ReadinessCheck struct {
	Name string
	Ping func(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-InvoiceDesk-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and answers 503 when any of them fails.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-InvoiceDesk-Env", cfg.App.Env)

		results := make(map[string]string, len(checks))
		status := http.StatusOK
		for _, check := range checks {
			if check.Ping == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			err := check.Ping(ctx)
			cancel()
			if err != nil {
				status = http.StatusServiceUnavailable
				results[check.Name] = "unavailable"
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "dependency", check.Name), "health.ready.failed", err)
				}
				continue
			}
			results[check.Name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"checks": results,
		})
	}
}
