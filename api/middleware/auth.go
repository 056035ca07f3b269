package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	"github.com/angelmondragon/invoicedesk-backend/internal/access"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

// SessionCookie carries the access token for browser navigation to dashboard pages.
const SessionCookie = "invoicedesk_session"

// Auth rejects requests that do not evaluate to an authenticated state and seeds the
// context with the principal.
func Auth(guard *access.Guard, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := access.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			eval := guard.Evaluate(r.Context(), token)
			if eval.Err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, eval.Err, "validate session"))
				return
			}
			if eval.State == access.Unauthenticated {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired or invalid"))
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), logg, eval.Principal)))
		})
	}
}

// PageGuard protects dashboard pages. Denied navigations are redirected instead of
// answered with an error body, and allowed ones on a non-canonical path are redirected to
// the cleaned path.
func PageGuard(guard *access.Guard, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := access.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					token = strings.TrimSpace(c.Value)
				}
			}

			ctx := r.Context()
			eval := guard.Evaluate(ctx, token)
			if eval.Err != nil && logg != nil {
				logg.Error(ctx, "page_guard.session_lookup", eval.Err)
			}

			decision := access.CanAccess(r.URL.Path, eval.State.Role())
			if !decision.Allowed() {
				if logg != nil {
					logg.Info(logg.WithFields(ctx, map[string]any{
						"route":  r.URL.Path,
						"reason": decision.Reason.String(),
					}), "page_guard.redirect")
				}
				http.Redirect(w, r, decision.RedirectTarget(), http.StatusFound)
				return
			}

			if canonical, ok := access.Canonical(r.URL.Path); !ok {
				target := canonical
				if r.URL.RawQuery != "" {
					target += "?" + r.URL.RawQuery
				}
				http.Redirect(w, r, target, http.StatusFound)
				return
			}

			if eval.Principal != nil {
				ctx = withPrincipal(ctx, logg, eval.Principal)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func withPrincipal(ctx context.Context, logg *logger.Logger, p *access.Principal) context.Context {
	ctx = WithPrincipal(ctx, p)
	if logg != nil {
		ctx = logg.WithUserID(ctx, p.UserID.String())
		ctx = logg.WithActorRole(ctx, string(p.Role))
	}
	return ctx
}
