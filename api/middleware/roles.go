package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	"github.com/angelmondragon/invoicedesk-backend/internal/access"
	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

// RequireLevel checks the role snapshot carried by the session token.
func RequireLevel(level access.Level, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := access.CanPerform(level, RoleFromContext(r.Context()))
			if !decision.Allowed() {
				responses.WriteError(r.Context(), logg, w, denial(decision))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RequireFreshRole re-reads the caller's role from storage before letting a
// superAdmin-only mutation through, so a demotion applies before the token expires.
func RequireFreshRole(users userLookup, level access.Level, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p := PrincipalFromContext(ctx)
			if p == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			user, err := users.FindByID(ctx, p.UserID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists"))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup role"))
				return
			}

			role := user.Role
			if !user.IsActive {
				role = enums.RoleNone
			}
			decision := access.CanPerform(level, role)
			if !decision.Allowed() {
				responses.WriteError(ctx, logg, w, denial(decision))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func denial(d access.Decision) error {
	if d.Reason == access.DenyUnauthenticated {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "Only a super admin can do this")
}
