package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/invoicedesk-backend/internal/access"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// WithPrincipal stores the authenticated identity for downstream handlers.
func WithPrincipal(ctx context.Context, p *access.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

func PrincipalFromContext(ctx context.Context) *access.Principal {
	if ctx == nil {
		return nil
	}
	p, _ := ctx.Value(ctxPrincipal).(*access.Principal)
	return p
}

func UserIDFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil && p.UserID != uuid.Nil {
		return p.UserID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.Role {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.Role
	}
	return enums.RoleNone
}

// ActorFromContext names the caller in activity entries.
func ActorFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.Email
	}
	return ""
}
