package access

import (
	"context"
	"strings"

	"github.com/google/uuid"

	pkgauth "github.com/angelmondragon/invoicedesk-backend/pkg/auth"
	"github.com/angelmondragon/invoicedesk-backend/pkg/auth/session"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// State is where a single request sits in the guard's state machine.
type State int

const (
	Unauthenticated State = iota
	AuthenticatedAdmin
	AuthenticatedSuperAdmin
)

func (s State) String() string {
	switch s {
	case AuthenticatedAdmin:
		return "authenticated_admin"
	case AuthenticatedSuperAdmin:
		return "authenticated_super_admin"
	default:
		return "unauthenticated"
	}
}

// Role maps the state back onto the role it implies.
func (s State) Role() enums.Role {
	switch s {
	case AuthenticatedAdmin:
		return enums.RoleAdmin
	case AuthenticatedSuperAdmin:
		return enums.RoleSuperAdmin
	default:
		return enums.RoleNone
	}
}

// Principal is the identity snapshot of an authenticated request.
type Principal struct {
	UserID   uuid.UUID
	Email    string
	Role     enums.Role
	AccessID string
}

// Evaluation is the guard's verdict for one request. Err is set when the session store
// could not be consulted; the state is then Unauthenticated.
type Evaluation struct {
	State     State
	Principal *Principal
	Err       error
}

// Guard evaluates bearer tokens. It holds no per-user state.
type Guard struct {
	cfg      config.JWTConfig
	sessions session.AccessSessionChecker
}

func NewGuard(cfg config.JWTConfig, sessions session.AccessSessionChecker) *Guard {
	if sessions == nil {
		sessions = session.Stateless{}
	}
	return &Guard{cfg: cfg, sessions: sessions}
}

// Evaluate moves a request out of Unauthenticated only for a valid, unexpired token whose
// session has not been revoked.
func (g *Guard) Evaluate(ctx context.Context, token string) Evaluation {
	token = strings.TrimSpace(token)
	if token == "" {
		return Evaluation{State: Unauthenticated}
	}
	claims, err := pkgauth.ParseSessionToken(g.cfg, token)
	if err != nil || claims.ID == "" {
		return Evaluation{State: Unauthenticated}
	}

	ok, err := g.sessions.HasSession(ctx, claims.ID)
	if err != nil {
		return Evaluation{State: Unauthenticated, Err: err}
	}
	if !ok {
		return Evaluation{State: Unauthenticated}
	}

	var state State
	switch claims.Role {
	case enums.RoleAdmin:
		state = AuthenticatedAdmin
	case enums.RoleSuperAdmin:
		state = AuthenticatedSuperAdmin
	default:
		return Evaluation{State: Unauthenticated}
	}
	return Evaluation{
		State: state,
		Principal: &Principal{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Role:     claims.Role,
			AccessID: claims.ID,
		},
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
