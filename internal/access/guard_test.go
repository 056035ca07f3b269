package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/angelmondragon/invoicedesk-backend/pkg/auth"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

type fakeSessions struct {
	live map[string]bool
	err  error
}

func (f fakeSessions) HasSession(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.live[id], nil
}

var testJWT = config.JWTConfig{Secret: "guard-secret", Issuer: "invoicedesk", ExpirationMinutes: 15}

func mint(t *testing.T, role enums.Role, jti string, now time.Time) string {
	t.Helper()
	token, err := pkgauth.MintSessionToken(testJWT, now, pkgauth.SessionTokenPayload{
		UserID: uuid.New(),
		Email:  "ada@shop.ng",
		Role:   role,
		JTI:    jti,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return token
}

func TestEvaluateStates(t *testing.T) {
	now := time.Now()
	sessions := fakeSessions{live: map[string]bool{"admin-jti": true, "root-jti": true}}
	guard := NewGuard(testJWT, sessions)
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
		want  State
	}{
		{"absent", "", Unauthenticated},
		{"garbage", "not-a-jwt", Unauthenticated},
		{"admin", mint(t, enums.RoleAdmin, "admin-jti", now), AuthenticatedAdmin},
		{"superAdmin", mint(t, enums.RoleSuperAdmin, "root-jti", now), AuthenticatedSuperAdmin},
		{"revoked", mint(t, enums.RoleAdmin, "gone-jti", now), Unauthenticated},
		{"expired", mint(t, enums.RoleAdmin, "admin-jti", now.Add(-time.Hour)), Unauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := guard.Evaluate(ctx, tt.token)
			if got.State != tt.want {
				t.Fatalf("Evaluate = %s, want %s", got.State, tt.want)
			}
			if (got.Principal != nil) != (tt.want != Unauthenticated) {
				t.Fatalf("principal presence mismatch for %s", tt.name)
			}
			if got.Principal != nil && got.Principal.Role != got.State.Role() {
				t.Fatalf("principal role %s does not match state %s", got.Principal.Role, got.State)
			}
		})
	}
}

func TestEvaluateWrongSecret(t *testing.T) {
	other := testJWT
	other.Secret = "different"
	token := mint(t, enums.RoleSuperAdmin, "root-jti", time.Now())
	guard := NewGuard(other, fakeSessions{live: map[string]bool{"root-jti": true}})
	if got := guard.Evaluate(context.Background(), token); got.State != Unauthenticated {
		t.Fatalf("expected forged token to stay unauthenticated, got %s", got.State)
	}
}

func TestEvaluateSessionStoreFailure(t *testing.T) {
	guard := NewGuard(testJWT, fakeSessions{err: errors.New("redis down")})
	got := guard.Evaluate(context.Background(), mint(t, enums.RoleAdmin, "admin-jti", time.Now()))
	if got.State != Unauthenticated || got.Err == nil {
		t.Fatalf("expected unauthenticated with error, got %+v", got)
	}
}

func TestEvaluateStatelessSessions(t *testing.T) {
	guard := NewGuard(testJWT, nil)
	got := guard.Evaluate(context.Background(), mint(t, enums.RoleAdmin, "any", time.Now()))
	if got.State != AuthenticatedAdmin {
		t.Fatalf("stateless sessions trust the signature and expiry, got %s", got.State)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"":             "",
		"abc":          "",
	}
	for in, want := range cases {
		if got := BearerToken(in); got != want {
			t.Fatalf("BearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}
