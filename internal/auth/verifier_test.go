package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user      *models.User
	err       error
	rehashed  string
	lastLogin *time.Time
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.Email != email {
		return nil, repo.ErrNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.ID != id {
		return nil, repo.ErrNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID, at time.Time) error {
	s.lastLogin = &at
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(_ context.Context, _ uuid.UUID, hash string) error {
	s.rehashed = hash
	return nil
}

func newUser(t *testing.T, password string, role enums.Role) *models.User {
	return &models.User{
		ID:           uuid.New(),
		Name:         "Ada",
		Email:        "ada@shop.ng",
		PasswordHash: mustHashPassword(t, password),
		Role:         role,
		IsActive:     true,
	}
}

func TestAuthorizeAcceptsValidCredentials(t *testing.T) {
	store := &stubUserRepo{user: newUser(t, "correct-horse", enums.RoleSuperAdmin)}
	verifier, err := NewVerifier(store, testPasswordConfig(), nil)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	identity, err := verifier.Authorize(context.Background(), "  ADA@shop.ng ", "correct-horse")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if identity.Role != enums.RoleSuperAdmin || identity.Email != "ada@shop.ng" {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if store.rehashed != "" {
		t.Fatalf("argon hashes must not be rewritten")
	}
}

func TestAuthorizeRejectionsAreIndistinguishable(t *testing.T) {
	inactive := newUser(t, "pw-123456", enums.RoleAdmin)
	inactive.IsActive = false
	unknownRole := newUser(t, "pw-123456", enums.Role("owner"))

	cases := []struct {
		name     string
		user     *models.User
		email    string
		password string
	}{
		{name: "unknown email", user: newUser(t, "pw-123456", enums.RoleAdmin), email: "nobody@shop.ng", password: "pw-123456"},
		{name: "wrong password", user: newUser(t, "pw-123456", enums.RoleAdmin), email: "ada@shop.ng", password: "nope"},
		{name: "inactive", user: inactive, email: "ada@shop.ng", password: "pw-123456"},
		{name: "unknown role", user: unknownRole, email: "ada@shop.ng", password: "pw-123456"},
		{name: "empty password", user: newUser(t, "pw-123456", enums.RoleAdmin), email: "ada@shop.ng", password: ""},
		{name: "corrupt hash", user: &models.User{ID: uuid.New(), Email: "ada@shop.ng", PasswordHash: "garbage", Role: enums.RoleAdmin, IsActive: true}, email: "ada@shop.ng", password: "pw-123456"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verifier, err := NewVerifier(&stubUserRepo{user: tc.user}, testPasswordConfig(), nil)
			if err != nil {
				t.Fatalf("new verifier: %v", err)
			}
			_, err = verifier.Authorize(context.Background(), tc.email, tc.password)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized || typed.Message() != invalidCredentialsMessage {
				t.Fatalf("expected uniform invalid credentials error, got %v", err)
			}
		})
	}
}

func TestAuthorizeSurfacesStoreFailureAsDependency(t *testing.T) {
	verifier, err := NewVerifier(&stubUserRepo{err: errors.New("connection reset")}, testPasswordConfig(), nil)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	_, err = verifier.Authorize(context.Background(), "ada@shop.ng", "pw")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestAuthorizeUpgradesLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("admin12345"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	user := &models.User{ID: uuid.New(), Email: "ada@shop.ng", PasswordHash: string(legacy), Role: enums.RoleAdmin, IsActive: true}
	store := &stubUserRepo{user: user}
	verifier, err := NewVerifier(store, testPasswordConfig(), nil)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	if _, err := verifier.Authorize(context.Background(), "ada@shop.ng", "admin12345"); err != nil {
		t.Fatalf("authorize legacy: %v", err)
	}
	if !strings.HasPrefix(store.rehashed, "$argon2id$") {
		t.Fatalf("expected argon2id rehash, got %q", store.rehashed)
	}
}
