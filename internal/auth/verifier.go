package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/internal/users"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Identity is an authenticated operator.
type Identity struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        enums.Role `json:"role"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func identityFromUser(u *models.User) *Identity {
	return &Identity{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		LastLoginAt: u.LastLoginAt,
	}
}

type credentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// Verifier checks email/password pairs. Every rejection carries the same error so a
// caller cannot tell an unknown email from a wrong password.
type Verifier struct {
	users    credentialStore
	password config.PasswordConfig
	logg     *logger.Logger
}

func NewVerifier(store credentialStore, passwordCfg config.PasswordConfig, logg *logger.Logger) (*Verifier, error) {
	if store == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Verifier{users: store, password: passwordCfg, logg: logg}, nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
}

// Authorize returns the identity for a matching, active account with a known role.
func (v *Verifier) Authorize(ctx context.Context, email, password string) (*Identity, error) {
	normalized := users.NormalizeEmail(email)
	if normalized == "" || password == "" {
		security.BurnVerify(password)
		return nil, invalidCredentials()
	}

	user, err := v.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			security.BurnVerify(password)
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		// A corrupt stored hash is still a failed sign-in from the caller's side.
		v.logg.Warn(v.logg.WithUserID(ctx, user.ID.String()), "stored password hash is unreadable")
		return nil, invalidCredentials()
	}
	if !valid || !user.IsActive || !user.Role.IsValid() {
		return nil, invalidCredentials()
	}

	if security.NeedsRehash(user.PasswordHash, v.password) {
		v.upgradeHash(ctx, user.ID, password)
	}
	return identityFromUser(user), nil
}

// upgradeHash rewrites a bcrypt or under-cost hash with the current argon2id settings.
// Failure leaves the old hash usable.
func (v *Verifier) upgradeHash(ctx context.Context, id uuid.UUID, password string) {
	hash, err := security.HashPassword(password, v.password)
	if err == nil {
		err = v.users.UpdatePasswordHash(ctx, id, hash)
	}
	if err != nil {
		v.logg.Warn(v.logg.WithFields(ctx, map[string]any{
			"user_id": id.String(),
			"error":   err.Error(),
		}), "password rehash failed")
	}
}
