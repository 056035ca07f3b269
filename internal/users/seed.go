package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/angelmondragon/invoicedesk-backend/internal/activity"
	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/security"
)

const minPasswordLength = 8

// SeedInput describes a bootstrap identity.
type SeedInput struct {
	Name     string
	Email    string
	Password string
	Role     enums.Role
}

// Seeder creates bootstrap admin and superAdmin accounts. It never overwrites an
// existing account.
type Seeder struct {
	repo     Repository
	password config.PasswordConfig
	activity activity.Recorder
}

func NewSeeder(repo Repository, passwordCfg config.PasswordConfig, recorder activity.Recorder) (*Seeder, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	return &Seeder{repo: repo, password: passwordCfg, activity: recorder}, nil
}

// Seed returns a Conflict error naming the role when the email is already registered.
func (s *Seeder) Seed(ctx context.Context, input SeedInput) (*UserDTO, error) {
	email := NormalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", input.Role)
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, alreadyExists(input.Role)
	case err != nil && !errors.Is(err, repo.ErrNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = defaultName(input.Role)
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, alreadyExists(input.Role)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.activity.Record(ctx, activity.Entry{
		Actor:  "system",
		Action: fmt.Sprintf("Created %s account %s", input.Role, email),
		Type:   enums.ActivityTypeSuccess,
	})
	return FromModel(user), nil
}

func alreadyExists(role enums.Role) error {
	return pkgerrors.Newf(pkgerrors.CodeConflict, "%s already exists", defaultName(role))
}

func defaultName(role enums.Role) string {
	if role == enums.RoleSuperAdmin {
		return "Super admin"
	}
	return "Admin"
}
