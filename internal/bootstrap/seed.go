package bootstrap

import (
	"context"

	"go.uber.org/multierr"

	"github.com/angelmondragon/invoicedesk-backend/internal/users"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

// SeedAccounts creates the configured superAdmin and admin. Accounts with no email
// configured are skipped and existing ones are left alone, so it is safe on every boot.
func SeedAccounts(ctx context.Context, seeder *users.Seeder, cfg config.SeedConfig, logg *logger.Logger) error {
	accounts := []users.SeedInput{
		{Email: cfg.SuperAdminEmail, Password: cfg.SuperAdminPassword, Role: enums.RoleSuperAdmin},
		{Email: cfg.AdminEmail, Password: cfg.AdminPassword, Role: enums.RoleAdmin},
	}

	var errs error
	for _, account := range accounts {
		if account.Email == "" {
			continue
		}
		fields := logg.WithFields(ctx, map[string]any{"email": account.Email, "role": account.Role.String()})
		user, err := seeder.Seed(ctx, account)
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
			logg.Debug(fields, "seed account already present")
		case err != nil:
			errs = multierr.Append(errs, err)
		default:
			logg.Info(logg.WithUserID(fields, user.ID.String()), "seed account created")
		}
	}
	return errs
}
