package commands

import (
	"github.com/spf13/cobra"

	"github.com/angelmondragon/invoicedesk-backend/internal/bootstrap"
	"github.com/angelmondragon/invoicedesk-backend/internal/users"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
)

type resolver func(cmd *cobra.Command) (*env, error)

func newSeedCommand(resolve resolver) *cobra.Command {
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Create bootstrap accounts",
	}
	seed.AddCommand(
		newSeedAccountCommand(resolve, "superadmin", enums.RoleSuperAdmin),
		newSeedAccountCommand(resolve, "admin", enums.RoleAdmin),
		newSeedConfiguredCommand(resolve),
	)
	return seed
}

func newSeedAccountCommand(resolve resolver, use string, role enums.Role) *cobra.Command {
	var input users.SeedInput
	cmd := &cobra.Command{
		Use:   use,
		Short: "Create one " + role.String() + " account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolve(cmd)
			if err != nil {
				return err
			}
			seeder, err := users.NewSeeder(e.repos.Users, e.cfg.Password, e.activity)
			if err != nil {
				return err
			}
			input.Role = role
			user, err := seeder.Seed(cmd.Context(), input)
			if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				warning(cmd.OutOrStdout(), "%s", pkgerrors.As(err).Message())
				return nil
			}
			if err != nil {
				return failure(cmd.ErrOrStderr(), "seed failed", err, "")
			}
			success(cmd.OutOrStdout(), "created %s %s (%s)", role, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Email, "email", "", "account email")
	cmd.Flags().StringVar(&input.Password, "password", "", "initial password, at least 8 characters")
	cmd.Flags().StringVar(&input.Name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSeedConfiguredCommand(resolve resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "configured",
		Short: "Create the accounts named by the INVOICEDESK_SEED_* settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolve(cmd)
			if err != nil {
				return err
			}
			if e.cfg.Seed.SuperAdminEmail == "" && e.cfg.Seed.AdminEmail == "" {
				warning(cmd.OutOrStdout(), "no seed accounts configured")
				return nil
			}
			seeder, err := users.NewSeeder(e.repos.Users, e.cfg.Password, e.activity)
			if err != nil {
				return err
			}
			if err := bootstrap.SeedAccounts(cmd.Context(), seeder, e.cfg.Seed, e.logg); err != nil {
				return failure(cmd.ErrOrStderr(), "seed failed", err, "")
			}
			success(cmd.OutOrStdout(), "seed accounts are in place")
			return nil
		},
	}
}
