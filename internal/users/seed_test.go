package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestSeedCreatesOnceThenConflicts(t *testing.T) {
	r := NewRepository(dbtest.Open(t).DB())
	seeder, err := NewSeeder(r, testPasswordConfig(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	user, err := seeder.Seed(ctx, SeedInput{Email: "root@shop.ng", Password: "s3cretpass", Role: enums.RoleSuperAdmin})
	require.NoError(t, err)
	require.Equal(t, enums.RoleSuperAdmin, user.Role)
	require.Equal(t, "Super admin", user.Name)

	stored, err := r.FindByEmail(ctx, "root@shop.ng")
	require.NoError(t, err)
	ok, err := security.VerifyPassword("s3cretpass", stored.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = seeder.Seed(ctx, SeedInput{Email: "ROOT@shop.ng", Password: "another-pass", Role: enums.RoleSuperAdmin})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	require.Equal(t, "Super admin already exists", pkgerrors.As(err).Message())
}

func TestSeedValidatesInput(t *testing.T) {
	seeder, err := NewSeeder(NewRepository(dbtest.Open(t).DB()), testPasswordConfig(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	cases := []SeedInput{
		{Email: "not-an-email", Password: "longenough", Role: enums.RoleAdmin},
		{Email: "a@shop.ng", Password: "short", Role: enums.RoleAdmin},
		{Email: "a@shop.ng", Password: "longenough", Role: enums.Role("owner")},
	}
	for _, input := range cases {
		_, err := seeder.Seed(ctx, input)
		require.Truef(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "input %+v: %v", input, err)
	}
}
