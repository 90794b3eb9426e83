package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormUserRepository(t *testing.T) {
	repo := NewGormUserRepository(newSQLiteDB(t))
	ctx := context.Background()

	landlord, err := identity.NewLandlord("Landlord.Lee", "secret-pass-1")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, landlord))

	tenant, err := identity.NewTenant("tenant_chen", "secret-pass-2", landlord.LandlordCode)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tenant))

	t.Run("username lookup ignores case", func(t *testing.T) {
		got, err := repo.FindByUsername(ctx, "LANDLORD.LEE")
		require.NoError(t, err)
		assert.Equal(t, landlord.ID, got.ID)
		assert.Equal(t, identity.RoleLandlord, got.Role)
		assert.True(t, got.VerifyPassword("secret-pass-1"))

		exists, err := repo.ExistsByUsername(ctx, "Tenant_Chen")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("landlord code belongs to the landlord only", func(t *testing.T) {
		exists, err := repo.ExistsLandlordCode(ctx, landlord.LandlordCode)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsLandlordCode(ctx, "NOPE00")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("save updates in place", func(t *testing.T) {
		tenant.RecordLogin()
		require.NoError(t, repo.Save(ctx, tenant))

		got, err := repo.FindByID(ctx, tenant.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.LastLoginAt)
		assert.Equal(t, landlord.LandlordCode, got.LandlordCode)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
