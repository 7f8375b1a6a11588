package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursetrack-api/internal/models"
)

func TestStaffRepositoryListActiveManagersSkipsInactive(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	repo := NewStaffRepository(db)
	ctx := context.Background()

	second := models.User{Email: "second@example.com", PasswordHash: "x", FirstName: "Alan", LastName: "Kay", Role: models.RoleManager, IsActive: true}
	require.NoError(t, db.Create(&second).Error)
	secondManager := models.Manager{UserID: second.ID, IsActive: true}
	require.NoError(t, repo.CreateManager(ctx, &secondManager))

	managers, err := repo.ListActiveManagers(ctx)
	require.NoError(t, err)
	require.Len(t, managers, 2)
	require.Equal(t, f.manager.ID, managers[0].ID)
	require.Equal(t, "Grace", managers[0].User.FirstName)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", second.ID).Update("is_active", false).Error)

	managers, err = repo.ListActiveManagers(ctx)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	require.Equal(t, f.manager.ID, managers[0].ID)
}

func TestStaffRepositoryFindFacilitator(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	repo := NewStaffRepository(db)
	ctx := context.Background()

	facilitator, err := repo.FindFacilitatorByID(ctx, f.facilitator.ID)
	require.NoError(t, err)
	require.Equal(t, "fac@example.com", facilitator.User.Email)

	byUser, err := repo.FindFacilitatorByUserID(ctx, facilitator.UserID)
	require.NoError(t, err)
	require.Equal(t, facilitator.ID, byUser.ID)

	_, err = repo.FindFacilitatorByID(ctx, 999)
	require.Error(t, err)
}
