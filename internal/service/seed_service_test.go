package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/repository"
)

func TestSeedServiceTokenGuard(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)

	_, err := NewSeedService(users, false, "", testLogger()).SeedDemo(context.Background(), "")
	require.ErrorIs(t, err, ErrSeedDisabled)

	_, err = NewSeedService(users, true, "secret", testLogger()).SeedDemo(context.Background(), "wrong")
	require.ErrorIs(t, err, ErrSeedUnauthorized)
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSeedService(repository.NewUserRepository(db), true, "secret", testLogger())

	result, err := svc.SeedDemo(context.Background(), "secret")
	require.NoError(t, err)
	require.True(t, result.Created)
	require.Equal(t, 3, result.ActivityLogs)
	require.NotZero(t, result.OfferingID)

	var trackers []models.ActivityTracker
	require.NoError(t, db.Order("week_number ASC").Find(&trackers).Error)
	require.Len(t, trackers, 3)
	require.NotNil(t, trackers[0].SubmittedAt)
	require.True(t, trackers[0].IsComplete())
	require.Nil(t, trackers[1].SubmittedAt)

	again, err := svc.SeedDemo(context.Background(), "secret")
	require.NoError(t, err)
	require.False(t, again.Created)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.Equal(t, int64(2), users)
}
