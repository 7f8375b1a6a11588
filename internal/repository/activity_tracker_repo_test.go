package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/models"
)

func TestActivityTrackerRepositoryRejectsDuplicateWeek(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	repo := NewActivityTrackerRepository(db)
	ctx := context.Background()

	end := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	first := newTracker(f, 5, end)
	require.NoError(t, repo.Create(ctx, &first))
	require.Equal(t, models.TaskNotStarted, first.FormativeOneGrading)

	duplicate := newTracker(f, 5, end)
	err := repo.Create(ctx, &duplicate)
	require.Error(t, err)
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestActivityTrackerRepositoryEnforcesInvariantsOnWrite(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	repo := NewActivityTrackerRepository(db)
	ctx := context.Background()
	end := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	bad := newTracker(f, 53, end)
	require.ErrorIs(t, repo.Create(ctx, &bad), models.ErrInvalidWeekNumber)

	bad = newTracker(f, 6, end)
	bad.SummativeGrading = "Almost"
	require.ErrorIs(t, repo.Create(ctx, &bad), models.ErrInvalidTaskStatus)

	bad = newTracker(f, 6, end)
	bad.WeekEndDate = bad.WeekStartDate.AddDate(0, 0, -1)
	require.ErrorIs(t, repo.Create(ctx, &bad), models.ErrInvalidWeekRange)

	good := newTracker(f, 6, end)
	require.NoError(t, repo.Create(ctx, &good))
	good.IntranetSync = "Sometimes"
	require.ErrorIs(t, repo.Update(ctx, &good), models.ErrInvalidTaskStatus)

	var count int64
	require.NoError(t, db.Model(&models.ActivityTracker{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestActivityTrackerRepositoryMarkSubmittedOnce(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	repo := NewActivityTrackerRepository(db)
	ctx := context.Background()

	tracker := newTracker(f, 7, time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, &tracker))

	first := time.Date(2024, time.March, 18, 9, 0, 0, 0, time.UTC)
	changed, err := repo.MarkSubmitted(ctx, tracker.ID, first)
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = repo.MarkSubmitted(ctx, tracker.ID, first.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, changed)

	stored, err := repo.GetByID(ctx, tracker.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SubmittedAt)
	require.True(t, stored.SubmittedAt.Equal(first))
	require.NotNil(t, stored.CourseOffering)
	require.Equal(t, "SE101", stored.CourseOffering.Module.Code)
	require.Equal(t, "Ada", stored.Facilitator.User.FirstName)

	stored.Notes = "updated"
	stored.SubmittedAt = nil
	require.NoError(t, repo.Update(ctx, &stored))

	reloaded, err := repo.GetByID(ctx, tracker.ID)
	require.NoError(t, err)
	require.Equal(t, "updated", reloaded.Notes)
	require.NotNil(t, reloaded.SubmittedAt, "ordinary updates must not clear the submission")
}

func TestActivityTrackerRepositoryListOverdue(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	repo := NewActivityTrackerRepository(db)
	ctx := context.Background()

	now := time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
	tenDays := newTracker(f, 9, now.AddDate(0, 0, -10))
	threeDays := newTracker(f, 10, now.AddDate(0, 0, -3))
	submitted := newTracker(f, 8, now.AddDate(0, 0, -17))
	require.NoError(t, repo.BulkCreate(ctx, []models.ActivityTracker{tenDays, threeDays, submitted}))

	stored, err := repo.FindByAllocationWeek(ctx, f.offering.ID, 8)
	require.NoError(t, err)
	_, err = repo.MarkSubmitted(ctx, stored.ID, now.AddDate(0, 0, -16))
	require.NoError(t, err)

	overdue, err := repo.ListOverdue(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, 9, overdue[0].WeekNumber)
	require.NotNil(t, overdue[0].Facilitator)

	due, err := repo.ListDueBetween(ctx, now.AddDate(0, 0, -4), now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, 10, due[0].WeekNumber)
}

func TestActivityTrackerRepositoryListFilters(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	repo := NewActivityTrackerRepository(db)
	ctx := context.Background()

	now := time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
	complete := newTracker(f, 1, now.AddDate(0, 0, -14))
	complete.FormativeOneGrading = models.TaskDone
	complete.FormativeTwoGrading = models.TaskDone
	complete.SummativeGrading = models.TaskDone
	complete.CourseModeration = models.TaskDone
	complete.IntranetSync = models.TaskDone
	complete.GradeBookStatus = models.TaskDone
	partial := newTracker(f, 2, now.AddDate(0, 0, 3))
	partial.SummativeGrading = models.TaskPending
	require.NoError(t, repo.BulkCreate(ctx, []models.ActivityTracker{complete, partial}))

	items, total, err := repo.List(ctx, ActivityTrackerFilter{Status: TrackerStatusComplete})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, 1, items[0].WeekNumber)

	items, total, err = repo.List(ctx, ActivityTrackerFilter{Status: TrackerStatusIncomplete})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, 2, items[0].WeekNumber)

	items, _, err = repo.List(ctx, ActivityTrackerFilter{Status: TrackerStatusOverdue, Now: now})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 1, items[0].WeekNumber)

	items, total, err = repo.List(ctx, ActivityTrackerFilter{FacilitatorID: &f.facilitator.ID, PageSize: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 1)
	require.Equal(t, 2, items[0].WeekNumber, "expected newest week first")

	require.NoError(t, repo.Delete(ctx, items[0].ID))
	require.ErrorIs(t, repo.Delete(ctx, items[0].ID), gorm.ErrRecordNotFound)
}
