package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func trackerWithDone(done int) ActivityTracker {
	tracker := ActivityTracker{}
	tracker.ApplyDefaults()
	fields := tracker.statusFields()
	for i := 0; i < done; i++ {
		*fields[i].value = TaskDone
	}
	return tracker
}

func TestCompletionPercentageRoundsToNearest(t *testing.T) {
	expected := map[int]int{0: 0, 1: 17, 2: 33, 3: 50, 4: 67, 5: 83, 6: 100}
	for done, want := range expected {
		tracker := trackerWithDone(done)
		require.Equal(t, want, tracker.CompletionPercentage(), "done=%d", done)
		require.Equal(t, want == 100, tracker.IsComplete(), "done=%d", done)
	}
}

func TestIsCompleteIgnoresPendingTasks(t *testing.T) {
	tracker := trackerWithDone(6)
	tracker.GradeBookStatus = TaskPending

	require.False(t, tracker.IsComplete())
	require.Equal(t, 83, tracker.CompletionPercentage())
}

func TestIsOverdueByStoredDates(t *testing.T) {
	now := time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
	tracker := ActivityTracker{WeekEndDate: now.Add(-time.Hour)}
	require.True(t, tracker.IsOverdueByStoredDates(now))

	tracker.WeekEndDate = now.Add(time.Hour)
	require.False(t, tracker.IsOverdueByStoredDates(now))

	submitted := now.Add(-2 * time.Hour)
	tracker.WeekEndDate = now.Add(-time.Hour)
	tracker.SubmittedAt = &submitted
	require.False(t, tracker.IsOverdueByStoredDates(now))
}

func TestComputedWeekBoundsStartOnSundayBeforeNewYear(t *testing.T) {
	// 1 January 2024 is a Monday.
	ref := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	start, end := ComputedWeekBounds(1, ref)
	require.Equal(t, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), end)

	start, _ = ComputedWeekBounds(3, ref)
	require.Equal(t, time.Date(2024, time.January, 14, 0, 0, 0, 0, time.UTC), start)
}

func TestCurrentWeekNumberMatchesComputedBounds(t *testing.T) {
	days := []time.Time{
		time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 6, 23, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC),
		time.Date(2023, time.October, 1, 8, 0, 0, 0, time.UTC),
	}
	for _, day := range days {
		week := CurrentWeekNumber(day)
		start, end := ComputedWeekBounds(week, day)
		require.False(t, day.Before(start), "%s before week %d start", day, week)
		require.False(t, day.After(end), "%s after week %d end", day, week)
	}

	require.Equal(t, 1, CurrentWeekNumber(time.Date(2024, time.January, 6, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 2, CurrentWeekNumber(time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC)))
}

func TestOverdueRulesDiverge(t *testing.T) {
	now := time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)

	// Week 2 has long passed on the calendar, but the stored dates point into the future.
	tracker := ActivityTracker{
		WeekNumber:    2,
		WeekStartDate: now.Add(24 * time.Hour),
		WeekEndDate:   now.Add(8 * 24 * time.Hour),
	}
	require.True(t, tracker.IsOverdueByComputedWeek(now))
	require.False(t, tracker.IsOverdueByStoredDates(now))

	submitted := now
	tracker.SubmittedAt = &submitted
	require.False(t, tracker.IsOverdueByComputedWeek(now))
}
