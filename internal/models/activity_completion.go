package models

import (
	"math"
	"time"
)

// TaskStatuses returns the six task statuses in their canonical order.
func (a ActivityTracker) TaskStatuses() []TaskStatus {
	return []TaskStatus{
		a.FormativeOneGrading,
		a.FormativeTwoGrading,
		a.SummativeGrading,
		a.CourseModeration,
		a.IntranetSync,
		a.GradeBookStatus,
	}
}

// DoneCount counts the tasks marked Done.
func (a ActivityTracker) DoneCount() int {
	count := 0
	for _, status := range a.TaskStatuses() {
		if status == TaskDone {
			count++
		}
	}
	return count
}

// IsComplete reports whether every task is Done.
func (a ActivityTracker) IsComplete() bool {
	return a.DoneCount() == len(a.TaskStatuses())
}

// CompletionPercentage is the share of Done tasks rounded to the nearest integer.
func (a ActivityTracker) CompletionPercentage() int {
	total := len(a.TaskStatuses())
	return int(math.Round(float64(a.DoneCount()) * 100 / float64(total)))
}

// IsSubmitted reports whether the log has been submitted.
func (a ActivityTracker) IsSubmitted() bool {
	return a.SubmittedAt != nil
}

// IsOverdueByStoredDates is true when the log is unsubmitted and its stored end date has passed.
// Detail and list views use this rule.
func (a ActivityTracker) IsOverdueByStoredDates(now time.Time) bool {
	return a.SubmittedAt == nil && a.WeekEndDate.Before(now)
}

// IsOverdueByComputedWeek is true when the log is unsubmitted and the calendar week derived
// from WeekNumber (in now's year) has fully elapsed. Dashboard summaries use this rule; it
// ignores the stored week dates.
func (a ActivityTracker) IsOverdueByComputedWeek(now time.Time) bool {
	if a.SubmittedAt != nil {
		return false
	}
	_, end := ComputedWeekBounds(a.WeekNumber, now)
	return now.After(end)
}

// ComputedWeekBounds derives the start and end of a week from the calendar. Week 1 starts on
// the Sunday on or before 1 January of the reference year; the end is the last instant
// before the following week starts.
func ComputedWeekBounds(weekNumber int, reference time.Time) (time.Time, time.Time) {
	loc := reference.Location()
	jan1 := time.Date(reference.Year(), time.January, 1, 0, 0, 0, 0, loc)
	firstSunday := jan1.AddDate(0, 0, -int(jan1.Weekday()))
	start := firstSunday.AddDate(0, 0, (weekNumber-1)*7)
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}

// CurrentWeekNumber returns the calendar week of now under the ComputedWeekBounds numbering.
func CurrentWeekNumber(now time.Time) int {
	jan1 := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	days := now.YearDay() - 1
	return int(math.Ceil(float64(days+int(jan1.Weekday())+1) / 7))
}
