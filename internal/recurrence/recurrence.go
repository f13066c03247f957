package recurrence

import (
	"sort"
	"time"

	"github.com/yukikurage/shared-calendar-api/internal/models"
)

// DateOnly truncates a time to its calendar date in the same location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysInMonth returns the number of days in the month containing t.
func DaysInMonth(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// EndOfMonth returns the last day of the month containing t.
func EndOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), DaysInMonth(t), 0, 0, 0, 0, t.Location())
}

// IsLastDayOfMonth reports whether t falls on the last day of its month.
func IsLastDayOfMonth(t time.Time) bool {
	return t.Day() == DaysInMonth(t)
}

// NextMonthly computes the date of the next monthly occurrence after d.
// A task anchored to the last day of its month tracks month-end: Jan 31
// produces Feb 28 (or 29), and completing that produces Mar 31. Any
// other day of month is kept, clamped to the length of the next month.
func NextMonthly(d time.Time) time.Time {
	firstOfNext := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location()).AddDate(0, 1, 0)

	if IsLastDayOfMonth(d) {
		return EndOfMonth(firstOfNext)
	}

	day := d.Day()
	if max := DaysInMonth(firstOfNext); day > max {
		day = max
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, 0, 0, 0, 0, d.Location())
}

// NextOccurrence returns the first date strictly after from on which a
// monthly reminder anchored to the given day of month falls. A day of
// zero or less means "last day of the month". Days beyond the length of
// a month are clamped to its end.
func NextOccurrence(day int, from time.Time) time.Time {
	fromDate := DateOnly(from)

	if day <= 0 {
		current := EndOfMonth(fromDate)
		if current.After(fromDate) {
			return current
		}
		return EndOfMonth(fromDate.AddDate(0, 1, 0))
	}

	candidate := clampedDate(fromDate, day)
	if candidate.After(fromDate) {
		return candidate
	}

	firstOfNext := time.Date(fromDate.Year(), fromDate.Month(), 1, 0, 0, 0, 0, fromDate.Location()).AddDate(0, 1, 0)
	return clampedDate(firstOfNext, day)
}

func clampedDate(inMonth time.Time, day int) time.Time {
	if max := DaysInMonth(inMonth); day > max {
		day = max
	}
	return time.Date(inMonth.Year(), inMonth.Month(), day, 0, 0, 0, 0, inMonth.Location())
}

// NextInstance builds the follow-up task created when a monthly
// recurring task is completed. The completed row stays in place; the
// new row copies title, priority, reminder time and owner, dated one
// month on with month-end anchoring.
func NextInstance(completed models.Task) models.Task {
	next := NextMonthly(completed.Date)

	reminderDate := completed.ReminderDate
	if reminderDate == nil {
		d := next
		reminderDate = &d
	}

	return models.Task{
		CalendarID:         completed.CalendarID,
		CreatorID:          completed.CreatorID,
		CreatedByUsername:  completed.CreatedByUsername,
		Title:              completed.Title,
		Date:               next,
		Priority:           completed.Priority,
		Position:           0,
		ReminderTime:       completed.ReminderTime,
		ReminderDate:       reminderDate,
		IsMonthlyRecurring: true,
	}
}

// CollapseMonthly reduces same-title monthly tasks to their most-future
// instance so a reminder list shows the next occurrence instead of the
// accumulated completion history. Non-monthly tasks pass through. The
// result is ordered by date ascending.
func CollapseMonthly(tasks []models.Task) []models.Task {
	latest := make(map[string]models.Task)
	var result []models.Task

	for _, t := range tasks {
		if !t.IsMonthlyRecurring {
			result = append(result, t)
			continue
		}
		if existing, ok := latest[t.Title]; !ok || t.Date.After(existing.Date) {
			latest[t.Title] = t
		}
	}

	for _, t := range latest {
		result = append(result, t)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result
}
