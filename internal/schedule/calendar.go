// Package schedule projects effort budgets onto the working calendar and
// derives the Gantt geometry of tasks and projects.
package schedule

import (
	"math"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

// weeklyHours is the capacity of any seven consecutive days.
const weeklyHours = 4*7.5 + 6.5

// WorkingHours is the fixed weekly capacity profile.
func WorkingHours(day time.Time) float64 {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return 0
	case time.Friday:
		return 6.5
	default:
		return 7.5
	}
}

// ProjectEnd returns the calendar day on which hours of work starting on
// start are used up. Zero, negative and non-finite hours return start as is.
func ProjectEnd(start time.Time, hours float64) time.Time {
	if !(hours > 0) || math.IsInf(hours, 0) {
		return start
	}

	day := Day(start)
	remaining := hours
	// Any seven consecutive days hold exactly one week of capacity, so whole
	// weeks that leave work over are skipped without walking them.
	if weeks := math.Ceil(remaining/weeklyHours) - 1; weeks > 0 {
		remaining -= weeks * weeklyHours
		day = day.AddDate(0, 0, 7*int(weeks))
	}
	for {
		if capacity := WorkingHours(day); capacity > 0 {
			remaining -= capacity
		}
		if remaining <= 0 {
			return day
		}
		day = day.AddDate(0, 0, 1)
	}
}

// ValidateHours rejects hours that cannot be a budget.
func ValidateHours(hours float64) error {
	return model.ValidateBudget(&hours)
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from a to b, ignoring clock time and
// daylight saving shifts.
func DaysBetween(a, b time.Time) int {
	return int(dayNumber(b) - dayNumber(a))
}

func dayNumber(t time.Time) int64 {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
