package schedule

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

var (
	monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	friday = time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestWorkingHoursProfile(t *testing.T) {
	want := []float64{7.5, 7.5, 7.5, 7.5, 6.5, 0, 0}
	for i, hours := range want {
		day := monday.AddDate(0, 0, i)
		if got := WorkingHours(day); got != hours {
			t.Fatalf("%s: expected %v hours, got %v", day.Weekday(), hours, got)
		}
	}
}

func TestProjectEndCapacityBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
		hours float64
		want  time.Time
	}{
		{name: "monday full day", start: monday, hours: 7.5, want: monday},
		{name: "monday spill", start: monday, hours: 7.51, want: date(2024, 6, 4)},
		{name: "two days exactly", start: monday, hours: 15, want: date(2024, 6, 4)},
		{name: "friday full day", start: friday, hours: 6.5, want: friday},
		{name: "friday spill skips weekend", start: friday, hours: 6.51, want: date(2024, 6, 10)},
		{name: "saturday start", start: date(2024, 6, 8), hours: 1, want: date(2024, 6, 10)},
		{name: "full week", start: monday, hours: 36.5, want: friday},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ProjectEnd(tc.start, tc.hours); !got.Equal(tc.want) {
				t.Fatalf("ProjectEnd(%s, %v) = %s, want %s", tc.start.Format("Mon 2006-01-02"), tc.hours, got.Format("Mon 2006-01-02"), tc.want.Format("Mon 2006-01-02"))
			}
		})
	}
}

func TestProjectEndDegenerateReturnsStart(t *testing.T) {
	start := time.Date(2024, 6, 5, 14, 30, 0, 0, time.UTC)
	for _, hours := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		if got := ProjectEnd(start, hours); !got.Equal(start) {
			t.Fatalf("ProjectEnd(start, %v) = %v, want start unchanged", hours, got)
		}
	}
}

func TestProjectEndNeverMovesBackwardOrLandsOnWeekend(t *testing.T) {
	for offset := 0; offset < 14; offset++ {
		start := monday.AddDate(0, 0, offset)
		for hours := 0.0; hours <= 60; hours += 0.25 {
			end := ProjectEnd(start, hours)
			if end.Before(start) {
				t.Fatalf("ProjectEnd(%s, %v) moved backward to %s", start, hours, end)
			}
			if hours > 0 && WorkingHours(end) == 0 {
				t.Fatalf("ProjectEnd(%s, %v) ended on a %s", start, hours, end.Weekday())
			}
		}
	}
}

// walkEnd spends hours one day at a time.
func walkEnd(start time.Time, hours float64) time.Time {
	day := Day(start)
	for {
		hours -= WorkingHours(day)
		if hours <= 0 {
			return day
		}
		day = day.AddDate(0, 0, 1)
	}
}

func TestProjectEndMatchesDailyWalk(t *testing.T) {
	for offset := 0; offset < 7; offset++ {
		start := monday.AddDate(0, 0, offset)
		for _, hours := range []float64{0.5, 34.5, 35, 69, 69.01, 103.5, 250.25, 1000, 12345.5, model.MaxEffortHours} {
			if got, want := ProjectEnd(start, hours), walkEnd(start, hours); !got.Equal(want) {
				t.Fatalf("ProjectEnd(%s, %v) = %s, want %s", start.Weekday(), hours, got, want)
			}
		}
	}
}

func TestProjectEndLargeBudgetReturnsPromptly(t *testing.T) {
	begin := time.Now()
	end := ProjectEnd(monday, 1e9)
	if elapsed := time.Since(begin); elapsed > time.Second {
		t.Fatalf("ProjectEnd took %s", elapsed)
	}
	if !end.After(monday) || WorkingHours(end) == 0 {
		t.Fatalf("unexpected end %s", end)
	}
}

func TestProjectEndIgnoresClockTime(t *testing.T) {
	start := time.Date(2024, 6, 3, 17, 45, 0, 0, time.UTC)
	if got := ProjectEnd(start, 7.5); !got.Equal(monday) {
		t.Fatalf("expected end on the start day, got %v", got)
	}
}

func TestDaysBetweenAcrossDaylightSaving(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	start := time.Date(2024, 3, 29, 0, 0, 0, 0, rome)
	end := ProjectEnd(start, 7.5)
	if end.Day() != 1 || end.Month() != time.April {
		t.Fatalf("expected Monday April 1, got %v", end)
	}
	if got := DaysBetween(start, end); got != 3 {
		t.Fatalf("expected 3 calendar days across the clock change, got %d", got)
	}
}

func TestValidateHours(t *testing.T) {
	if err := ValidateHours(0); err != nil {
		t.Fatalf("expected zero hours to be valid, got %v", err)
	}
	if err := ValidateHours(-0.5); !errors.Is(err, model.ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget, got %v", err)
	}
	if err := ValidateHours(math.Inf(1)); !errors.Is(err, model.ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget for infinity, got %v", err)
	}
	if err := ValidateHours(model.MaxEffortHours); err != nil {
		t.Fatalf("expected the maximum budget to be valid, got %v", err)
	}
	if err := ValidateHours(1e9); !errors.Is(err, model.ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget above the maximum, got %v", err)
	}
}
