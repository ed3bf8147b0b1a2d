package tracking

import (
	"testing"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

func TestFormatEffort(t *testing.T) {
	session := t0

	cases := []struct {
		name   string
		closed int64
		open   *time.Time
		now    time.Time
		want   string
	}{
		{name: "untouched", want: "Not started"},
		{name: "closed minutes", closed: 45, want: "45m"},
		{name: "closed hours", closed: 125, want: "2h 5m"},
		{name: "running seconds", open: &session, now: t0.Add(42 * time.Second), want: "42s"},
		{name: "running minutes", open: &session, now: t0.Add(5*time.Minute + 42*time.Second), want: "5m 42s"},
		{name: "running hours", closed: 60, open: &session, now: t0.Add(65*time.Minute + 7*time.Second), want: "2h 5m 7s"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := model.Task{ActualEffortMinutes: tc.closed, CurrentSessionStartedAt: tc.open}
			if tc.open != nil {
				task.Status = model.StatusInDevelopment
			}
			if got := FormatEffort(task, tc.now); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestBudgetPercentIncludesOpenSession(t *testing.T) {
	budget := 10.0
	session := t0
	task := model.Task{
		Status:                  model.StatusInDevelopment,
		EffortHours:             &budget,
		ActualEffortMinutes:     420,
		CurrentSessionStartedAt: &session,
	}

	pct, ok := BudgetPercent(task, t0.Add(60*time.Minute))
	if !ok {
		t.Fatalf("expected percentage with budget set")
	}
	if pct != 80 {
		t.Fatalf("expected 80%%, got %v", pct)
	}
	if SeverityOf(pct) != SeverityWarning {
		t.Fatalf("expected warning severity, got %s", SeverityOf(pct))
	}
	if SeverityOf(130) != SeverityExceeded || SeverityOf(10) != SeverityNormal {
		t.Fatalf("unexpected severity thresholds")
	}

	if _, ok := BudgetPercent(model.Task{ActualEffortMinutes: 30}, t0); ok {
		t.Fatalf("expected no percentage without budget")
	}
}
