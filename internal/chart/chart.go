// Package chart renders Gantt timelines as text.
package chart

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/schedule"
)

const (
	cellWidth     = 3
	labelWidth    = 24
	plannedCell   = "███"
	overtimeCell  = "▓▓▓"
	weekendCell   = " · "
	emptyCell     = "   "
	todayCell     = " │ "
	ellipsisRune  = '…'
	summarySep    = " · "
	metaSeparator = "  "
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	faintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	todayStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7DC6F")).Bold(true)
	overtimeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	projectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	statusStyles = map[model.Status]lipgloss.Style{
		model.StatusNotStarted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		model.StatusInDevelopment: lipgloss.NewStyle().Foreground(lipgloss.Color("#4A90E2")),
		model.StatusPaused:        lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
		model.StatusCancelled:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		model.StatusCompleted:     lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		model.StatusInTest:        lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")),
		model.StatusInProd:        lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		model.StatusInDev:         lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")),
	}
)

type Options struct {
	// Plain disables styling, for logs and tests.
	Plain bool
}

type renderer struct {
	opts Options
	sb   strings.Builder
}

func (r *renderer) paint(style lipgloss.Style, text string) string {
	if r.opts.Plain {
		return text
	}
	return style.Render(text)
}

// Render draws timeline as of today: a header of day columns, one row per
// item and a summary footer.
func Render(timeline schedule.Timeline, today time.Time, opts Options) string {
	r := &renderer{opts: opts}
	r.header(timeline)
	if len(timeline.Items) == 0 {
		r.sb.WriteString(r.paint(faintStyle, "No tasks to schedule."))
		r.sb.WriteString("\n")
	}
	for _, item := range timeline.Items {
		r.row(timeline, item)
	}
	r.footer(timeline, today)
	return r.sb.String()
}

func (r *renderer) header(timeline schedule.Timeline) {
	var months, days, weekdays strings.Builder
	lastMonth := time.Month(0)
	for _, column := range timeline.Columns {
		month := ""
		if column.Date.Month() != lastMonth {
			month = column.Date.Format("Jan")
			lastMonth = column.Date.Month()
		}
		months.WriteString(fmt.Sprintf("%-*s", cellWidth, month))

		day := fmt.Sprintf("%2d ", column.Date.Day())
		weekday := fmt.Sprintf(" %c ", column.Date.Weekday().String()[0])
		switch {
		case column.Today:
			day = r.paint(todayStyle, day)
			weekday = r.paint(todayStyle, weekday)
		case column.Weekend:
			day = r.paint(faintStyle, day)
			weekday = r.paint(faintStyle, weekday)
		}
		days.WriteString(day)
		weekdays.WriteString(weekday)
	}

	pad := strings.Repeat(" ", labelWidth+1)
	title := "All projects"
	if timeline.ProjectID != "" {
		title = "Tasks"
	}
	r.sb.WriteString(r.paint(titleStyle, padLabel(title)) + " " + strings.TrimRight(months.String(), " ") + "\n")
	r.sb.WriteString(pad + days.String() + "\n")
	r.sb.WriteString(pad + weekdays.String() + "\n")
}

func (r *renderer) row(timeline schedule.Timeline, item schedule.Item) {
	barStyle := projectStyle
	if item.Status != "" {
		if style, ok := statusStyles[model.Status(item.Status)]; ok {
			barStyle = style
		}
	}

	var cells strings.Builder
	for i, column := range timeline.Columns {
		pos := i - item.Offset
		switch {
		case pos >= 0 && pos < item.PlannedSpanDays:
			cells.WriteString(r.paint(barStyle, plannedCell))
		case item.OvertimeSpanDays > 0 && pos >= item.OvertimeStartOffsetDays && pos < item.OvertimeStartOffsetDays+item.OvertimeSpanDays:
			cells.WriteString(r.paint(overtimeStyle, overtimeCell))
		case column.Today:
			cells.WriteString(r.paint(todayStyle, todayCell))
		case column.Weekend:
			cells.WriteString(r.paint(faintStyle, weekendCell))
		default:
			cells.WriteString(emptyCell)
		}
	}

	meta := item.Label
	if item.Meta != "" {
		meta += summarySep + item.Meta
	}
	if item.OvertimeSpanDays > 0 {
		meta += summarySep + r.paint(overtimeStyle, fmt.Sprintf("+%s overtime", days(item.OvertimeSpanDays)))
	}
	r.sb.WriteString(padLabel(item.Title) + " " + cells.String() + metaSeparator + r.paint(faintStyle, meta) + "\n")
}

func (r *renderer) footer(timeline schedule.Timeline, today time.Time) {
	summary := timeline.Summary
	parts := []string{
		fmt.Sprintf("%s tasks", humanize.Comma(int64(summary.Total))),
		fmt.Sprintf("%d%% in prod", summary.CompletionRate),
		fmt.Sprintf("%sh active", humanize.Ftoa(summary.ActiveWorkloadHours)),
		fmt.Sprintf("%d pending review", summary.PendingReview),
	}
	r.sb.WriteString("\n" + strings.Join(parts, summarySep) + "\n")

	window := timeline.Window
	end := window.Start.AddDate(0, 0, window.Length-1)
	opens := humanize.RelTime(window.Start, schedule.Day(today), "ago", "from now")
	if schedule.DaysBetween(window.Start, today) == 0 {
		opens = "today"
	}
	r.sb.WriteString(r.paint(faintStyle, fmt.Sprintf("%s to %s, opens %s",
		window.Start.Format("Mon Jan 2"), end.Format("Mon Jan 2"), opens)) + "\n")
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// padLabel fits text into the label column.
func padLabel(text string) string {
	runes := []rune(text)
	if len(runes) > labelWidth {
		runes = append(runes[:labelWidth-1], ellipsisRune)
	}
	return string(runes) + strings.Repeat(" ", labelWidth-len(runes))
}
