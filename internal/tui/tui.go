package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/lazyplan/internal/auth"
	"github.com/Joseda-hg/lazyplan/internal/chart"
	"github.com/Joseda-hg/lazyplan/internal/db"
	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/schedule"
	"github.com/Joseda-hg/lazyplan/internal/tracking"
)

const (
	viewHeader  = "header"
	viewFooter  = "footer"
	viewTodo    = "todo"
	viewActive  = "active"
	viewPaused  = "paused"
	viewReview  = "review"
	viewDone    = "done"
	viewDetail  = "detail"
	viewGantt   = "gantt"
	viewHistory = "history"
	viewSearch  = "search"
	viewForm    = "form"
	viewHelp    = "help"
)

const tickInterval = time.Second

type UI struct {
	store  *db.Store
	viewer auth.Viewer
	logger *log.Logger
	gui    *gocui.Gui
	now    func() time.Time

	filter   model.Filter
	tasks    []model.Task
	lanes    [][]model.Task
	projects []model.Project
	users    []model.User
	history  []model.HistoryEntry

	selected        []int
	lane            int
	selectedHistory int
	focus           string

	form         *formState
	formEditor   *formEditor
	searchActive bool
	helpActive   bool
	status       string
}

type formState struct {
	taskID string
	fields []formField
	index  int
}

type formEditor struct {
	ui *UI
}

func newUI(store *db.Store, viewer auth.Viewer, logger *log.Logger) *UI {
	ui := &UI{
		store:    store,
		viewer:   viewer,
		logger:   logger,
		now:      time.Now,
		focus:    viewTodo,
		lanes:    groupByLane(nil),
		selected: make([]int, len(lanes)),
	}
	ui.formEditor = &formEditor{ui: ui}
	return ui
}

// Run shows the board as viewer until the user quits.
func Run(store *db.Store, viewer auth.Viewer, logger *log.Logger) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(store, viewer, logger)
	ui.gui = gui
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	if err := ui.loadTasks(); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go ui.tick(gui, done)

	logger.Info("tui started", "user", viewer.Email, "role", viewer.Role)
	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}
	return nil
}

// tick redraws once a second so open sessions show elapsed time.
func (u *UI) tick(gui *gocui.Gui, done <-chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			gui.Update(func(*gocui.Gui) error { return nil })
		}
	}
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	global := []struct {
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{gocui.KeyCtrlC, u.quit},
		{'q', u.quit},
		{'r', u.reload},
		{'g', u.clearFilters},
		{'m', u.toggleMine},
		{'s', u.startTask},
		{'p', u.pauseTask},
		{'x', u.stopTask},
		{'a', u.addTask},
		{'e', u.editTask},
		{'d', u.deleteTask},
		{'/', u.startSearch},
		{'?', u.toggleHelp},
		{gocui.KeyTab, u.switchFocus},
		{'6', u.focusHistory},
	}
	for _, binding := range global {
		if err := gui.SetKeybinding("", binding.key, gocui.ModNone, binding.handler); err != nil {
			return err
		}
	}

	for i, l := range lanes {
		name := l.view
		if err := gui.SetKeybinding("", rune('1'+i), gocui.ModNone, func(gui *gocui.Gui, _ *gocui.View) error {
			return u.setFocus(gui, name)
		}); err != nil {
			return err
		}
	}

	lists := []string{viewTodo, viewActive, viewPaused, viewReview, viewDone, viewHistory}
	for _, name := range lists {
		for _, key := range []any{gocui.KeyArrowDown, 'j'} {
			if err := gui.SetKeybinding(name, key, gocui.ModNone, u.moveDown); err != nil {
				return err
			}
		}
		for _, key := range []any{gocui.KeyArrowUp, 'k'} {
			if err := gui.SetKeybinding(name, key, gocui.ModNone, u.moveUp); err != nil {
				return err
			}
		}
		viewName := name
		if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewName, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
			return u.onListClick(gui, viewName, opts)
		}}); err != nil {
			return err
		}
	}

	overlays := []struct {
		view    string
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{viewSearch, gocui.KeyEnter, u.submitSearch},
		{viewSearch, gocui.KeyEsc, u.cancelSearch},
		{viewForm, gocui.KeyEnter, u.submitForm},
		{viewForm, gocui.KeyTab, u.nextFormField},
		{viewForm, gocui.KeyBacktab, u.prevFormField},
		{viewForm, gocui.KeyArrowDown, u.nextFormField},
		{viewForm, gocui.KeyArrowUp, u.prevFormField},
		{viewForm, gocui.KeyEsc, u.cancelForm},
		{viewHelp, gocui.KeyEsc, u.closeHelp},
		{viewHelp, 'q', u.closeHelp},
		{viewHelp, '?', u.closeHelp},
	}
	for _, binding := range overlays {
		if err := gui.SetKeybinding(binding.view, binding.key, gocui.ModNone, binding.handler); err != nil {
			return err
		}
	}
	return u.bindMouseScroll(gui)
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}
	now := u.now()

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	headerView.FgColor = gocui.ColorDefault
	u.renderHeader(headerView)

	footerY1 := max(maxY-2, 1)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	footerView.BgColor = gocui.ColorDefault
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	layout := computeLayout(maxX, bodyBottom-bodyTop+1)
	leftX0 := 0
	leftX1 := leftX0 + layout.leftWidth - 1
	rightX0 := leftX1 + 1
	if rightX0 >= maxX {
		rightX0 = leftX1
	}
	rightX1 := maxX - 1

	y := bodyTop
	for i, l := range lanes {
		y1 := y + layout.laneHeight - 1
		if i == len(lanes)-1 {
			y1 = bodyBottom
		}
		view, err := gui.SetView(l.view, leftX0, y, leftX1, y1, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		focused := u.focus == l.view
		applyViewStyle(view, focused, true)
		if !focused {
			view.TitleColor = l.color
		}
		view.Title = fmt.Sprintf("%s (%d)", l.title, len(u.lanes[i]))
		u.renderTaskList(view, u.lanes[i], u.selected[i], focused, now)
		y = y1 + 1
	}

	detailY1 := bodyTop + layout.detailHeight - 1
	detailView, err := gui.SetView(viewDetail, rightX0, bodyTop, rightX1, detailY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		detailView.Title = "Task"
		detailView.Wrap = true
	}
	applyViewStyle(detailView, false, false)
	u.renderDetail(detailView, now)

	ganttY0 := detailY1 + 1
	ganttY1 := ganttY0 + layout.ganttHeight - 1
	ganttView, err := gui.SetView(viewGantt, rightX0, ganttY0, rightX1, ganttY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	applyViewStyle(ganttView, false, false)
	u.renderGantt(ganttView, now)

	historyView, err := gui.SetView(viewHistory, rightX0, ganttY1+1, rightX1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		historyView.Title = "6 History"
	}
	applyViewStyle(historyView, u.focus == viewHistory, true)
	u.renderHistory(historyView, u.focus == viewHistory, now)

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	if u.searchActive {
		if err := u.showSearch(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewSearch)
	}

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if gui.CurrentView() == nil {
		_, _ = gui.SetCurrentView(u.focus)
	}
	gui.Cursor = u.searchActive || u.form != nil
	return nil
}

type layout struct {
	leftWidth    int
	laneHeight   int
	detailHeight int
	ganttHeight  int
}

func computeLayout(width, height int) layout {
	safeWidth := max(width-2, 20)
	safeHeight := max(height, len(lanes)*3)

	leftWidth := max(safeWidth*2/5, 30)
	if leftWidth > safeWidth-18 {
		leftWidth = safeWidth / 2
	}

	detailHeight := max(int(float64(safeHeight)*0.35), 6)
	ganttHeight := max(int(float64(safeHeight)*0.4), 6)

	return layout{
		leftWidth:    leftWidth,
		laneHeight:   max(safeHeight/len(lanes), 3),
		detailHeight: detailHeight,
		ganttHeight:  ganttHeight,
	}
}

func (u *UI) loadTasks() error {
	ctx := context.Background()
	tasks, err := u.store.ListTasks(ctx, u.filter)
	if err != nil {
		return err
	}
	projects, err := u.store.ListProjects(ctx)
	if err != nil {
		return err
	}
	users, err := u.store.ListUsers(ctx)
	if err != nil {
		return err
	}

	u.tasks = tasks
	u.projects = projects
	u.users = users
	u.lanes = groupByLane(tasks)
	for i := range u.lanes {
		if u.selected[i] >= len(u.lanes[i]) {
			u.selected[i] = max(len(u.lanes[i])-1, 0)
		}
	}
	return u.loadHistory()
}

func (u *UI) loadHistory() error {
	selected := u.selectedTask()
	if selected == nil {
		u.history = nil
		return nil
	}

	history, err := u.store.ListHistory(context.Background(), selected.ID)
	if err != nil {
		return err
	}
	u.history = history
	if u.selectedHistory >= len(u.history) {
		u.selectedHistory = max(len(u.history)-1, 0)
	}
	return nil
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	query := strings.TrimSpace(u.filter.Query)
	if query == "" {
		query = "type / to search"
	}
	scope := "everyone"
	if u.filter.AssigneeID != "" {
		scope = "mine"
	}
	fmt.Fprintf(view, "Search: %s | Tasks: %s | %s (%s)", query, scope, u.viewer.Email, u.viewer.Role)
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	fmt.Fprintln(view, "s start | p pause | x stop | a add | e edit | d delete | m mine | / search | g clear")
	fmt.Fprintln(view, "j/k move | tab cycle | 1-5 lanes | 6 history | r reload | ? help | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderTaskList(view *gocui.View, tasks []model.Task, selected int, focused bool, now time.Time) {
	view.Clear()
	for i, task := range tasks {
		prefix := " "
		if i == selected {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		line := fmt.Sprintf("%s %s", prefix, formatTaskSummary(task, now))
		if code := severityCode(task, now); code != 0 {
			line = colorize(code, line)
		}
		fmt.Fprintln(view, line)
	}
	if focused {
		view.SetCursor(0, min(selected, len(tasks)-1))
	}
}

func (u *UI) renderDetail(view *gocui.View, now time.Time) {
	view.Clear()
	selected := u.selectedTask()
	if selected == nil {
		fmt.Fprint(view, "No task selected")
		return
	}
	task := *selected

	lines := []string{}
	if u.focus == viewHistory {
		if entry := u.selectedHistoryEntry(); entry != nil {
			lines = append(lines,
				"History Detail",
				fmt.Sprintf("When: %s (%s)", entry.CreatedAt.Local().Format("2006-01-02 15:04:05"), humanize.RelTime(entry.CreatedAt, now, "ago", "from now")),
				fmt.Sprintf("Type: %s", entry.EventType),
				fmt.Sprintf("Details: %s", entry.Details),
				"",
			)
		}
	}

	lines = append(lines,
		task.Title,
		fmt.Sprintf("Project: %s", u.projectName(task.ProjectID)),
		fmt.Sprintf("Status: %s", task.Status.Label()),
		fmt.Sprintf("Assignee: %s", u.assigneeName(task.AssignedToUserID)),
		fmt.Sprintf("Effort: %s", tracking.FormatEffort(task, now)),
		fmt.Sprintf("Budget: %s", formatBudget(task, now)),
	)
	if metrics, err := schedule.ComputeTask(task, now); err == nil {
		lines = append(lines, fmt.Sprintf("Planned: %s to %s", metrics.EffectiveStart.Format("Mon Jan 2"), metrics.PlannedEnd.Format("Mon Jan 2")))
		if metrics.HasOvertime {
			lines = append(lines, fmt.Sprintf("Overtime: +%d days, until %s", metrics.OvertimeSpanDays, metrics.ActualEnd.Format("Mon Jan 2")))
		}
	} else {
		lines = append(lines, fmt.Sprintf("Schedule: %v", err))
	}
	lines = append(lines,
		fmt.Sprintf("Created: %s", humanize.RelTime(task.CreatedAt, now, "ago", "from now")),
		"",
		task.Description,
	)
	fmt.Fprint(view, strings.Join(lines, "\n"))
}

// ganttTimeline is the chart for the selected task's project, or for all
// projects when nothing is selected.
func (u *UI) ganttTimeline(now time.Time) (schedule.Timeline, error) {
	projectID := ""
	if selected := u.selectedTask(); selected != nil {
		projectID = selected.ProjectID
	}
	return schedule.BuildTimeline(u.projects, u.tasks, projectID, now)
}

func (u *UI) renderGantt(view *gocui.View, now time.Time) {
	view.Clear()
	timeline, err := u.ganttTimeline(now)
	if err != nil {
		view.Title = "Gantt"
		fmt.Fprintf(view, "cannot chart: %v", err)
		return
	}
	view.Title = "Gantt"
	if timeline.ProjectID != "" {
		view.Title = "Gantt: " + u.projectName(timeline.ProjectID)
	}
	fmt.Fprint(view, chart.Render(timeline, now, chart.Options{Plain: true}))
}

func (u *UI) renderHistory(view *gocui.View, focused bool, now time.Time) {
	view.Clear()
	for index, entry := range u.history {
		prefix := " "
		if index == u.selectedHistory {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatHistoryLine(entry, now))
	}
	if focused {
		view.SetCursor(0, min(u.selectedHistory, len(u.history)-1))
	}
}

func (u *UI) projectName(projectID string) string {
	for _, project := range u.projects {
		if project.ID == projectID {
			return project.Name
		}
	}
	return projectID
}

func (u *UI) assigneeName(userID *string) string {
	if userID == nil {
		return "Unassigned"
	}
	for _, user := range u.users {
		if user.ID == *userID {
			if name := user.FullName(); name != "" {
				return name
			}
			return user.Email
		}
	}
	return *userID
}

func (u *UI) onListClick(gui *gocui.Gui, viewName string, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	view, err := gui.View(viewName)
	if err != nil {
		return nil
	}

	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	row := max(opts.Y-y0-1+oy, 0)

	if i, ok := laneIndex(viewName); ok {
		u.selected[i] = max(min(row, len(u.lanes[i])-1), 0)
		return u.setFocus(gui, viewName)
	}
	if viewName == viewHistory {
		u.selectedHistory = max(min(row, len(u.history)-1), 0)
		return u.setFocus(gui, viewHistory)
	}
	return nil
}

func (u *UI) bindMouseScroll(gui *gocui.Gui) error {
	views := []string{viewTodo, viewActive, viewPaused, viewReview, viewDone, viewDetail, viewGantt, viewHistory}
	for _, name := range views {
		if err := gui.SetKeybinding(name, gocui.MouseWheelUp, gocui.ModNone, u.scrollUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.MouseWheelDown, gocui.ModNone, u.scrollDown); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) scrollUp(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if view == nil {
		view = gui.CurrentView()
	}
	if view == nil {
		return nil
	}
	view.ScrollUp(1)
	return nil
}

func (u *UI) scrollDown(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if view == nil {
		view = gui.CurrentView()
	}
	if view == nil {
		return nil
	}
	view.ScrollDown(1)
	return nil
}

func (u *UI) selectedHistoryEntry() *model.HistoryEntry {
	if u.selectedHistory >= 0 && u.selectedHistory < len(u.history) {
		return &u.history[u.selectedHistory]
	}
	return nil
}

// selectedTask is the highlighted task of the last focused lane.
func (u *UI) selectedTask() *model.Task {
	tasks := u.lanes[u.lane]
	index := u.selected[u.lane]
	if index >= 0 && index < len(tasks) {
		return &tasks[index]
	}
	return nil
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	next := viewHistory
	if i, ok := laneIndex(u.focus); ok && i < len(lanes)-1 {
		next = lanes[i+1].view
	} else if u.focus == viewHistory {
		next = lanes[0].view
	}
	return u.setFocus(gui, next)
}

func (u *UI) focusHistory(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewHistory)
}

func (u *UI) setFocus(gui *gocui.Gui, name string) error {
	if u.inputActive() {
		return nil
	}
	u.focus = name
	if i, ok := laneIndex(name); ok {
		u.lane = i
	}
	if gui != nil {
		_, _ = gui.SetCurrentView(name)
	}
	return u.loadHistory()
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.focus == viewHistory {
		if u.selectedHistory < len(u.history)-1 {
			u.selectedHistory++
		}
		return nil
	}
	if u.selected[u.lane] < len(u.lanes[u.lane])-1 {
		u.selected[u.lane]++
		u.selectedHistory = 0
		return u.loadHistory()
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.focus == viewHistory {
		if u.selectedHistory > 0 {
			u.selectedHistory--
		}
		return nil
	}
	if u.selected[u.lane] > 0 {
		u.selected[u.lane]--
		u.selectedHistory = 0
		return u.loadHistory()
	}
	return nil
}

func (u *UI) reload(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	return u.loadTasks()
}

func (u *UI) clearFilters(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.filter = model.Filter{}
	return u.reload(gui, nil)
}

func (u *UI) toggleMine(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.filter.AssigneeID == "" {
		u.filter.AssigneeID = u.viewer.UserID
	} else {
		u.filter.AssigneeID = ""
	}
	return u.reload(gui, nil)
}

func (u *UI) startTask(_ *gocui.Gui, _ *gocui.View) error {
	return u.transition(tracking.ActionStart)
}

func (u *UI) pauseTask(_ *gocui.Gui, _ *gocui.View) error {
	return u.transition(tracking.ActionPause)
}

func (u *UI) stopTask(_ *gocui.Gui, _ *gocui.View) error {
	return u.transition(tracking.ActionStop)
}

// transition applies action to the selected task and keeps it selected in
// whichever lane it lands.
func (u *UI) transition(action tracking.Action) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	task, err := u.store.ApplyTransition(context.Background(), selected.ID, action)
	if err != nil {
		u.status = err.Error()
		if errors.Is(err, tracking.ErrInvalidTransition) || errors.Is(err, db.ErrConflict) || errors.Is(err, db.ErrNotFound) {
			u.logger.Warn("transition rejected", "task", selected.ID, "action", action, "err", err)
		} else {
			u.logger.Error("transition failed", "task", selected.ID, "action", action, "err", err)
		}
		return u.loadTasks()
	}
	u.logger.Info("task "+action.Event(), "task", task.ID, "effort_minutes", task.ActualEffortMinutes, "by", u.viewer.UserID)
	u.status = fmt.Sprintf("%s %s (%s)", task.Title, action.Event(), tracking.FormatEffort(task, u.now()))
	if err := u.loadTasks(); err != nil {
		return err
	}
	u.selectTask(task.ID)
	return u.loadHistory()
}

func (u *UI) selectTask(taskID string) {
	for i, tasks := range u.lanes {
		for j, task := range tasks {
			if task.ID == taskID {
				u.lane = i
				u.selected[i] = j
				u.focus = lanes[i].view
				if u.gui != nil {
					_, _ = u.gui.SetCurrentView(u.focus)
				}
				return
			}
		}
	}
}

func (u *UI) requireManager() bool {
	if u.viewer.CanManage() {
		return true
	}
	u.status = "only managers can change tasks"
	return false
}

func (u *UI) formOptions() formOptions {
	return formOptions{projects: u.projects, users: u.users}
}

func (u *UI) addTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || !u.requireManager() {
		return nil
	}
	fields := buildFormFields(nil, u.formOptions())
	if selected := u.selectedTask(); selected != nil {
		fields[fieldProject].Value = u.projectName(selected.ProjectID)
	}
	u.form = &formState{fields: fields}
	return nil
}

func (u *UI) editTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || !u.requireManager() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.form = &formState{taskID: selected.ID, fields: buildFormFields(selected, u.formOptions())}
	return nil
}

func (u *UI) deleteTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || !u.requireManager() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	if err := u.store.DeleteTask(context.Background(), selected.ID); err != nil {
		u.status = err.Error()
		return nil
	}
	u.logger.Info("task deleted", "task", selected.ID, "by", u.viewer.UserID)
	u.status = ""
	return u.loadTasks()
}

func (u *UI) showForm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(12, max(8, maxY/2))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	view.Title = "New Task"
	if u.form.taskID != "" {
		view.Title = "Edit Task"
	}
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) submitForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}
	values, err := parseFormFields(u.form.fields, u.formOptions())
	if err != nil {
		u.status = err.Error()
		return nil
	}

	ctx := context.Background()
	var task model.Task
	if u.form.taskID == "" {
		input := values.input()
		input.UpdatedByUserID = &u.viewer.UserID
		task, err = u.store.CreateTask(ctx, input)
	} else {
		patch := values.patch()
		patch.UpdatedByUserID = model.Some(u.viewer.UserID)
		task, err = u.store.UpdateTask(ctx, u.form.taskID, patch)
	}
	if err != nil {
		u.status = err.Error()
		return nil
	}

	u.form = nil
	u.status = ""
	if gui != nil {
		_ = gui.DeleteView(viewForm)
	}
	if err := u.loadTasks(); err != nil {
		return err
	}
	u.selectTask(task.ID)
	return u.loadHistory()
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	_ = gui.DeleteView(viewForm)
	_, _ = gui.SetCurrentView(u.focus)
	return nil
}

func (u *UI) nextFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		value := field.Value
		if index == fieldStatus {
			value = fmt.Sprintf("%s (%s)", value, model.Status(value).Label())
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, value)
	}
	label := u.form.fields[u.form.index].Label + ": "
	cursorX := len([]rune(label)) + len([]rune(u.form.fields[u.form.index].Value)) + 2
	view.SetCursor(cursorX, u.form.index)
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || view == nil {
		return false
	}
	index := ui.form.index
	field := &ui.form.fields[index]

	if isCycleField(index) {
		options := ui.formOptions().choices(index)
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = cycleValue(options, field.Value, 1)
		case gocui.KeyArrowLeft:
			field.Value = cycleValue(options, field.Value, -1)
		}
		ui.renderForm(view)
		return true
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderForm(view)
	return true
}

func (u *UI) startSearch(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.searchActive = true
	return nil
}

func (u *UI) showSearch(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(30, maxX/2)
	height := 3
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewSearch, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Search"
		view.Wrap = true
		view.Clear()
		fmt.Fprint(view, u.filter.Query)
	}
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	_, _ = gui.SetCurrentView(viewSearch)
	return nil
}

func (u *UI) submitSearch(gui *gocui.Gui, view *gocui.View) error {
	u.filter.Query = strings.TrimSpace(view.Buffer())
	u.searchActive = false
	u.status = ""
	_ = gui.DeleteView(viewSearch)
	_, _ = gui.SetCurrentView(u.focus)
	return u.loadTasks()
}

func (u *UI) cancelSearch(gui *gocui.Gui, _ *gocui.View) error {
	u.searchActive = false
	_ = gui.DeleteView(viewSearch)
	_, _ = gui.SetCurrentView(u.focus)
	return nil
}

func (u *UI) toggleHelp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	_ = gui.DeleteView(viewHelp)
	_, _ = gui.SetCurrentView(u.focus)
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 18
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) inputActive() bool {
	return u.searchActive || u.form != nil || u.helpActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  Tab cycle panes (lanes, then history)",
		"  1 Not started | 2 In progress | 3 Paused | 4 Review | 5 Done | 6 History",
		"  j/k or arrows move selection",
		"  mouse click to focus/select, wheel scrolls",
		"",
		"Time tracking:",
		"  s start or resume | p pause | x stop",
		"",
		"Tasks (managers):",
		"  a add | e edit | d delete",
		"  enter save (form) | tab next field | space/left/right cycle choices",
		"",
		"Search/Filter:",
		"  / search | m only my tasks | g clear filters",
		"",
		"Other:",
		"  r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}
