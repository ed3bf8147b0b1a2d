package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/schedule"
	"github.com/Joseda-hg/lazyplan/internal/tracking"
)

// taskView is a task plus its timing as of the response.
type taskView struct {
	model.Task
	Effort        string   `json:"effort"`
	Running       bool     `json:"running"`
	BudgetPercent *float64 `json:"budgetPercent"`
	Severity      string   `json:"severity"`
}

func viewTask(task model.Task, now time.Time) taskView {
	view := taskView{
		Task:     task,
		Effort:   tracking.FormatEffort(task, now),
		Running:  task.HasOpenSession(),
		Severity: tracking.SeverityNormal.String(),
	}
	if pct, ok := tracking.BudgetPercent(task, now); ok {
		view.BudgetPercent = &pct
		view.Severity = tracking.SeverityOf(pct).String()
	}
	return view
}

func filterFromRequest(c *gin.Context) model.Filter {
	return model.Filter{
		Query:      strings.TrimSpace(c.Query("search")),
		ProjectID:  strings.TrimSpace(c.Query("projectId")),
		AssigneeID: strings.TrimSpace(c.Query("assignee")),
		Status:     model.Status(strings.TrimSpace(c.Query("status"))),
	}
}

func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.store.ListTasks(c.Request.Context(), filterFromRequest(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	now := s.now()
	views := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, viewTask(task, now))
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewTask(task, s.now()))
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var input model.TaskInput
	if err := bindJSON(c, &input); err != nil {
		s.writeError(c, err)
		return
	}
	viewer := viewerOf(c)
	input.UpdatedByUserID = &viewer.UserID

	task, err := s.store.CreateTask(c.Request.Context(), input)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.logger.Info("task created", "task", task.ID, "project", task.ProjectID, "by", viewer.UserID)
	c.JSON(http.StatusCreated, viewTask(task, s.now()))
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var patch model.TaskPatch
	if err := bindJSON(c, &patch); err != nil {
		s.writeError(c, err)
		return
	}
	viewer := viewerOf(c)
	patch.UpdatedByUserID = model.Some(viewer.UserID)

	task, err := s.store.UpdateTask(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewTask(task, s.now()))
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.store.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleTransition(action tracking.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := s.store.ApplyTransition(c.Request.Context(), c.Param("id"), action)
		if err != nil {
			s.writeError(c, err)
			return
		}
		s.logger.Info("task "+action.Event(), "task", task.ID, "effort_minutes", task.ActualEffortMinutes, "by", viewerOf(c).UserID)
		// The transition's own clock, so effort agrees with pausedAt/completedAt.
		c.JSON(http.StatusOK, viewTask(task, task.UpdatedAt))
	}
}

func (s *Server) handleTaskMetrics(c *gin.Context) {
	task, err := s.store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	now := s.now()
	metrics, err := schedule.ComputeTask(task, now)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"metrics": metrics,
		"task":    viewTask(task, now),
	})
}

func (s *Server) handleTaskHistory(c *gin.Context) {
	history, err := s.store.ListHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) handleGantt(c *gin.Context) {
	ctx := c.Request.Context()
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}
	tasks, err := s.store.ListTasks(ctx, model.Filter{Query: c.Query("search")})
	if err != nil {
		s.writeError(c, err)
		return
	}
	timeline, err := schedule.BuildTimeline(projects, tasks, strings.TrimSpace(c.Query("projectId")), s.now())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, timeline)
}

func (s *Server) handleProfile(c *gin.Context) {
	viewer := viewerOf(c)
	tasks, err := s.store.ListTasks(c.Request.Context(), model.Filter{AssigneeID: viewer.UserID})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule.ProfileFor(viewer.UserID, tasks))
}
