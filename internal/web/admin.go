package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/schedule"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}
	token, user, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Warn("login failed", "email", req.Email, "err", err)
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (s *Server) handleMe(c *gin.Context) {
	user, err := s.store.GetUser(c.Request.Context(), viewerOf(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var input model.ProjectInput
	if err := bindJSON(c, &input); err != nil {
		s.writeError(c, err)
		return
	}
	viewer := viewerOf(c)
	input.UpdatedByUserID = &viewer.UserID

	project, err := s.store.CreateProject(c.Request.Context(), input)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	var patch model.ProjectPatch
	if err := bindJSON(c, &patch); err != nil {
		s.writeError(c, err)
		return
	}
	patch.UpdatedByUserID = model.Some(viewerOf(c).UserID)

	project, err := s.store.UpdateProject(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	if err := s.store.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var input model.UserInput
	if err := bindJSON(c, &input); err != nil {
		s.writeError(c, err)
		return
	}
	viewer := viewerOf(c)
	input.UpdatedByUserID = &viewer.UserID

	user, err := s.auth.CreateUser(c.Request.Context(), input)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.logger.Info("user created", "user", user.ID, "role", user.Role, "by", viewer.UserID)
	c.JSON(http.StatusCreated, user)
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	var patch model.UserPatch
	if err := bindJSON(c, &patch); err != nil {
		s.writeError(c, err)
		return
	}
	patch.UpdatedByUserID = model.Some(viewerOf(c).UserID)

	user, err := s.auth.UpdateUser(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	if err := s.store.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleUserSchedule(c *gin.Context) {
	start := s.now()
	if raw := strings.TrimSpace(c.Query("start")); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			s.writeError(c, &model.ValidationError{Field: "start", Message: "expected YYYY-MM-DD", Err: err})
			return
		}
		start = parsed
	}

	userID := c.Param("id")
	tasks, err := s.store.ListTasks(c.Request.Context(), model.Filter{AssigneeID: userID})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule.MiniSchedule(tasks, userID, c.Query("excludeTaskId"), start))
}
