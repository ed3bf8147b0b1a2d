package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Joseda-hg/lazyplan/internal/auth"
	"github.com/Joseda-hg/lazyplan/internal/db"
	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/tracking"
)

const (
	viewerKey       = "viewer"
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-Id"
)

type Server struct {
	store  *db.Store
	auth   *auth.Service
	logger *log.Logger
	now    func() time.Time
	router *gin.Engine
}

func NewServer(store *db.Store, authService *auth.Service, logger *log.Logger) *Server {
	s := &Server{
		store:  store,
		auth:   authService,
		logger: logger,
		now:    time.Now,
		router: gin.New(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(s.requestID(), s.accessLog(), gin.Recovery())

	api := s.router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/auth/login", s.handleLogin)

	authed := api.Group("", s.authenticate())
	{
		authed.GET("/auth/me", s.handleMe)
		authed.GET("/profile", s.handleProfile)
		authed.GET("/gantt", s.handleGantt)

		authed.GET("/projects", s.handleListProjects)
		authed.POST("/projects", requireRole(model.RoleAdmin), s.handleCreateProject)
		authed.PATCH("/projects/:id", requireRole(model.RoleAdmin), s.handleUpdateProject)
		authed.DELETE("/projects/:id", requireRole(model.RoleAdmin), s.handleDeleteProject)

		authed.GET("/tasks", s.handleListTasks)
		authed.POST("/tasks", requireRole(model.RoleManager), s.handleCreateTask)
		authed.GET("/tasks/:id", s.handleGetTask)
		authed.PATCH("/tasks/:id", requireRole(model.RoleManager), s.handleUpdateTask)
		authed.DELETE("/tasks/:id", requireRole(model.RoleManager), s.handleDeleteTask)
		authed.POST("/tasks/:id/start", s.handleTransition(tracking.ActionStart))
		authed.POST("/tasks/:id/pause", s.handleTransition(tracking.ActionPause))
		authed.POST("/tasks/:id/stop", s.handleTransition(tracking.ActionStop))
		authed.GET("/tasks/:id/metrics", s.handleTaskMetrics)
		authed.GET("/tasks/:id/history", s.handleTaskHistory)

		authed.GET("/users", s.handleListUsers)
		authed.POST("/users", requireRole(model.RoleAdmin), s.handleCreateUser)
		authed.PATCH("/users/:id", requireRole(model.RoleAdmin), s.handleUpdateUser)
		authed.DELETE("/users/:id", requireRole(model.RoleAdmin), s.handleDeleteUser)
		authed.GET("/users/:id/schedule", s.handleUserSchedule)
	}
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			s.writeError(c, auth.ErrUnauthenticated)
			return
		}
		viewer, err := s.auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.Set(viewerKey, viewer)
		c.Next()
	}
}

func requireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := viewerOf(c).Require(role); err != nil {
			c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

func viewerOf(c *gin.Context) auth.Viewer {
	value, ok := c.Get(viewerKey)
	if !ok {
		return auth.Viewer{}
	}
	viewer, _ := value.(auth.Viewer)
	return viewer
}

func statusFor(err error) int {
	var validationErr *model.ValidationError
	switch {
	case errors.As(err, &validationErr), errors.Is(err, model.ErrInvalidBudget):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracking.ErrInvalidTransition), errors.Is(err, db.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey), "err", err)
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// bindJSON decodes the request body, reporting malformed input as a
// validation error.
func bindJSON(c *gin.Context, target any) error {
	if err := c.ShouldBindJSON(target); err != nil {
		return &model.ValidationError{Field: "body", Message: err.Error(), Err: err}
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
