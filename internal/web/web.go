package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Joseda-hg/lazytodo/internal/engine"
	apperrors "github.com/Joseda-hg/lazytodo/internal/errors"
	"github.com/Joseda-hg/lazytodo/internal/model"
)

// Sessions is the sign-in surface the API exposes.
type Sessions interface {
	SignIn(token string) (model.Identity, error)
	SignOut()
}

type Options struct {
	AllowOrigins []string
	// RequestsPerMinute of zero disables rate limiting.
	RequestsPerMinute int
	Burst             int
}

func DefaultOptions() Options {
	return Options{
		AllowOrigins:      []string{"http://localhost:3000"},
		RequestsPerMinute: 600,
		Burst:             50,
	}
}

type Server struct {
	engine   *engine.Engine
	sessions Sessions
	notices  *engine.NoticeLog
	options  Options
}

func NewServer(eng *engine.Engine, sessions Sessions, notices *engine.NoticeLog, options Options) *Server {
	return &Server{engine: eng, sessions: sessions, notices: notices, options: options}
}

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	if s.options.RequestsPerMinute > 0 {
		burst := s.options.Burst
		if burst <= 0 {
			burst = 1
		}
		r.Use(RateLimiter(rate.Limit(float64(s.options.RequestsPerMinute)/60.0), burst))
	}
	if len(s.options.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.options.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", s.healthHandler)

	api := r.Group("/api")
	{
		api.POST("/session", s.signInHandler)
		api.DELETE("/session", s.signOutHandler)
		api.GET("/session", s.sessionHandler)

		api.GET("/tasks", s.presentedHandler)
		api.GET("/tasks/all", s.allHandler)
		api.POST("/tasks", s.createHandler)
		api.POST("/tasks/reorder", s.reorderHandler)
		api.POST("/tasks/reload", s.reloadHandler)
		api.PATCH("/tasks/:id", s.updateHandler)
		api.DELETE("/tasks/:id", s.deleteHandler)
		api.POST("/tasks/:id/toggle", s.toggleHandler)

		api.GET("/view", s.getViewHandler)
		api.PUT("/view", s.putViewHandler)
		api.GET("/stats", s.statsHandler)
		api.GET("/suggestions", s.suggestionsHandler)
		api.GET("/categories", s.categoriesHandler)
		api.GET("/notices", s.noticesHandler)
	}
	return r
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNotReady):
		status = http.StatusConflict
	case apperrors.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotOwned):
		status = http.StatusNotFound
	case apperrors.IsStorage(err):
		status = http.StatusBadGateway
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
