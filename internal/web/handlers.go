package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Joseda-hg/lazytodo/internal/errors"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/view"
)

type taskResponse struct {
	model.Task
	Category *model.Category `json:"category,omitempty"`
}

func (s *Server) taskResponses(tasks []model.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskResponse{Task: task, Category: s.engine.ResolveCategory(task.CategoryID)})
	}
	return out
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	state := s.engine.State().String()
	if err := s.engine.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "state": state, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": state})
}

func (s *Server) signInHandler(c *gin.Context) {
	if s.sessions == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "sign-in is not available"})
		return
	}

	token := bearerToken(c)
	if token == "" {
		var body struct {
			Token string `json:"token"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Token) == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "token is required"})
			return
		}
		token = body.Token
	}

	identity, err := s.sessions.SignIn(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"identity": identity, "state": s.engine.State().String()})
}

func (s *Server) signOutHandler(c *gin.Context) {
	if s.sessions == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "sign-in is not available"})
		return
	}
	s.sessions.SignOut()
	c.Status(http.StatusNoContent)
}

func (s *Server) sessionHandler(c *gin.Context) {
	identity, ok := s.engine.Identity()
	c.JSON(http.StatusOK, gin.H{"identity": identity, "signedIn": ok, "state": s.engine.State().String()})
}

func (s *Server) presentedHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.taskResponses(s.engine.Presented()))
}

func (s *Server) allHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.taskResponses(s.engine.All()))
}

func (s *Server) createHandler(c *gin.Context) {
	var draft model.TaskDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		writeError(c, apperrors.ValidationError{Reason: err.Error()})
		return
	}
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		writeError(c, apperrors.ValidationError{Field: "title", Reason: "required"})
		return
	}

	created, err := s.engine.Add(c.Request.Context(), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskResponse{Task: created, Category: s.engine.ResolveCategory(created.CategoryID)})
}

func (s *Server) updateHandler(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.engine.Task(id); !ok {
		writeError(c, apperrors.Storage("update", id, apperrors.ErrNotOwned))
		return
	}

	var patch model.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeError(c, apperrors.ValidationError{Reason: err.Error()})
		return
	}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
	}

	if err := s.engine.Update(c.Request.Context(), id, patch); err != nil {
		writeError(c, err)
		return
	}
	task, _ := s.engine.Task(id)
	c.JSON(http.StatusOK, taskResponse{Task: task, Category: s.engine.ResolveCategory(task.CategoryID)})
}

func (s *Server) deleteHandler(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.engine.Task(id); !ok {
		writeError(c, apperrors.Storage("delete", id, apperrors.ErrNotOwned))
		return
	}
	if err := s.engine.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) toggleHandler(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.engine.Task(id); !ok {
		writeError(c, apperrors.Storage("update", id, apperrors.ErrNotOwned))
		return
	}
	if err := s.engine.ToggleComplete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	task, _ := s.engine.Task(id)
	c.JSON(http.StatusOK, taskResponse{Task: task, Category: s.engine.ResolveCategory(task.CategoryID)})
}

func (s *Server) reorderHandler(c *gin.Context) {
	var body struct {
		From *int `json:"from"`
		To   *int `json:"to"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.From == nil || body.To == nil {
		writeError(c, apperrors.ValidationError{Reason: "from and to are required"})
		return
	}
	if err := s.engine.Reorder(c.Request.Context(), *body.From, *body.To); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.taskResponses(s.engine.Presented()))
}

func (s *Server) reloadHandler(c *gin.Context) {
	s.engine.Reload(c.Request.Context())
	c.JSON(http.StatusOK, s.taskResponses(s.engine.Presented()))
}

type viewRequest struct {
	Filter     string   `json:"filter"`
	Sort       string   `json:"sort"`
	Search     string   `json:"search"`
	CategoryID string   `json:"categoryId"`
	Tags       []string `json:"tags"`
}

func (s *Server) getViewHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Params())
}

func (s *Server) putViewHandler(c *gin.Context) {
	var body viewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperrors.ValidationError{Reason: err.Error()})
		return
	}
	filter, err := view.ParseFilter(body.Filter)
	if err != nil {
		writeError(c, apperrors.ValidationError{Field: "filter", Reason: err.Error()})
		return
	}
	sortKey, err := view.ParseSort(body.Sort)
	if err != nil {
		writeError(c, apperrors.ValidationError{Field: "sort", Reason: err.Error()})
		return
	}

	s.engine.SetParams(view.Params{
		Filter:     filter,
		Sort:       sortKey,
		Search:     body.Search,
		CategoryID: strings.TrimSpace(body.CategoryID),
		Tags:       body.Tags,
	})
	c.JSON(http.StatusOK, s.engine.Params())
}

func (s *Server) statsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Stats())
}

func (s *Server) suggestionsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Suggestions())
}

func (s *Server) categoriesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Categories())
}

func (s *Server) noticesHandler(c *gin.Context) {
	if s.notices == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, s.notices.Drain())
}
