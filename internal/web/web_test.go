package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/engine"
	"github.com/Joseda-hg/lazytodo/internal/identity"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/store"
	"github.com/Joseda-hg/lazytodo/internal/view"
)

type testServer struct {
	handler http.Handler
	tokens  *identity.Tokens
	engine  *engine.Engine
	db      *sql.DB
}

func newTestServer(t *testing.T, options Options) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqlDB, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tokens, err := identity.NewTokens("web-test-secret", time.Hour)
	require.NoError(t, err)
	session := identity.NewSession(tokens)
	notices := engine.NewNoticeLog(10)

	eng := engine.New(store.NewLocal(db.NewKV(sqlDB), ""), session, engine.WithNotifier(notices))
	eng.Start(context.Background())
	t.Cleanup(eng.Close)

	return &testServer{
		handler: NewServer(eng, session, notices, options).Handler(),
		tokens:  tokens,
		engine:  eng,
		db:      sqlDB,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signIn(t *testing.T, user string) {
	t.Helper()
	token, err := s.tokens.Mint(model.Identity(user))
	require.NoError(t, err)
	rec := s.do(t, http.MethodPost, "/api/session", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type taskJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Order     int    `json:"order"`
	DueDate   string `json:"dueDate"`
	Category  *struct {
		Name string `json:"name"`
	} `json:"category"`
}

func TestMutationsRequireSignIn(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := s.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "too early"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]taskJSON](t, rec))

	rec = s.do(t, http.MethodPost, "/api/session", map[string]string{"token": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t, Options{})
	s.signIn(t, "alice")

	rec := s.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":      "  Book dentist  ",
		"dueDate":    "2026-10-20",
		"priority":   "high",
		"categoryId": "health",
		"tags":       []string{"appointments"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[taskJSON](t, rec)
	assert.Equal(t, "Book dentist", created.Title)
	assert.Equal(t, "2026-10-20", created.DueDate)
	require.NotNil(t, created.Category)
	assert.Equal(t, "Health", created.Category.Name)

	rec = s.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "Renew passport", "categoryId": "retired"})
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[taskJSON](t, rec)
	assert.Nil(t, second.Category, "dangling category does not resolve")

	rec = s.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "bad", "priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/tasks/"+created.ID, map[string]any{"title": "Book dentist (cleaning)"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Book dentist (cleaning)", decode[taskJSON](t, rec).Title)

	rec = s.do(t, http.MethodPost, "/api/tasks/"+created.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[taskJSON](t, rec).Completed)

	rec = s.do(t, http.MethodPut, "/api/view", map[string]any{"filter": "active"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/tasks", nil)
	presented := decode[[]taskJSON](t, rec)
	require.Len(t, presented, 1)
	assert.Equal(t, "Renew passport", presented[0].Title)

	rec = s.do(t, http.MethodGet, "/api/tasks/all", nil)
	assert.Len(t, decode[[]taskJSON](t, rec), 2)

	rec = s.do(t, http.MethodGet, "/api/stats", nil)
	stats := decode[view.Stats](t, rec)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Completed)

	rec = s.do(t, http.MethodDelete, "/api/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReorderEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})
	s.signIn(t, "alice")

	for _, title := range []string{"first", "second", "third"} {
		rec := s.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": title})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := s.do(t, http.MethodPut, "/api/view", map[string]any{"sort": "manual"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/tasks/reorder", map[string]int{"from": 0, "to": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	presented := decode[[]taskJSON](t, rec)
	require.Len(t, presented, 3)
	assert.Equal(t, []string{"second", "third", "first"}, []string{presented[0].Title, presented[1].Title, presented[2].Title})
	for i, task := range presented {
		assert.Equal(t, i, task.Order)
	}

	rec = s.do(t, http.MethodPost, "/api/tasks/reorder", map[string]int{"from": 0, "to": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/tasks/reorder", map[string]int{"from": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestViewValidationAndCatalog(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := s.do(t, http.MethodPut, "/api/view", map[string]any{"sort": "chaos"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]string](t, rec), 5)

	rec = s.do(t, http.MethodGet, "/api/suggestions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]view.Suggestion](t, rec))
}

func TestSignOutClearsCollection(t *testing.T) {
	s := newTestServer(t, Options{})
	s.signIn(t, "alice")
	rec := s.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "private"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/session", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, s.engine.All())

	rec = s.do(t, http.MethodGet, "/api/session", nil)
	assert.Equal(t, false, decode[map[string]any](t, rec)["signedIn"])

	s.signIn(t, "alice")
	assert.Len(t, s.engine.All(), 1)
}

func TestRateLimiter(t *testing.T) {
	s := newTestServer(t, Options{RequestsPerMinute: 1, Burst: 2})

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodGet, "/health", nil).Code)
}

func TestHealthReportsStoreOutage(t *testing.T) {
	s := newTestServer(t, Options{})
	s.signIn(t, "alice")

	rec := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ready", body["state"])

	require.NoError(t, s.db.Close())
	rec = s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body = decode[map[string]string](t, rec)
	assert.Equal(t, "unavailable", body["status"])
	assert.NotEmpty(t, body["error"])
}

func TestNoticesDrain(t *testing.T) {
	s := newTestServer(t, Options{})
	s.signIn(t, "alice")

	rec := s.do(t, http.MethodGet, "/api/notices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]engine.Notice](t, rec))
}
