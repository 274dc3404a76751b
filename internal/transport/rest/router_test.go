package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeinterview/internal/cache"
	"codeinterview/internal/clock"
	"codeinterview/internal/model"
	"codeinterview/internal/repository"
	"codeinterview/internal/service"
	"codeinterview/internal/transport/rest/handler"
	"codeinterview/internal/transport/rest/middleware"
	"codeinterview/internal/transport/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
)

// fixedLimiter allows the first n calls
type fixedLimiter struct {
	n     int
	calls int
}

func (l *fixedLimiter) Allow(_ context.Context, _ string, limit int, window time.Duration) (*cache.RateLimitResult, error) {
	l.calls++
	allowed := l.calls <= l.n
	remaining := l.n - l.calls
	if remaining < 0 {
		remaining = 0
	}
	return &cache.RateLimitResult{Allowed: allowed, Remaining: remaining, ResetAt: time.Now().Add(window), Limit: limit}, nil
}

type testAPI struct {
	handler  http.Handler
	sessions repository.SessionRepo
}

func newTestAPI(t *testing.T, limiter cache.RateLimitCache) *testAPI {
	t.Helper()
	logger := zap.NewNop().Sugar()
	clk := clock.NewMock(time.Date(2024, 2, 2, 8, 0, 0, 0, time.UTC))
	sessions := repository.NewSessionRepo(repository.WithClock(clk), repository.WithLinkBase("http://app.test"))
	hub := ws.NewHub(logger, tally.NoopScope)
	t.Cleanup(hub.Close)
	relay := service.NewRelay(sessions, service.NewRoomService(sessions), hub, clk, logger, tally.NoopScope)

	c := &Container{
		Sessions:       sessions,
		WSHandler:      ws.NewHandler(hub, relay, logger, ws.Options{}),
		Clock:          clk,
		Logger:         logger,
		AllowedOrigins: []string{"http://app.test"},
	}
	if limiter != nil {
		c.CreateLimiter = middleware.NewRateLimiter(limiter, "create", 2, time.Minute, logger, tally.NoopScope)
	}
	return &testAPI{handler: NewRouter(c), sessions: sessions}
}

func (a *testAPI) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Origin", "http://app.test")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code model.ErrorCode) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	var body handler.ErrorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, code, body.Error.Code)
	assert.NotEmpty(t, body.Error.Message)
}

func TestRouter_SessionLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/api/sessions", `{"title":"Frontend round","language":"typescript","createdBy":"Lin"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Session
	decodeBody(t, rec, &created)
	assert.Equal(t, "Frontend round", created.Title)
	assert.Equal(t, model.LanguageTypeScript, created.Language)
	assert.Equal(t, "Lin", created.CreatedBy)
	assert.Equal(t, "http://app.test/interview/"+created.ID, created.Link)
	assert.Contains(t, created.Code, "function solution(input: string): string")

	rec = api.do(t, http.MethodGet, "/api/sessions/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Session
	decodeBody(t, rec, &got)
	assert.Equal(t, created.ID, got.ID)

	rec = api.do(t, http.MethodGet, "/api/sessions/"+created.ID+"/code", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var code model.SessionCode
	decodeBody(t, rec, &code)
	assert.Equal(t, created.Code, code.Code)
	assert.Equal(t, model.LanguageTypeScript, code.Language)

	_, err := api.sessions.AddParticipant(context.Background(), created.ID, "c1", "Ada")
	require.NoError(t, err)
	rec = api.do(t, http.MethodGet, "/api/sessions/"+created.ID+"/participants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var participants handler.ParticipantListResponse
	decodeBody(t, rec, &participants)
	assert.Equal(t, 1, participants.Count)
	assert.Equal(t, "Ada", participants.Participants[0].Name)

	rec = api.do(t, http.MethodDelete, "/api/sessions/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted handler.DeleteSessionResponse
	decodeBody(t, rec, &deleted)
	assert.Equal(t, created.ID, deleted.SessionID)

	for _, path := range []string{"", "/code", "/participants"} {
		assertError(t, api.do(t, http.MethodGet, "/api/sessions/"+created.ID+path, ""), http.StatusNotFound, model.ErrCodeSessionNotFound)
	}
	assertError(t, api.do(t, http.MethodDelete, "/api/sessions/"+created.ID, ""), http.StatusNotFound, model.ErrCodeSessionNotFound)
}

func TestRouter_CreateDefaultsAndValidation(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var s model.Session
	decodeBody(t, rec, &s)
	assert.Equal(t, model.DefaultSessionTitle, s.Title)
	assert.Equal(t, model.LanguageJavaScript, s.Language)
	assert.Equal(t, model.DefaultCreatedBy, s.CreatedBy)

	assertError(t, api.do(t, http.MethodPost, "/api/sessions", `{"language":"cobol"}`), http.StatusBadRequest, model.ErrCodeInvalidLanguage)
	assertError(t, api.do(t, http.MethodPost, "/api/sessions", `{"title":`), http.StatusBadRequest, model.ErrCodeInvalidRequest)
	assert.Len(t, api.sessions.List(context.Background()), 1)
}

func TestRouter_List(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":[],"count":0}`, rec.Body.String())

	for _, title := range []string{"one", "two", "three"} {
		require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/sessions", `{"title":"`+title+`"}`).Code)
	}

	var list handler.SessionListResponse
	decodeBody(t, api.do(t, http.MethodGet, "/api/sessions", ""), &list)
	require.Equal(t, 3, list.Count)
	assert.Equal(t, []string{"one", "two", "three"}, []string{list.Sessions[0].Title, list.Sessions[1].Title, list.Sessions[2].Title})
}

func TestRouter_HealthAndBanner(t *testing.T) {
	api := newTestAPI(t, nil)

	for _, path := range []string{"/health", "/api/health"} {
		rec := api.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","timestamp":"2024-02-02T08:00:00Z"}`, rec.Body.String())
	}

	rec := api.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"Coding Interview Platform API","version":"1.0.0"}`, rec.Body.String())
}

func TestRouter_NotFound(t *testing.T) {
	api := newTestAPI(t, nil)
	assertError(t, api.do(t, http.MethodGet, "/api/nope", ""), http.StatusNotFound, model.ErrCodeNotFound)
}

func TestRouter_CORS(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodOptions, "/api/sessions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_CreateRateLimit(t *testing.T) {
	limiter := &fixedLimiter{n: 2}
	api := newTestAPI(t, limiter)

	for i := 0; i < 2; i++ {
		rec := api.do(t, http.MethodPost, "/api/sessions", "")
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := api.do(t, http.MethodPost, "/api/sessions", "")
	assertError(t, rec, http.StatusTooManyRequests, model.ErrCodeRateLimited)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Len(t, api.sessions.List(context.Background()), 2)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/sessions", "").Code, "reads are not limited")
	assert.Equal(t, 3, limiter.calls)
}
