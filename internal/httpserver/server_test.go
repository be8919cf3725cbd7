package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aisnippets/internal/database/memory"
	"aisnippets/internal/domain"
	"aisnippets/internal/httpserver"
	"aisnippets/internal/summarizer/summarizertest"
	"aisnippets/internal/summary"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store   *memory.Store
	stub    *summarizertest.Stub
	handler http.Handler
}

func newTestEnv(t *testing.T, stub *summarizertest.Stub, cfg httpserver.Config) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	svc := summary.New(store, stub, log)

	return &testEnv{
		store:   store,
		stub:    stub,
		handler: httpserver.New(svc, cfg, log).Router(),
	}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	return rec
}

func (e *testEnv) seed(t *testing.T, text, summaryText string) *domain.Snippet {
	t.Helper()

	snippet, err := e.store.Create(context.Background(), domain.CreateSnippet{Text: text, Summary: summaryText})
	require.NoError(t, err)

	return snippet
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	return v
}

type snippetBody struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Summary string `json:"summary"`
}

func TestCreateSnippet(t *testing.T) {
	env := newTestEnv(t, summarizertest.New().WithSummary("Short summary", nil), httpserver.Config{})

	rec := env.do(http.MethodPost, "/api/v1/snippets", `{"text":"A long snippet"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode[snippetBody](t, rec)
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, "A long snippet", body.Text)
	assert.Equal(t, "Short summary", body.Summary)
	assert.Equal(t, 1, env.store.Count())
}

func TestCreateSnippetValidation(t *testing.T) {
	env := newTestEnv(t, summarizertest.New(), httpserver.Config{})

	rec := env.do(http.MethodPost, "/api/v1/snippets", `{"text":"  "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "text is required", decode[map[string]string](t, rec)["error"])

	rec = env.do(http.MethodPost, "/api/v1/snippets", `{"text":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 0, env.stub.Calls())
}

func TestCreateSnippetProviderFailure(t *testing.T) {
	env := newTestEnv(t, summarizertest.New().WithSummary("", errors.New("quota exceeded")), httpserver.Config{})

	rec := env.do(http.MethodPost, "/api/v1/snippets", `{"text":"text"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to create snippet", decode[map[string]string](t, rec)["error"])
}

func TestCreateSnippetWithoutSummary(t *testing.T) {
	env := newTestEnv(t, summarizertest.New(), httpserver.Config{})

	rec := env.do(http.MethodPost, "/api/v1/snippets/only-create", `{"text":"later"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode[snippetBody](t, rec)
	assert.Equal(t, "later", body.Text)
	assert.Empty(t, body.Summary)
	assert.Equal(t, 0, env.stub.Calls())
}

func TestGetListDeleteSnippets(t *testing.T) {
	env := newTestEnv(t, summarizertest.New(), httpserver.Config{})
	first := env.seed(t, "first", "s1")
	second := env.seed(t, "second", "s2")

	rec := env.do(http.MethodGet, "/api/v1/snippets/"+first.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", decode[snippetBody](t, rec).Summary)

	rec = env.do(http.MethodGet, "/api/v1/snippets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]snippetBody](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	rec = env.do(http.MethodDelete, "/api/v1/snippets/"+first.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodDelete, "/api/v1/snippets/"+first.ID, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/snippets/"+first.ID, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Snippet not found", decode[map[string]string](t, rec)["error"])
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, summarizertest.New(), httpserver.Config{})

	rec := env.do(http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["database"])

	_, err := time.Parse(time.RFC3339, body["timestamp"])
	assert.NoError(t, err)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, summarizertest.New(), httpserver.Config{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/snippets", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGenerateSummaryUnknownSnippet(t *testing.T) {
	env := newTestEnv(t, summarizertest.New("a"), httpserver.Config{})

	rec := env.do(http.MethodGet, "/api/v1/snippets/missing/generate-summary", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Snippet not found"}`, rec.Body.String())
	assert.Equal(t, 0, env.stub.StreamCalls())
}

func TestGenerateSummaryStreamsFrames(t *testing.T) {
	env := newTestEnv(t, summarizertest.New("a", "", "b", "c"), httpserver.Config{})
	snippet := env.seed(t, "text", "")

	rec := env.do(http.MethodGet, "/api/v1/snippets/"+snippet.ID+"/generate-summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rec.Header().Get("Connection"))

	assert.Equal(t, "data: a\n\ndata: b\n\ndata: c\n\nevent: complete\ndata: \n\n", rec.Body.String())

	stored, err := env.store.FindByID(context.Background(), snippet.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc", stored.Summary)
}

func TestGenerateSummaryCompletesWhenSummaryExists(t *testing.T) {
	env := newTestEnv(t, summarizertest.New("unused"), httpserver.Config{})
	snippet := env.seed(t, "text", "existing")

	rec := env.do(http.MethodGet, "/api/v1/snippets/"+snippet.ID+"/generate-summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "event: complete\ndata: \n\n", rec.Body.String())
	assert.Equal(t, 0, env.stub.StreamCalls())
}

func TestGenerateSummaryProviderFailure(t *testing.T) {
	env := newTestEnv(t, summarizertest.New("a").WithStreamError(errors.New("upstream closed")), httpserver.Config{})
	snippet := env.seed(t, "text", "")

	rec := env.do(http.MethodGet, "/api/v1/snippets/"+snippet.ID+"/generate-summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "data: a\n\nevent: error\ndata: upstream closed\n\n", rec.Body.String())

	stored, err := env.store.FindByID(context.Background(), snippet.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Summary)
}

func TestGenerateSummaryTimeout(t *testing.T) {
	stub := summarizertest.New("a")
	stub.SetGate(make(chan struct{}))
	env := newTestEnv(t, stub, httpserver.Config{StreamTimeout: 50 * time.Millisecond})
	snippet := env.seed(t, "text", "")

	rec := env.do(http.MethodGet, "/api/v1/snippets/"+snippet.ID+"/generate-summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "event: error\ndata: Summary generation timed out\n\n", rec.Body.String())

	stored, err := env.store.FindByID(context.Background(), snippet.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Summary)
}
