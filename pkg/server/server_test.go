package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/samcore/pkg/adapter"
	"github.com/m-mizutani/samcore/pkg/model"
	"github.com/m-mizutani/samcore/pkg/repository"
	"github.com/m-mizutani/samcore/pkg/server"
)

type mockGemini struct {
	prompts []string
	reply   string
	err     error
}

func (m *mockGemini) Complete(ctx context.Context, prompt string, opts *adapter.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func newTestServer(gemini *mockGemini) (*server.Server, repository.Repository) {
	repo := repository.NewMemory()
	return server.New(server.NewInput{Repo: repo, Gemini: gemini}), repo
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestChat(t *testing.T) {
	gemini := &mockGemini{reply: "that's fire 🔥"}
	srv, repo := newTestServer(gemini)

	w := postJSON(t, srv, "/chat", `{"message": "yo sam", "session_id": "s1"}`)
	gt.Equal(t, w.Code, http.StatusOK)

	body := decodeBody(t, w)
	gt.Equal(t, body["reply"], "that's fire 🔥")
	gt.Equal(t, body["session_id"], "s1")
	gt.Equal(t, body["provider"], "Sam AI")

	records, err := repo.ListRecords(context.Background(), "s1")
	gt.NoError(t, err)
	gt.A(t, records).Length(1)
	gt.Equal(t, records[0].UserMessage, "yo sam")
}

func TestChatEmptyMessage(t *testing.T) {
	gemini := &mockGemini{reply: "unused"}
	srv, _ := newTestServer(gemini)

	w := postJSON(t, srv, "/chat", `{"message": "   "}`)
	gt.Equal(t, w.Code, http.StatusOK)
	gt.Equal(t, decodeBody(t, w)["reply"], "Please enter a message!")

	// No model call for an empty message
	gt.A(t, gemini.prompts).Length(0)
}

func TestChatServiceFailure(t *testing.T) {
	gemini := &mockGemini{err: goerr.New("down", goerr.T(model.ErrTagService), goerr.V("status", 503))}
	srv, repo := newTestServer(gemini)

	w := postJSON(t, srv, "/chat", `{"message": "anyone there?", "session_id": "s1"}`)

	// Fallback replies ship with a success status so clients render them
	gt.Equal(t, w.Code, http.StatusOK)
	body := decodeBody(t, w)
	gt.S(t, gt.Cast[string](t, body["reply"])).Contains("anyone there?")
	gt.True(t, body["error"] != nil)

	records, err := repo.ListRecords(context.Background(), "s1")
	gt.NoError(t, err)
	gt.A(t, records).Length(0)
}

func TestChatUnknownTool(t *testing.T) {
	gemini := &mockGemini{reply: "unused"}
	srv, _ := newTestServer(gemini)

	w := postJSON(t, srv, "/chat", `{"message": "hi", "tool": "mindReader"}`)
	gt.Equal(t, w.Code, http.StatusBadRequest)
	gt.A(t, gemini.prompts).Length(0)
}

func TestChatToolAndImage(t *testing.T) {
	gemini := &mockGemini{reply: "ok"}
	srv, _ := newTestServer(gemini)

	w := postJSON(t, srv, "/chat", `{"message": "hi", "tool": "createImage", "image": "data:image/png;base64,xyz"}`)
	gt.Equal(t, w.Code, http.StatusOK)
	gt.A(t, gemini.prompts).Length(1)
	gt.S(t, gemini.prompts[0]).Contains("'Create Image' tool")
	gt.S(t, gemini.prompts[0]).Contains("attached an image")
}

func TestHistory(t *testing.T) {
	gemini := &mockGemini{reply: "a reply"}
	srv, _ := newTestServer(gemini)

	for i := 0; i < 3; i++ {
		postJSON(t, srv, "/chat", `{"message": "ping", "session_id": "s1"}`)
	}
	postJSON(t, srv, "/chat", `{"message": "other", "session_id": "s2"}`)

	req := httptest.NewRequest("GET", "/api/history/s1", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	gt.Equal(t, w.Code, http.StatusOK)

	body := decodeBody(t, w)
	gt.Equal(t, body["session_id"], "s1")
	history := gt.Cast[[]any](t, body["history"])
	gt.A(t, history).Length(6)

	first := gt.Cast[map[string]any](t, history[0])
	gt.Equal(t, first["role"], "user")
	gt.Equal(t, first["content"], "ping")
}

func TestHistoryLimit(t *testing.T) {
	gemini := &mockGemini{reply: "a reply"}
	srv, _ := newTestServer(gemini)

	for i := 0; i < 5; i++ {
		postJSON(t, srv, "/chat", `{"message": "ping", "session_id": "s1"}`)
	}

	req := httptest.NewRequest("GET", "/api/history/s1?limit=2", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	history := gt.Cast[[]any](t, decodeBody(t, w)["history"])
	gt.A(t, history).Length(4)
}

func TestHistoryEmptySession(t *testing.T) {
	srv, _ := newTestServer(&mockGemini{reply: "unused"})

	req := httptest.NewRequest("GET", "/api/history/nobody", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	gt.Equal(t, w.Code, http.StatusOK)

	history := gt.Cast[[]any](t, decodeBody(t, w)["history"])
	gt.A(t, history).Length(0)
}

func TestClear(t *testing.T) {
	gemini := &mockGemini{reply: "a reply"}
	srv, repo := newTestServer(gemini)

	postJSON(t, srv, "/chat", `{"message": "keep", "session_id": "s2"}`)
	postJSON(t, srv, "/chat", `{"message": "drop", "session_id": "s1"}`)

	w := postJSON(t, srv, "/api/clear", `{"session_id": "s1"}`)
	gt.Equal(t, w.Code, http.StatusOK)
	gt.Equal(t, decodeBody(t, w)["success"], true)

	ctx := context.Background()
	cleared, err := repo.ListRecords(ctx, "s1")
	gt.NoError(t, err)
	gt.A(t, cleared).Length(0)

	kept, err := repo.ListRecords(ctx, "s2")
	gt.NoError(t, err)
	gt.A(t, kept).Length(1)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(&mockGemini{reply: "unused"})

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	gt.Equal(t, w.Code, http.StatusOK)

	body := decodeBody(t, w)
	gt.Equal(t, body["status"], "healthy")
	gt.Equal(t, body["provider"], "Sam AI")
}
