// Package server exposes the chat core as an HTTP JSON API. It is one of
// the two drivers standing in for the presentation layer: it never renders,
// it only moves plain data in and out of the core.
package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/samcore/pkg/adapter"
	"github.com/m-mizutani/samcore/pkg/model"
	"github.com/m-mizutani/samcore/pkg/repository"
	"github.com/m-mizutani/samcore/pkg/usecase/chat"
	"github.com/m-mizutani/samcore/pkg/utils/logging"
)

const (
	// maxRequestBody caps request bodies to keep a rogue client from
	// buffering arbitrary amounts of memory.
	maxRequestBody = 1 * 1024 * 1024

	promptHistoryLimit  = 5
	displayHistoryLimit = 50
)

// NewInput contains parameters for creating a server.
type NewInput struct {
	Repo   repository.Repository
	Gemini adapter.Gemini

	Persona *model.Persona           // nil: built-in persona
	Options *adapter.GenerateOptions // nil: default generation bounds
}

type Server struct {
	mux     *http.ServeMux
	log     *chat.Log
	repo    repository.Repository
	gemini  adapter.Gemini
	persona model.Persona
	options *adapter.GenerateOptions
}

func New(input NewInput) *Server {
	persona := chat.DefaultPersona()
	if input.Persona != nil {
		persona = *input.Persona
	}

	options := input.Options
	if options == nil {
		options = adapter.DefaultGenerateOptions()
	}

	s := &Server{
		mux:     http.NewServeMux(),
		log:     chat.NewLog(input.Repo),
		repo:    input.Repo,
		gemini:  input.Gemini,
		persona: persona,
		options: options,
	}

	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("GET /api/history/{session_id}", s.handleHistory)
	s.mux.HandleFunc("POST /api/clear", s.handleClear)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Tool      string `json:"tool"`
	Image     string `json:"image"`
}

type chatResponse struct {
	Reply        string  `json:"reply"`
	SessionID    string  `json:"session_id,omitempty"`
	ResponseTime float64 `json:"response_time,omitempty"`
	Provider     string  `json:"provider,omitempty"`
	Error        string  `json:"error,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusOK, chatResponse{Reply: "Please enter a message!"})
		return
	}

	sessionID := model.SessionID(req.SessionID)
	if sessionID == "" {
		sessionID = "default"
	}

	var tool *model.Tool
	if req.Tool != "" {
		t, ok := model.LookupTool(req.Tool)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown tool: " + req.Tool})
			return
		}
		tool = t
	}

	profile, err := s.repo.GetProfile(ctx)
	if err != nil {
		logging.From(ctx).Warn("failed to load user profile", "error", err)
		profile = nil
	}

	history := s.log.History(ctx, sessionID, promptHistoryLimit)
	prompt := chat.BuildPrompt(s.persona, profile, tool, req.Image != "", history, message)

	start := time.Now()
	reply, err := s.gemini.Complete(ctx, prompt, s.options)
	latency := time.Since(start)

	if err != nil {
		// Reply with the local fallback and a success status so clients
		// render it like any other message. The failed exchange is not
		// persisted.
		logging.From(ctx).Error("model request failed, replying with fallback", "error", err)
		writeJSON(w, http.StatusOK, chatResponse{
			Reply: s.persona.FallbackReply(message),
			Error: err.Error(),
		})
		return
	}

	s.log.Append(ctx, sessionID, message, reply)

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:        reply,
		SessionID:    string(sessionID),
		ResponseTime: math.Round(latency.Seconds()*100) / 100,
		Provider:     s.persona.Name,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := model.SessionID(r.PathValue("session_id"))

	limit := displayHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	turns := s.log.History(r.Context(), sessionID, limit)
	if turns == nil {
		turns = []model.Turn{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"history":    turns,
		"session_id": sessionID,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	s.log.Clear(r.Context(), model.SessionID(req.SessionID))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Conversation history cleared",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"provider":  s.persona.Name,
		"timestamp": time.Now().Unix(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
