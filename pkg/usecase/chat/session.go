package chat

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/samcore/pkg/adapter"
	"github.com/m-mizutani/samcore/pkg/model"
	"github.com/m-mizutani/samcore/pkg/render"
	"github.com/m-mizutani/samcore/pkg/repository"
	"github.com/m-mizutani/samcore/pkg/utils/logging"
)

const defaultHistoryLimit = 5

// Session orchestrates one user's conversation: bounded history, prompt
// assembly, the model call and the reveal of the reply. All collaborators
// are injected. Session methods are meant to run on a single event loop;
// the reveals a Send starts own their goroutines and handles.
type Session struct {
	log      *Log
	gemini   adapter.Gemini
	renderer *render.Renderer

	persona      model.Persona
	options      *adapter.GenerateOptions
	historyLimit int

	sessionID model.SessionID
	profile   *model.UserProfile

	selectedTool *model.Tool
	hasImage     bool
}

// NewInput contains parameters for creating a session.
type NewInput struct {
	Repo     repository.Repository
	Gemini   adapter.Gemini
	Renderer *render.Renderer

	Persona      *model.Persona           // nil: built-in persona
	Options      *adapter.GenerateOptions // nil: default generation bounds
	HistoryLimit int                      // <=0: last 5 exchanges
}

func New(ctx context.Context, input NewInput) *Session {
	persona := DefaultPersona()
	if input.Persona != nil {
		persona = *input.Persona
	}

	options := input.Options
	if options == nil {
		options = adapter.DefaultGenerateOptions()
	}

	historyLimit := input.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}

	renderer := input.Renderer
	if renderer == nil {
		renderer = render.New()
	}

	s := &Session{
		log:          NewLog(input.Repo),
		gemini:       input.Gemini,
		renderer:     renderer,
		persona:      persona,
		options:      options,
		historyLimit: historyLimit,
	}

	s.sessionID = SessionID(ctx, input.Repo)

	profile, err := input.Repo.GetProfile(ctx)
	if err != nil {
		logging.From(ctx).Warn("failed to load user profile", "error", err)
	} else {
		s.profile = profile
	}

	return s
}

// ID returns the session identifier.
func (s *Session) ID() model.SessionID {
	return s.sessionID
}

// Persona returns the active persona.
func (s *Session) Persona() model.Persona {
	return s.persona
}

// SelectTool marks a tool for the next message.
func (s *Session) SelectTool(id string) (*model.Tool, error) {
	tool, ok := model.LookupTool(id)
	if !ok {
		return nil, goerr.New("unknown tool", goerr.V("tool_id", id))
	}
	s.selectedTool = tool
	return tool, nil
}

// AttachImage marks the next message as carrying an image. The image bytes
// travel through the excluded upload path.
func (s *Session) AttachImage() {
	s.hasImage = true
}

// History returns the transcript of the last limit exchanges, for
// repopulating a view on load.
func (s *Session) History(ctx context.Context, limit int) []model.Turn {
	return s.log.History(ctx, s.sessionID, limit)
}

// ClearHistory removes this session's records.
func (s *Session) ClearHistory(ctx context.Context) {
	s.log.Clear(ctx, s.sessionID)
}

// SendResult reports the outcome of one send attempt.
type SendResult struct {
	// Reply is the full assistant reply, or the persona fallback when the
	// model call failed.
	Reply string

	// Fallback is true when the model call failed and Reply is the local
	// fallback text. Failed exchanges are not persisted.
	Fallback bool

	// Latency is the model round-trip time, for display.
	Latency time.Duration

	// Reveal is the handle of the running word-by-word reveal on success,
	// nil on fallback (the fallback is delivered through onDone directly).
	Reveal *render.Reveal
}

// Send processes one user-submitted message: fetch bounded history, build
// the prompt, call the model once, persist the exchange and reveal the reply
// on success, or deliver the fallback text on failure. The selected tool and
// pending image are cleared whatever the outcome.
func (s *Session) Send(ctx context.Context, message string, onUpdate, onDone func(string)) *SendResult {
	defer func() {
		s.selectedTool = nil
		s.hasImage = false
	}()

	history := s.log.History(ctx, s.sessionID, s.historyLimit)
	prompt := BuildPrompt(s.persona, s.profile, s.selectedTool, s.hasImage, history, message)

	start := time.Now()
	reply, err := s.gemini.Complete(ctx, prompt, s.options)
	latency := time.Since(start)

	result := &SendResult{Latency: latency}

	if err != nil {
		logging.From(ctx).Error("model request failed, replying with fallback", "error", err)
		result.Reply = s.persona.FallbackReply(message)
		result.Fallback = true
		onDone(result.Reply)
		return result
	}

	result.Reply = reply

	// Persist before the reveal starts so storage latency never skews the
	// word pacing. Failures degrade to a logged no-op inside the log.
	s.log.Append(ctx, s.sessionID, message, reply)

	result.Reveal = s.renderer.Reveal(ctx, reply, onUpdate, onDone)
	return result
}
