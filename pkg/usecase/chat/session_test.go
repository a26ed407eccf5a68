package chat_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/samcore/pkg/adapter"
	"github.com/m-mizutani/samcore/pkg/model"
	"github.com/m-mizutani/samcore/pkg/render"
	"github.com/m-mizutani/samcore/pkg/repository"
	"github.com/m-mizutani/samcore/pkg/usecase/chat"
)

// Mock Gemini
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

// Broken repository: every operation fails
type brokenRepo struct{}

func (brokenRepo) GetSessionID(ctx context.Context) (model.SessionID, error) {
	return "", goerr.New("read failed", goerr.T(model.ErrTagStorage))
}
func (brokenRepo) PutSessionID(ctx context.Context, id model.SessionID) error {
	return goerr.New("write failed", goerr.T(model.ErrTagStorage))
}
func (brokenRepo) PutRecord(ctx context.Context, record *model.Record) error {
	return goerr.New("write failed", goerr.T(model.ErrTagStorage))
}
func (brokenRepo) ListRecords(ctx context.Context, id model.SessionID) ([]*model.Record, error) {
	return nil, goerr.New("read failed", goerr.T(model.ErrTagStorage))
}
func (brokenRepo) ClearRecords(ctx context.Context, id model.SessionID) error {
	return goerr.New("write failed", goerr.T(model.ErrTagStorage))
}
func (brokenRepo) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	return nil, goerr.New("read failed", goerr.T(model.ErrTagStorage))
}
func (brokenRepo) PutProfile(ctx context.Context, profile *model.UserProfile) error {
	return goerr.New("write failed", goerr.T(model.ErrTagStorage))
}
func (brokenRepo) Close() error { return nil }

func newTestSession(t *testing.T, repo repository.Repository, gemini *mockGemini) *chat.Session {
	t.Helper()
	return chat.New(context.Background(), chat.NewInput{
		Repo:     repo,
		Gemini:   gemini,
		Renderer: render.New(render.WithUnit(0)),
	})
}

func collectReveal(t *testing.T, result *chat.SendResult) {
	t.Helper()
	if result.Reveal == nil {
		return
	}
	select {
	case <-result.Reveal.Done():
	case <-time.After(time.Second):
		t.Fatal("reveal did not finish")
	}
}

func TestSendSuccess(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	gemini := &mockGemini{reply: "let's build 🔥"}
	session := newTestSession(t, repo, gemini)

	var updates []string
	var done []string
	result := session.Send(ctx, "what's the plan?",
		func(partial string) { updates = append(updates, partial) },
		func(full string) { done = append(done, full) },
	)
	collectReveal(t, result)

	gt.False(t, result.Fallback)
	gt.Equal(t, result.Reply, "let's build 🔥")
	gt.A(t, updates).Length(3)
	gt.Equal(t, done, []string{"let's build 🔥"})

	// The exchange is persisted
	records, err := repo.ListRecords(ctx, session.ID())
	gt.NoError(t, err)
	gt.A(t, records).Length(1)
	gt.Equal(t, records[0].UserMessage, "what's the plan?")
	gt.Equal(t, records[0].AssistantMessage, "let's build 🔥")
}

func TestSendServiceFailure(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	gemini := &mockGemini{err: goerr.New("down", goerr.T(model.ErrTagService), goerr.V("status", 500))}
	session := newTestSession(t, repo, gemini)

	_, err := session.SelectTool("writeCode")
	gt.NoError(t, err)
	session.AttachImage()

	var done []string
	result := session.Send(ctx, "help me out",
		func(string) { t.Error("no reveal updates expected for fallback") },
		func(full string) { done = append(done, full) },
	)

	gt.True(t, result.Fallback)
	gt.Nil(t, result.Reveal)
	gt.S(t, result.Reply).Contains("help me out")
	gt.Equal(t, done, []string{result.Reply})

	// No record appended for the failed exchange
	records, err := repo.ListRecords(ctx, session.ID())
	gt.NoError(t, err)
	gt.A(t, records).Length(0)

	// Tool and image state were reset: the next prompt has no tool or image
	// instruction
	gemini.err = nil
	gemini.reply = "back"
	result = session.Send(ctx, "again", func(string) {}, func(string) {})
	collectReveal(t, result)

	prompt := gemini.prompts[len(gemini.prompts)-1]
	gt.S(t, prompt).NotContains("selected the")
	gt.S(t, prompt).NotContains("attached an image")
}

func TestSendToolAndImageAnnotations(t *testing.T) {
	ctx := context.Background()
	gemini := &mockGemini{reply: "on it"}
	session := newTestSession(t, repository.NewMemory(), gemini)

	_, err := session.SelectTool("searchWeb")
	gt.NoError(t, err)
	session.AttachImage()

	result := session.Send(ctx, "find it", func(string) {}, func(string) {})
	collectReveal(t, result)

	gt.A(t, gemini.prompts).Length(1)
	gt.S(t, gemini.prompts[0]).Contains("'Search Web' tool")
	gt.S(t, gemini.prompts[0]).Contains("attached an image")

	// Cleared after a successful attempt too
	result = session.Send(ctx, "next", func(string) {}, func(string) {})
	collectReveal(t, result)
	gt.S(t, gemini.prompts[1]).NotContains("'Search Web' tool")
	gt.S(t, gemini.prompts[1]).NotContains("attached an image")
}

func TestSendUsesBoundedHistory(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	gemini := &mockGemini{reply: "ack"}
	session := newTestSession(t, repo, gemini)

	for i := 0; i < 8; i++ {
		result := session.Send(ctx, "msg", func(string) {}, func(string) {})
		collectReveal(t, result)
	}

	// Default window is the last 5 exchanges: 10 history lines +
	// 1 new user line + 1 assistant cue
	last := gemini.prompts[len(gemini.prompts)-1]
	gt.Equal(t, strings.Count(last, "Human: "), 6)
	gt.Equal(t, strings.Count(last, "\nSam: "), 5)
}

func TestSelectUnknownTool(t *testing.T) {
	session := newTestSession(t, repository.NewMemory(), &mockGemini{reply: "ok"})

	_, err := session.SelectTool("mindReader")
	gt.Error(t, err)
}

func TestSessionWithBrokenStorage(t *testing.T) {
	ctx := context.Background()
	gemini := &mockGemini{reply: "still here"}
	session := newTestSession(t, brokenRepo{}, gemini)

	// Identity degrades to an ephemeral ID, never an error
	gt.True(t, session.ID() != "")

	var done []string
	result := session.Send(ctx, "anyone home?", func(string) {}, func(full string) {
		done = append(done, full)
	})
	collectReveal(t, result)

	gt.False(t, result.Fallback)
	gt.Equal(t, done, []string{"still here"})
	gt.A(t, session.History(ctx, 10)).Length(0)
}
