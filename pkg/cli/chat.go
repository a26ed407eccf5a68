package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/samcore/pkg/model"
	"github.com/m-mizutani/samcore/pkg/render"
	"github.com/m-mizutani/samcore/pkg/usecase/chat"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive chat session",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)

			repo := cfg.newRepository(ctx)
			defer repo.Close()

			gemini, err := cfg.newGemini()
			if err != nil {
				return err
			}

			persona := cfg.persona(ctx)
			session := chat.New(ctx, chat.NewInput{
				Repo:         repo,
				Gemini:       gemini,
				Renderer:     render.New(),
				Persona:      &persona,
				HistoryLimit: int(cfg.historyLimit),
			})

			w := c.Root().Writer

			// Repopulate the visible transcript
			for _, turn := range session.History(ctx, 50) {
				fmt.Fprintf(w, "%s: %s\n", turnLabel(turn, persona), turn.Content)
			}

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize input")
			}
			defer rl.Close()

			fmt.Fprintf(w, "Chat with %s. Commands: /tool <id>, /image, /clear, /exit\n", persona.Name)

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "" {
					continue
				}

				if strings.HasPrefix(message, "/") {
					if quit := runSlashCommand(ctx, w, session, message); quit {
						break
					}
					continue
				}

				sendMessage(ctx, w, session, persona, message)
			}

			fmt.Fprintf(w, "\nSee you 👋\n")
			return nil
		},
	}
}

func runSlashCommand(ctx context.Context, w io.Writer, session *chat.Session, input string) bool {
	name, arg, _ := strings.Cut(input[1:], " ")
	switch name {
	case "exit", "quit":
		return true

	case "clear":
		session.ClearHistory(ctx)
		fmt.Fprintf(w, "Conversation history cleared\n")

	case "image":
		session.AttachImage()
		fmt.Fprintf(w, "Image attached to the next message\n")

	case "tool":
		tool, err := session.SelectTool(strings.TrimSpace(arg))
		if err != nil {
			fmt.Fprintf(w, "Unknown tool. Available:\n")
			for _, t := range model.Tools() {
				fmt.Fprintf(w, "  %-14s %s\n", t.ID, t.Name)
			}
			return false
		}
		fmt.Fprintf(w, "Tool selected: %s\n", tool.Name)

	default:
		fmt.Fprintf(w, "Unknown command: /%s\n", name)
	}
	return false
}

func sendMessage(ctx context.Context, w io.Writer, session *chat.Session, persona model.Persona, message string) {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Suffix = " thinking..."
	sp.Start()

	var stopSpinner sync.Once
	stop := func() { stopSpinner.Do(sp.Stop) }

	label := persona.AssistantLabel
	result := session.Send(ctx, message,
		func(partial string) {
			stop()
			fmt.Fprintf(w, "\r%s: %s", label, partial)
		},
		func(full string) {
			stop()
			fmt.Fprintf(w, "\r%s: %s\n", label, full)
		},
	)

	// The fallback path delivers onDone synchronously; wait out the reveal
	// otherwise
	if result.Reveal != nil {
		<-result.Reveal.Done()
	}
	stop()

	if !result.Fallback {
		fmt.Fprintf(w, "  (%.2fs)\n", result.Latency.Seconds())
	}
}

func turnLabel(turn model.Turn, persona model.Persona) string {
	if turn.Role == model.RoleAssistant {
		return persona.AssistantLabel
	}
	return "You"
}
