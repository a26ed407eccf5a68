package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/samcore/pkg/usecase/chat"
	"github.com/urfave/cli/v3"
)

func clearCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "clear",
		Usage: "Clear the conversation history of this session",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)

			repo := cfg.newRepository(ctx)
			defer repo.Close()

			sessionID := chat.SessionID(ctx, repo)
			chat.NewLog(repo).Clear(ctx, sessionID)

			fmt.Fprintf(c.Root().Writer, "Conversation history cleared for session %s\n", sessionID)
			return nil
		},
	}
}
