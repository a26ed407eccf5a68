package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/samcore/pkg/usecase/chat"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	var (
		cfg   config
		limit int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Number of exchanges to show",
			Value:       50,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "history",
		Usage: "Show the conversation transcript",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)

			repo := cfg.newRepository(ctx)
			defer repo.Close()

			persona := cfg.persona(ctx)
			sessionID := chat.SessionID(ctx, repo)
			turns := chat.NewLog(repo).History(ctx, sessionID, int(limit))

			if len(turns) == 0 {
				fmt.Fprintf(c.Root().Writer, "No conversation history for session %s\n", sessionID)
				return nil
			}

			for _, turn := range turns {
				fmt.Fprintf(c.Root().Writer, "%s: %s\n", turnLabel(turn, persona), turn.Content)
			}

			return nil
		},
	}
}
