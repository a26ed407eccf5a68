package cli

import (
	"context"
	"net"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/samcore/pkg/server"
	"github.com/m-mizutani/samcore/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       ":5000",
			Sources:     cli.EnvVars("SAMCORE_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP chat API",
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
			srv := server.New(server.NewInput{
				Repo:    repo,
				Gemini:  gemini,
				Persona: &persona,
			})

			logging.From(ctx).Info("starting chat API", "addr", addr, "provider", persona.Name)

			httpServer := &http.Server{
				Addr:    addr,
				Handler: srv,
				BaseContext: func(net.Listener) context.Context {
					return ctx
				},
			}

			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return goerr.Wrap(err, "failed to serve", goerr.V("addr", addr))
			}
			return nil
		},
	}
}
