package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/samcore/pkg/model"
	"github.com/urfave/cli/v3"
)

func profileCommand() *cli.Command {
	var (
		cfg  config
		name string
		age  int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "name",
			Usage:       "Display name used to personalize prompts",
			Destination: &name,
		},
		&cli.IntFlag{
			Name:        "age",
			Usage:       "Age used to personalize prompts",
			Destination: &age,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "profile",
		Usage: "Show or update the user profile",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)

			repo := cfg.newRepository(ctx)
			defer repo.Close()

			w := c.Root().Writer

			// Without flags, just show the stored profile
			if name == "" && age == 0 {
				profile, err := repo.GetProfile(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to load profile")
				}
				if profile == nil {
					fmt.Fprintf(w, "No profile stored\n")
					return nil
				}
				fmt.Fprintf(w, "Name: %s\nAge: %d\n", profile.Name, profile.Age)
				return nil
			}

			if name == "" {
				return goerr.New("name is required to update the profile")
			}

			profile := &model.UserProfile{Name: name, Age: int(age)}
			if err := repo.PutProfile(ctx, profile); err != nil {
				return goerr.Wrap(err, "failed to save profile")
			}

			fmt.Fprintf(w, "Profile saved\n")
			return nil
		},
	}
}
