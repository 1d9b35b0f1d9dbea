package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/quill/pkg/model"
	"github.com/urfave/cli/v3"
)

func listCommand() *cli.Command {
	var (
		cfg   config
		owner string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "owner",
			Aliases:     []string{"o"},
			Usage:       "Owner ID whose articles to list",
			Sources:     cli.EnvVars("QUILL_OWNER"),
			Destination: &owner,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List articles of an owner",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			uc, err := cfg.newArticleUseCase(ctx)
			if err != nil {
				return err
			}

			articles, err := uc.List(ctx, model.OwnerID(owner))
			if err != nil {
				return err
			}

			if len(articles) == 0 {
				fmt.Fprintf(c.Root().Writer, "No articles found\n")
				return nil
			}

			for _, a := range articles {
				fmt.Fprintf(c.Root().Writer, "%s  %s  %s\n",
					a.ID, a.UpdatedAt.Format("2006-01-02 15:04"), a.Title)
			}

			return nil
		},
	}
}
