package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
	"github.com/urfave/cli/v3"
)

func showCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "show",
		Usage:     "Show the full content of an article",
		ArgsUsage: "<article-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			id := c.Args().First()
			if id == "" {
				return goerr.New("article-id argument is required")
			}

			uc, err := cfg.newArticleUseCase(ctx)
			if err != nil {
				return err
			}

			a, err := uc.Get(ctx, model.ArticleID(id))
			if err != nil {
				return goerr.Wrap(err, "failed to get article")
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "ID:      %s\n", a.ID)
			fmt.Fprintf(w, "Title:   %s\n", a.Title)
			fmt.Fprintf(w, "Owner:   %s\n", a.OwnerID)
			fmt.Fprintf(w, "Created: %s\n", a.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(w, "Updated: %s\n\n", a.UpdatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintln(w, a.BodyText)
			return nil
		},
	}
}
