package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
	"github.com/urfave/cli/v3"
)

// reconcileCommand repairs drift between the content store and the
// semantic index
func reconcileCommand() *cli.Command {
	var (
		cfg config
		all bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "all",
			Aliases:     []string{"a"},
			Usage:       "Sweep every article known to either store",
			Destination: &all,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "reconcile",
		Usage:     "Repair the semantic index against the content store",
		ArgsUsage: "[article-id]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			uc, err := cfg.newArticleUseCase(ctx)
			if err != nil {
				return err
			}

			if all {
				counts, err := uc.ReconcileAll(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to reconcile")
				}
				for action, n := range counts {
					fmt.Fprintf(c.Root().Writer, "%s: %d\n", action, n)
				}
				return nil
			}

			id := c.Args().First()
			if id == "" {
				return goerr.New("article-id argument or --all is required")
			}

			action, err := uc.Reconcile(ctx, model.ArticleID(id))
			if err != nil {
				return goerr.Wrap(err, "failed to reconcile article", goerr.V("id", id))
			}

			fmt.Fprintf(c.Root().Writer, "%s: %s\n", id, action)
			return nil
		},
	}
}
