package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg   config
		limit int
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of results (1-100)",
			Value:       10,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Search articles by semantic similarity",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			query := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return goerr.New("query argument is required")
			}

			uc, err := cfg.newArticleUseCase(ctx)
			if err != nil {
				return err
			}

			entries, err := uc.Search(ctx, query, limit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintf(c.Root().Writer, "No matching articles found\n")
				return nil
			}

			for i, e := range entries {
				fmt.Fprintf(c.Root().Writer, "%d. %s (id: %s, score: %.3f)\n",
					i+1, e.Metadata.Title, e.ArticleID, e.Score)
				if e.Metadata.Excerpt != "" {
					fmt.Fprintf(c.Root().Writer, "   %s\n", e.Metadata.Excerpt)
				}
			}

			return nil
		},
	}
}
