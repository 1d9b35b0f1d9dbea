package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
	"github.com/urfave/cli/v3"
)

// newCommand creates an article directly from a structured post JSON file,
// bypassing the conversation
func newCommand() *cli.Command {
	var (
		cfg   config
		input string
		owner string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to JSON file containing the structured post",
			Destination: &input,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "owner",
			Aliases:     []string{"o"},
			Usage:       "Owner ID of the new article",
			Sources:     cli.EnvVars("QUILL_OWNER"),
			Destination: &owner,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "new",
		Usage: "Create an article from a structured post JSON file",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			payload, err := os.ReadFile(input)
			if err != nil {
				return goerr.Wrap(err, "failed to read input file", goerr.V("path", input))
			}

			uc, err := cfg.newArticleUseCase(ctx)
			if err != nil {
				return err
			}

			a, err := uc.Create(ctx, model.OwnerID(owner), payload)
			if err != nil {
				return goerr.Wrap(err, "failed to create article")
			}

			fmt.Fprintf(c.Root().Writer, "Created article %q (id: %s)\n", a.Title, a.ID)
			return nil
		},
	}
}
