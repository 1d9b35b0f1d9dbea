package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/quill/pkg/model"
	"github.com/m-mizutani/quill/pkg/usecase/history"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	var (
		cfg     config
		session string
		limit   int
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Session ID",
			Sources:     cli.EnvVars("QUILL_SESSION"),
			Destination: &session,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Number of recent messages to show",
			Value:       20,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "history",
		Usage: "Show recent messages of a session",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			msgs, err := history.List(ctx, repo, model.SessionID(session), limit)
			if err != nil {
				return err
			}

			for _, msg := range msgs {
				label := string(msg.Role)
				if msg.ToolName != "" {
					label = "tool:" + msg.ToolName
				}
				fmt.Fprintf(c.Root().Writer, "[%s] %s: %s\n",
					msg.CreatedAt.Format("2006-01-02 15:04:05"), label, msg.Content)
			}

			return nil
		},
	}
}
