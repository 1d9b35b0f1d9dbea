// Package cli wires the command line surface of quill: the chat loop, the
// one-shot send path and the article admin commands.
package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "quill",
		Usage: "Conversational agent for a personal article library",
		Commands: []*cli.Command{
			chatCommand(),
			sendCommand(),
			historyCommand(),
			newCommand(),
			showCommand(),
			listCommand(),
			searchCommand(),
			reconcileCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
