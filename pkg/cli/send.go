package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
	"github.com/urfave/cli/v3"
)

// sendCommand runs exactly one conversational turn, for scripting
func sendCommand() *cli.Command {
	var (
		cfg  config
		ccfg chatConfig
	)

	flags := chatFlags(&ccfg)
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, serviceFlags(&cfg)...)

	return &cli.Command{
		Name:      "send",
		Usage:     "Send a single message and print the reply",
		ArgsUsage: "<message>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			message := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(message) == "" {
				return goerr.New("message argument is required")
			}

			uc, err := cfg.newChatUseCase(ctx, &ccfg)
			if err != nil {
				return err
			}

			reply, err := uc.Send(ctx, model.SessionID(ccfg.session), message)
			if err != nil {
				return goerr.Wrap(err, "failed to send message")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", reply)
			return nil
		},
	}
}
