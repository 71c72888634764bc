package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type ReadCmd struct {
	flags *Flags

	all bool
}

// NewReadCmd creates a new read command
func NewReadCmd(flags *Flags) *ReadCmd {
	return &ReadCmd{flags: flags}
}

// Register adds the read command to the application
func (cmd *ReadCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "read",
		Usage:     "Mark notifications as read on the server",
		UsageText: "jobalert read <id>... | --all",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "all",
				Usage:       "mark every unread notification as read",
				Destination: &cmd.all,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ReadCmd) run(ctx context.Context, c *cli.Command) error {
	ids, err := readArgs(c.Args().Slice(), cmd.all)
	if err != nil {
		return err
	}

	gw, err := cmd.flags.newGateway()
	if err != nil {
		return err
	}
	out := c.Root().Writer

	if cmd.all {
		if err := gw.MarkAllRead(ctx); err != nil {
			return fmt.Errorf("mark all read: %w", err)
		}
		_, _ = fmt.Fprintln(out, "All notifications marked as read")
		return nil
	}

	for _, id := range ids {
		if err := gw.MarkRead(ctx, id); err != nil {
			return fmt.Errorf("mark #%d read: %w", id, err)
		}
		log.Debug().Int64("notification_id", id).Msg("marked read")
		_, _ = fmt.Fprintf(out, "Marked #%d as read\n", id)
	}
	return nil
}

func readArgs(args []string, all bool) ([]int64, error) {
	if all {
		if len(args) > 0 {
			return nil, errors.New("--all does not take notification ids")
		}
		return nil, nil
	}
	if len(args) == 0 {
		return nil, errors.New("missing notification id; pass an id or --all")
	}

	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid notification id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
