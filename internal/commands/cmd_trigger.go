package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/nateberkopec/jobalert/internal/gateway"
)

type TriggerCmd struct {
	flags *Flags

	category string
	title    string
	message  string
}

// NewTriggerCmd creates a new test command
func NewTriggerCmd(flags *Flags) *TriggerCmd {
	return &TriggerCmd{flags: flags}
}

// Register adds the test command to the application
func (cmd *TriggerCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "test",
		Usage:     "Ask the server to create a test notification",
		UsageText: "jobalert test [--category c] [--title t] [--message m]",
		Description: `The notification is stored server-side like any other, so a running
watcher or TUI picks it up on its next poll.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "category",
				Usage:       "notification category (critical, urgent, new_job, default)",
				Value:       string(gateway.CategoryNewJob),
				Destination: &cmd.category,
			},
			&cli.StringFlag{
				Name:        "title",
				Usage:       "notification title",
				Value:       "Test notification",
				Destination: &cmd.title,
			},
			&cli.StringFlag{
				Name:        "message",
				Usage:       "notification message",
				Value:       "This is a test notification from jobalert.",
				Destination: &cmd.message,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *TriggerCmd) run(ctx context.Context, c *cli.Command) error {
	gw, err := cmd.flags.newGateway()
	if err != nil {
		return err
	}

	category := gateway.ParseCategory(cmd.category)
	if err := gw.TriggerTest(ctx, category, cmd.title, cmd.message); err != nil {
		return fmt.Errorf("trigger test notification: %w", err)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Created %s test notification\n", category)
	return nil
}
