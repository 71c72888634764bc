package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/nateberkopec/jobalert/internal/gateway"
)

type NotifyCmd struct {
	flags *Flags

	yes      bool
	category string
	job      int64
}

// NewNotifyCmd creates a new notify command
func NewNotifyCmd(flags *Flags) *NotifyCmd {
	return &NotifyCmd{flags: flags}
}

// Register adds the notify command to the application
func (cmd *NotifyCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "notify",
		Usage:     "Show a desktop alert right now",
		UsageText: "jobalert notify [--category c] [--job id] <title> [body]",
		Description: `Displays one alert locally without contacting the server. Categories are
critical, urgent, new_job and default.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "category",
				Usage:       "alert category (critical, urgent, new_job, default)",
				Value:       string(gateway.CategoryDefault),
				Destination: &cmd.category,
			},
			&cli.Int64Flag{
				Name:        "job",
				Usage:       "job id the alert refers to",
				Destination: &cmd.job,
			},
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "allow desktop alerts without asking",
				Destination: &cmd.yes,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *NotifyCmd) run(ctx context.Context, c *cli.Command) error {
	title, body, err := notifyArgs(c.Args().Slice())
	if err != nil {
		return err
	}

	st, err := newStack(cmd.flags, stackOptions{
		consent:      newTerminalConsent(cmd.yes).Ask,
		deferPolling: true,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	if err := resolvePermission(ctx, st.client); err != nil {
		return err
	}

	var jobID *int64
	if cmd.job > 0 {
		jobID = &cmd.job
	}
	return st.client.TriggerManual(ctx, gateway.ParseCategory(cmd.category), title, body, jobID)
}

func notifyArgs(args []string) (title, body string, err error) {
	switch len(args) {
	case 0:
		return "", "", errors.New("missing alert title")
	case 1:
		title = args[0]
	case 2:
		title, body = args[0], args[1]
	default:
		return "", "", fmt.Errorf("expected <title> [body], got %d arguments", len(args))
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", errors.New("alert title is empty")
	}
	return title, strings.TrimSpace(body), nil
}
