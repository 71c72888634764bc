package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/nateberkopec/jobalert/internal/notifier"
	"github.com/nateberkopec/jobalert/internal/persistence"
	"github.com/nateberkopec/jobalert/internal/platform"
)

type PermissionCmd struct {
	flags *Flags
}

// NewPermissionCmd creates a new permission command
func NewPermissionCmd(flags *Flags) *PermissionCmd {
	return &PermissionCmd{flags: flags}
}

// Register adds the permission command to the application
func (cmd *PermissionCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "permission",
		Usage: "Inspect or change the remembered desktop alert decision",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the remembered decision and the notification backend",
				Action: cmd.runShow,
			},
			{
				Name:   "reset",
				Usage:  "Forget the decision so the next start asks again",
				Action: cmd.runSet(notifier.PermissionUnknown),
			},
			{
				Name:   "grant",
				Usage:  "Allow desktop alerts without asking",
				Action: cmd.runSet(notifier.PermissionGranted),
			},
			{
				Name:   "deny",
				Usage:  "Block desktop alerts",
				Action: cmd.runSet(notifier.PermissionDenied),
			},
		},
		Action: cmd.runShow,
	})

	return app
}

func (cmd *PermissionCmd) runShow(_ context.Context, c *cli.Command) error {
	store, err := persistence.Open(cmd.flags.Config.DataDir)
	if err != nil {
		return err
	}
	record, err := store.LoadPermission()
	if err != nil {
		return fmt.Errorf("load permission: %w", err)
	}

	backend := "none"
	if b := platform.Detect(cmd.flags.Config.Alerts.AppName, log.Logger); b != nil {
		backend = b.Name()
		if err := b.Close(); err != nil {
			log.Debug().Err(err).Msg("failed to close notification backend")
		}
	}

	printPermission(c.Root().Writer, record, backend)
	return nil
}

func (cmd *PermissionCmd) runSet(p notifier.Permission) cli.ActionFunc {
	return func(_ context.Context, c *cli.Command) error {
		store, err := persistence.Open(cmd.flags.Config.DataDir)
		if err != nil {
			return err
		}
		if err := store.SavePermission(p); err != nil {
			return fmt.Errorf("save permission: %w", err)
		}
		log.Info().Stringer("permission", p).Msg("permission updated")

		out := c.Root().Writer
		switch p {
		case notifier.PermissionGranted:
			_, _ = fmt.Fprintln(out, "Desktop alerts allowed")
		case notifier.PermissionDenied:
			_, _ = fmt.Fprintln(out, "Desktop alerts blocked")
		default:
			_, _ = fmt.Fprintln(out, "Decision forgotten, you will be asked on the next start")
		}
		return nil
	}
}

func printPermission(w io.Writer, record persistence.PermissionRecord, backend string) {
	_, _ = fmt.Fprintf(w, "decision: %s\n", record.Permission)
	if !record.DecidedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "decided:  %s\n", record.DecidedAt.Local().Format(time.DateTime))
	}
	_, _ = fmt.Fprintf(w, "backend:  %s\n", backend)
}
