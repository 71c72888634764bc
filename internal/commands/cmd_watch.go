package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/nateberkopec/jobalert/internal/notifier"
)

// ErrAlertsBlocked is returned when the user declined desktop alerts.
var ErrAlertsBlocked = errors.New("desktop alerts are blocked; run 'jobalert permission reset' to be asked again")

type WatchCmd struct {
	flags *Flags

	yes bool
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags) *WatchCmd {
	return &WatchCmd{flags: flags}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Poll for notifications and show desktop alerts without the TUI",
		UsageText: "jobalert watch [--yes]",
		Description: `Runs until interrupted. When alerts were never allowed or blocked on this
machine, a confirm dialog asks first. Use --yes to allow them without asking.`,
		Flags: []cli.Flag{
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

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := newStack(cmd.flags, stackOptions{consent: newTerminalConsent(cmd.yes).Ask})
	if err != nil {
		return err
	}
	defer st.Close()

	out := c.Root().Writer
	st.client.Subscribe(func(e notifier.Event) { printEvent(out, e) })

	if err := resolvePermission(ctx, st.client); err != nil {
		return err
	}
	if err := st.client.StartPolling(ctx); err != nil {
		return err
	}

	log.Info().Str("server", cmd.flags.Config.Server.BaseURL).Msg("watching for notifications")
	_, _ = fmt.Fprintf(out, "Watching %s, press Ctrl+C to stop\n", cmd.flags.Config.Server.BaseURL)

	<-ctx.Done()
	return nil
}

// permissionClient is the part of notifier.Client that resolves permission.
type permissionClient interface {
	Init(ctx context.Context) notifier.State
	RequestPermission(ctx context.Context) error
	State() notifier.State
}

// resolvePermission runs Init and, when the decision is open, asks for it.
// It returns nil only when alerts are allowed.
func resolvePermission(ctx context.Context, client permissionClient) error {
	state := client.Init(ctx)
	if state == notifier.StatePromptShown {
		if err := client.RequestPermission(ctx); err != nil {
			return err
		}
		state = client.State()
	}

	switch {
	case state == notifier.StateUnsupported:
		return notifier.ErrUnsupported
	case state == notifier.StateDenied:
		return ErrAlertsBlocked
	case !state.Granted():
		return notifier.ErrNotGranted
	}
	return nil
}

func printEvent(w io.Writer, e notifier.Event) {
	if line := formatEvent(e); line != "" {
		_, _ = fmt.Fprintln(w, line)
	}
}

func formatEvent(e notifier.Event) string {
	switch e.Kind {
	case notifier.EventDisplayed:
		if e.Err != nil {
			return fmt.Sprintf("alert failed: %s: %v", e.Item.Title, e.Err)
		}
		if e.Manual {
			return fmt.Sprintf("[manual] %s: %s", e.Item.Title, e.Item.Body)
		}
		return fmt.Sprintf("[#%d %s] %s: %s", e.Item.ID, e.Item.Category, e.Item.Title, e.Item.Body)
	case notifier.EventPollFailed:
		return fmt.Sprintf("poll failed: %v", e.Err)
	}
	return ""
}
