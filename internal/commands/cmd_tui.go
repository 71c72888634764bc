package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/nateberkopec/jobalert/internal/app"
)

type TuiCmd struct {
	flags *Flags

	noBell bool
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags) *TuiCmd {
	return &TuiCmd{flags: flags}
}

// Flags returns the TUI-specific flags for registration on the root command
func (cmd *TuiCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "no-bell",
			Usage:       "start with the terminal bell muted",
			Sources:     cli.EnvVars("JOBALERT_NO_BELL"),
			Destination: &cmd.noBell,
		},
	}
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	consent := app.NewConsent()
	st, err := newStack(cmd.flags, stackOptions{consent: consent.Ask})
	if err != nil {
		return err
	}
	defer st.Close()

	model := app.New(app.Config{
		Client:      st.client,
		Consent:     consent,
		Marker:      st.gateway,
		Store:       st.store,
		Link:        st.link,
		BellEnabled: !cmd.noBell,
		Logger:      componentLogger("tui"),
	})

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
