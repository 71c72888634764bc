package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrNoTerminal is returned when permission must be asked but stdin is not
// a terminal. Pass --yes to allow alerts non-interactively.
var ErrNoTerminal = errors.New("cannot ask for notification permission without a terminal; pass --yes")

// terminalConsent asks for alert permission with a confirm dialog.
type terminalConsent struct {
	yes     bool
	isTTY   func() bool
	confirm func(ctx context.Context) (bool, error)
}

func newTerminalConsent(yes bool) *terminalConsent {
	return &terminalConsent{
		yes:     yes,
		isTTY:   stdinIsTerminal,
		confirm: confirmAlerts,
	}
}

// Ask satisfies platform.Consent. Aborting the dialog (huh.ErrUserAborted)
// is returned as an error so the decision stays unresolved.
func (c *terminalConsent) Ask(ctx context.Context) (bool, error) {
	if c.yes {
		return true, nil
	}
	if !c.isTTY() {
		return false, ErrNoTerminal
	}
	allow, err := c.confirm(ctx)
	if err != nil {
		return false, fmt.Errorf("permission prompt: %w", err)
	}
	return allow, nil
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func confirmAlerts(ctx context.Context) (bool, error) {
	allow := true
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Enable desktop alerts?").
			Description("jobalert shows a notification for new jobs and approaching deadlines.").
			Affirmative("Allow").
			Negative("Block").
			Value(&allow),
	)).RunWithContext(ctx)
	return allow, err
}
