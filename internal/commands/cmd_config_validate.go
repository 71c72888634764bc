package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"
)

// ErrInvalidConfig is returned by config validate when a check failed.
var ErrInvalidConfig = errors.New("configuration is invalid")

type ConfigValidateCmd struct {
	flags *Flags
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "jobalert config validate",
				Description: "Checks the server URL, the alert link, durations, the poll limit and the data directory.",
				Action:      cmd.run,
			},
		},
	})

	return app
}

func (cmd *ConfigValidateCmd) run(_ context.Context, c *cli.Command) error {
	err := cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath)
	return reportValidation(c.Root().Writer, cmd.flags.ConfigPath, err)
}

func reportValidation(w io.Writer, path string, err error) error {
	if err == nil {
		_, _ = fmt.Fprintf(w, "✓ %s is valid\n", path)
		return nil
	}

	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fe := range fieldErrs {
		_, _ = fmt.Fprintf(w, "✗ %s: %v\n", fe.Field, fe.Err)
	}
	return ErrInvalidConfig
}
