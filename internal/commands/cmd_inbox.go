package commands

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/nateberkopec/jobalert/internal/gateway"
	"github.com/nateberkopec/jobalert/internal/icon"
)

type InboxCmd struct {
	flags *Flags

	limit int
	raw   bool
}

// NewInboxCmd creates a new inbox command
func NewInboxCmd(flags *Flags) *InboxCmd {
	return &InboxCmd{flags: flags}
}

// Register adds the inbox command to the application
func (cmd *InboxCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "inbox",
		Usage:     "List unread notifications",
		UsageText: "jobalert inbox [--limit n] [--raw]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "maximum number of notifications to list",
				Value:       20,
				Destination: &cmd.limit,
			},
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "print markdown without rendering it",
				Destination: &cmd.raw,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *InboxCmd) run(ctx context.Context, c *cli.Command) error {
	gw, err := cmd.flags.newGateway()
	if err != nil {
		return err
	}
	link, err := cmd.flags.Config.LinkURL()
	if err != nil {
		return fmt.Errorf("alerts link: %w", err)
	}

	batch, err := gw.FetchUnread(ctx, cmd.limit)
	if err != nil {
		return fmt.Errorf("fetch unread: %w", err)
	}

	md := inboxMarkdown(batch, link, time.Now())

	out := c.Root().Writer
	fd := int(os.Stdout.Fd())
	if cmd.raw || !term.IsTerminal(fd) {
		_, err := fmt.Fprint(out, md)
		return err
	}

	width := 80
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		width = w
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render inbox: %w", err)
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

// inboxMarkdown lists the batch newest first.
func inboxMarkdown(batch gateway.Batch, link string, now time.Time) string {
	var b strings.Builder

	if len(batch.Items) == 0 {
		b.WriteString("# Inbox\n\nNo unread notifications.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "# Inbox\n\n%d unread", batch.UnreadCount)
	if batch.UnreadCount > len(batch.Items) {
		fmt.Fprintf(&b, ", showing %d", len(batch.Items))
	}
	b.WriteString("\n")

	items := slices.Clone(batch.Items)
	slices.SortFunc(items, func(a, b gateway.Item) int { return cmp.Compare(b.ID, a.ID) })

	for _, item := range items {
		fmt.Fprintf(&b, "\n## %s %s\n\n", icon.For(item.Category).Glyph, escapeMarkdown(item.Title))

		meta := []string{fmt.Sprintf("`#%d`", item.ID), fmt.Sprintf("*%s*", item.Category)}
		if item.Company != "" {
			meta = append(meta, escapeMarkdown(item.Company))
		}
		if item.Position != "" {
			meta = append(meta, escapeMarkdown(item.Position))
		}
		if item.Deadline != "" {
			meta = append(meta, "deadline "+escapeMarkdown(item.Deadline))
		}
		if !item.CreatedAt.IsZero() {
			meta = append(meta, ago(now.Sub(item.CreatedAt)))
		}
		b.WriteString(strings.Join(meta, " · "))
		b.WriteString("\n")

		if body := strings.TrimSpace(item.Body); body != "" {
			b.WriteString("\n")
			b.WriteString(escapeMarkdown(body))
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n---\n\n[Open jobs](%s)\n", link)
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"#", `\#`,
	"[", `\[`,
	"]", `\]`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
