package commands

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateberkopec/jobalert/internal/config"
	"github.com/nateberkopec/jobalert/internal/gateway"
	"github.com/nateberkopec/jobalert/internal/notifier"
	"github.com/nateberkopec/jobalert/internal/persistence"
)

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	assert.Equal(t, filepath.Join("/xdg/config", "jobalert", "config.yaml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/xdg/data", "jobalert"), DefaultDataDir())
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	flags := &Flags{Config: &cfg, BaseURL: "https://jobs.example.com", Session: "s3cret", Interval: time.Minute}

	flags.ApplyOverrides()

	assert.Equal(t, "https://jobs.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "s3cret", cfg.Server.SessionCookie)
	assert.Equal(t, time.Minute, cfg.Polling.Interval)

	flags = &Flags{Config: &cfg}
	flags.ApplyOverrides()
	assert.Equal(t, "https://jobs.example.com", cfg.Server.BaseURL, "empty flags keep file values")
}

func TestNotifyArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantTitle string
		wantBody  string
		wantErr   bool
	}{
		{name: "title only", args: []string{"Deadline"}, wantTitle: "Deadline"},
		{name: "title and body", args: []string{" Deadline ", " tomorrow "}, wantTitle: "Deadline", wantBody: "tomorrow"},
		{name: "missing", args: nil, wantErr: true},
		{name: "blank title", args: []string{"  "}, wantErr: true},
		{name: "too many", args: []string{"a", "b", "c"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body, err := notifyArgs(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestReadArgs(t *testing.T) {
	ids, err := readArgs([]string{"4", "17"}, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 17}, ids)

	ids, err = readArgs(nil, true)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = readArgs([]string{"4"}, true)
	require.Error(t, err)

	_, err = readArgs(nil, false)
	require.Error(t, err)

	_, err = readArgs([]string{"abc"}, false)
	assert.ErrorContains(t, err, `"abc"`)

	_, err = readArgs([]string{"0"}, false)
	require.Error(t, err)
}

func TestInboxMarkdown(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	batch := gateway.Batch{
		UnreadCount: 7,
		Items: []gateway.Item{
			{ID: 3, Title: "New job: Backend_Engineer", Body: "Acme is hiring", Category: gateway.CategoryNewJob, Company: "Acme", CreatedAt: now.Add(-2 * time.Hour)},
			{ID: 9, Title: "Deadline tomorrow", Category: gateway.CategoryCritical, Deadline: "2025-03-15", CreatedAt: now.Add(-30 * time.Second)},
		},
	}

	md := inboxMarkdown(batch, "https://jobs.example.com/jobs", now)

	assert.Contains(t, md, "7 unread, showing 2")
	assert.Contains(t, md, `Backend\_Engineer`)
	assert.Contains(t, md, "deadline 2025-03-15")
	assert.Contains(t, md, "2h ago")
	assert.Contains(t, md, "just now")
	assert.Contains(t, md, "[Open jobs](https://jobs.example.com/jobs)")
	assert.Less(t, strings.Index(md, "`#9`"), strings.Index(md, "`#3`"), "newest first")
}

func TestInboxMarkdownEmpty(t *testing.T) {
	md := inboxMarkdown(gateway.Batch{}, "/jobs", time.Now())
	assert.Contains(t, md, "No unread notifications.")
	assert.NotContains(t, md, "Open jobs")
}

func TestTerminalConsent(t *testing.T) {
	ctx := context.Background()

	t.Run("yes skips the dialog", func(t *testing.T) {
		c := &terminalConsent{
			yes:     true,
			isTTY:   func() bool { return false },
			confirm: func(context.Context) (bool, error) { t.Fatal("dialog shown"); return false, nil },
		}
		allow, err := c.Ask(ctx)
		require.NoError(t, err)
		assert.True(t, allow)
	})

	t.Run("no terminal", func(t *testing.T) {
		c := &terminalConsent{isTTY: func() bool { return false }}
		_, err := c.Ask(ctx)
		assert.ErrorIs(t, err, ErrNoTerminal)
	})

	t.Run("dialog answer", func(t *testing.T) {
		c := &terminalConsent{
			isTTY:   func() bool { return true },
			confirm: func(context.Context) (bool, error) { return false, nil },
		}
		allow, err := c.Ask(ctx)
		require.NoError(t, err)
		assert.False(t, allow)
	})

	t.Run("dialog error", func(t *testing.T) {
		aborted := errors.New("user aborted")
		c := &terminalConsent{
			isTTY:   func() bool { return true },
			confirm: func(context.Context) (bool, error) { return false, aborted },
		}
		_, err := c.Ask(ctx)
		assert.ErrorIs(t, err, aborted)
	})
}

type stubPermissionClient struct {
	initial  notifier.State
	answered notifier.State
	err      error
	state    notifier.State
	asked    int
}

func (c *stubPermissionClient) Init(context.Context) notifier.State {
	c.state = c.initial
	return c.state
}

func (c *stubPermissionClient) RequestPermission(context.Context) error {
	c.asked++
	if c.err != nil {
		return c.err
	}
	c.state = c.answered
	return nil
}

func (c *stubPermissionClient) State() notifier.State { return c.state }

func TestResolvePermission(t *testing.T) {
	ctx := context.Background()
	promptErr := errors.New("prompt failed")

	tests := []struct {
		name   string
		client *stubPermissionClient
		want   error
		asked  int
	}{
		{name: "existing grant", client: &stubPermissionClient{initial: notifier.StatePolling}},
		{name: "prompt allowed", client: &stubPermissionClient{initial: notifier.StatePromptShown, answered: notifier.StateGranted}, asked: 1},
		{name: "prompt blocked", client: &stubPermissionClient{initial: notifier.StatePromptShown, answered: notifier.StateDenied}, want: ErrAlertsBlocked, asked: 1},
		{name: "prompt error", client: &stubPermissionClient{initial: notifier.StatePromptShown, err: promptErr}, want: promptErr, asked: 1},
		{name: "blocked earlier", client: &stubPermissionClient{initial: notifier.StateDenied}, want: ErrAlertsBlocked},
		{name: "unsupported", client: &stubPermissionClient{initial: notifier.StateUnsupported}, want: notifier.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := resolvePermission(ctx, tt.client)
			if tt.want == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, tt.asked, tt.client.asked)
		})
	}
}

func TestFormatEvent(t *testing.T) {
	item := gateway.Item{ID: 12, Title: "New job", Body: "Acme", Category: gateway.CategoryNewJob}

	assert.Equal(t, "[#12 new_job] New job: Acme", formatEvent(notifier.Event{Kind: notifier.EventDisplayed, Item: item}))
	assert.Equal(t, "[manual] New job: Acme", formatEvent(notifier.Event{Kind: notifier.EventDisplayed, Item: item, Manual: true}))
	assert.Contains(t, formatEvent(notifier.Event{Kind: notifier.EventDisplayed, Item: item, Err: errors.New("dbus gone")}), "dbus gone")
	assert.Equal(t, "poll failed: boom", formatEvent(notifier.Event{Kind: notifier.EventPollFailed, Err: errors.New("boom")}))
	assert.Empty(t, formatEvent(notifier.Event{Kind: notifier.EventPolled}))
}

func TestReportValidation(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, reportValidation(&out, "config.yaml", nil))
	assert.Contains(t, out.String(), "config.yaml is valid")

	out.Reset()
	err := criterio.ValidateStruct(
		criterio.NewFieldErrors("polling.limit", errors.New("must be between 1 and 100, got 0")),
	)
	assert.ErrorIs(t, reportValidation(&out, "config.yaml", err), ErrInvalidConfig)
	assert.Contains(t, out.String(), "polling.limit: must be between 1 and 100")

	plain := errors.New("read failed")
	assert.Equal(t, plain, reportValidation(&out, "config.yaml", plain))
}

func TestPrintPermission(t *testing.T) {
	var out bytes.Buffer
	printPermission(&out, persistence.PermissionRecord{}, "none")
	assert.Equal(t, "decision: unknown\nbackend:  none\n", out.String())

	out.Reset()
	printPermission(&out, persistence.PermissionRecord{
		Permission: notifier.PermissionGranted,
		DecidedAt:  time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local),
	}, "dbus")
	assert.Contains(t, out.String(), "decision: granted")
	assert.Contains(t, out.String(), "decided:  2025-03-14 09:30:00")
	assert.Contains(t, out.String(), "backend:  dbus")
}
