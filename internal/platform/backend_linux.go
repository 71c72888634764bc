//go:build linux

package platform

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/esiqveland/notify"
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

// Detect connects to the session bus notification service, falling back to
// beeep when only notify-send style helpers exist. It returns nil when the
// machine cannot show notifications at all.
func Detect(appName string, logger zerolog.Logger) Backend {
	backend, err := newDBusBackend(appName, logger)
	if err == nil {
		return backend
	}
	logger.Debug().Err(err).Msg("session bus notifications unavailable")

	for _, helper := range []string{"notify-send", "kdialog"} {
		if _, lookErr := exec.LookPath(helper); lookErr == nil {
			return newBeeepBackend(appName)
		}
	}
	return nil
}

const defaultAction = "default"

type dbusBackend struct {
	appName  string
	conn     *dbus.Conn
	notifier notify.Notifier
	logger   zerolog.Logger

	mu     sync.Mutex
	byTag  map[string]uint32
	clicks map[uint32]func()
}

func newDBusBackend(appName string, logger zerolog.Logger) (*dbusBackend, error) {
	conn, err := dbus.SessionBusPrivate()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	if err := conn.Auth(nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("authenticate session bus: %w", err)
	}
	if err := conn.Hello(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("session bus hello: %w", err)
	}

	b := &dbusBackend{
		appName: appName,
		conn:    conn,
		logger:  logger,
		byTag:   make(map[string]uint32),
		clicks:  make(map[uint32]func()),
	}

	n, err := notify.New(conn,
		notify.WithOnAction(b.onAction),
		notify.WithOnClosed(b.onClosed),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create notifier: %w", err)
	}
	b.notifier = n

	if _, err := n.GetCapabilities(); err != nil {
		n.Close()
		conn.Close()
		return nil, fmt.Errorf("query notification server: %w", err)
	}
	return b, nil
}

func (b *dbusBackend) Name() string {
	return "dbus"
}

func (b *dbusBackend) Show(_ context.Context, notice Notice) error {
	b.mu.Lock()
	replaces := b.byTag[notice.Tag]
	b.mu.Unlock()

	n := notify.Notification{
		AppName:       b.appName,
		ReplacesID:    replaces,
		AppIcon:       notice.IconPath,
		Summary:       notice.Title,
		Body:          notice.Body,
		ExpireTimeout: notice.Timeout,
	}
	n.SetUrgency(notify.UrgencyNormal)
	if notice.IconPath != "" {
		n.AddHint(notify.HintImageFilePath(notice.IconPath))
	}
	if notice.OnClick != nil {
		n.Actions = []notify.Action{notify.NewDefaultAction("Open")}
	}

	id, err := b.notifier.SendNotification(n)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if notice.Tag != "" {
		b.byTag[notice.Tag] = id
	}
	if notice.OnClick != nil {
		b.clicks[id] = notice.OnClick
	}
	return nil
}

func (b *dbusBackend) onAction(signal *notify.ActionInvokedSignal) {
	if signal.ActionKey != defaultAction {
		return
	}
	b.mu.Lock()
	onClick := b.clicks[signal.ID]
	b.mu.Unlock()

	if onClick != nil {
		go onClick()
	}
	if _, err := b.notifier.CloseNotification(signal.ID); err != nil {
		b.logger.Debug().Err(err).Uint32("id", signal.ID).Msg("close clicked notification")
	}
}

func (b *dbusBackend) onClosed(signal *notify.NotificationClosedSignal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clicks, signal.ID)
	for tag, id := range b.byTag {
		if id == signal.ID {
			delete(b.byTag, tag)
		}
	}
}

func (b *dbusBackend) Close() error {
	if err := b.notifier.Close(); err != nil {
		b.conn.Close()
		return err
	}
	return b.conn.Close()
}
