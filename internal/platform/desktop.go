// Package platform adapts the operating system's notification service to the
// notifier. The user's answer to the alert prompt is remembered on disk.
package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nateberkopec/jobalert/internal/notifier"
	"github.com/nateberkopec/jobalert/internal/persistence"
	"github.com/nateberkopec/jobalert/internal/tone"
)

// ErrNoConsent is returned by RequestPermission when nothing can ask the user.
var ErrNoConsent = errors.New("no way to ask for notification permission")

// Consent asks the user whether alerts may be shown and blocks until they
// answered.
type Consent func(ctx context.Context) (bool, error)

// TonePlayer plays the alert tone.
type TonePlayer interface {
	Play(ctx context.Context) error
}

type Options struct {
	// Backend is nil when the machine cannot show notifications.
	Backend Backend
	Store   *persistence.Store
	Player  TonePlayer
	Consent Consent
	Open    Opener
	IconDir string
	Logger  *zerolog.Logger
}

// Desktop implements notifier.Platform.
type Desktop struct {
	backend Backend
	store   *persistence.Store
	player  TonePlayer
	consent Consent
	open    Opener
	iconDir string
	logger  zerolog.Logger
}

func NewDesktop(opts Options) *Desktop {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	open := opts.Open
	if open == nil {
		open = OpenURL
	}
	iconDir := opts.IconDir
	if iconDir == "" && opts.Store != nil {
		iconDir = opts.Store.Dir()
	}
	return &Desktop{
		backend: opts.Backend,
		store:   opts.Store,
		player:  opts.Player,
		consent: opts.Consent,
		open:    open,
		iconDir: iconDir,
		logger:  logger,
	}
}

// BackendName reports which backend delivers alerts, or "none".
func (d *Desktop) BackendName() string {
	if d.backend == nil {
		return "none"
	}
	return d.backend.Name()
}

func (d *Desktop) Supported() bool {
	return d.backend != nil
}

// Permission returns the remembered decision. An unreadable record counts as
// no decision.
func (d *Desktop) Permission() notifier.Permission {
	if d.store == nil {
		return notifier.PermissionUnknown
	}
	record, err := d.store.LoadPermission()
	if err != nil {
		d.logger.Warn().Err(err).Msg("ignoring unreadable permission record")
		return notifier.PermissionUnknown
	}
	return record.Permission
}

// RequestPermission asks through Consent and remembers the answer. A failure
// to persist is logged; the answer still holds for this run.
func (d *Desktop) RequestPermission(ctx context.Context) (notifier.Permission, error) {
	if d.consent == nil {
		return notifier.PermissionUnknown, ErrNoConsent
	}

	ok, err := d.consent(ctx)
	if err != nil {
		return notifier.PermissionUnknown, err
	}

	permission := notifier.PermissionDenied
	if ok {
		permission = notifier.PermissionGranted
	}

	if d.store != nil {
		if err := d.store.SavePermission(permission); err != nil {
			d.logger.Warn().Err(err).Msg("failed to remember notification permission")
		}
	}
	return permission, nil
}

func (d *Desktop) Display(ctx context.Context, alert notifier.Alert) error {
	if d.backend == nil {
		return notifier.ErrUnsupported
	}

	notice := Notice{
		Title:   alert.Title,
		Body:    alert.Body,
		Tag:     alert.Tag,
		Link:    alert.Link,
		Timeout: alert.Timeout,
	}

	if png, err := alert.Icon.PNG(); err == nil {
		notice.IconPNG = png
	} else {
		d.logger.Debug().Err(err).Msg("render alert icon")
	}
	if d.iconDir != "" {
		if path, err := alert.Icon.File(d.iconDir); err == nil {
			notice.IconPath = path
		} else {
			d.logger.Debug().Err(err).Msg("write alert icon")
		}
	}

	if alert.Link != "" || alert.OnClick != nil {
		notice.OnClick = func() {
			if alert.Link != "" {
				if err := d.open(alert.Link); err != nil {
					d.logger.Warn().Err(err).Msg("failed to open alert link")
				}
			}
			if alert.OnClick != nil {
				alert.OnClick()
			}
		}
	}

	if err := d.backend.Show(ctx, notice); err != nil {
		return fmt.Errorf("%s: %w", d.backend.Name(), err)
	}
	return nil
}

func (d *Desktop) PlayTone(ctx context.Context) error {
	if d.player == nil {
		return tone.ErrNoPlayer
	}
	return d.player.Play(ctx)
}

// Close releases the backend's connection.
func (d *Desktop) Close() error {
	if d.backend == nil {
		return nil
	}
	return d.backend.Close()
}
