package commands

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nateberkopec/jobalert/internal/gateway"
	"github.com/nateberkopec/jobalert/internal/notifier"
	"github.com/nateberkopec/jobalert/internal/persistence"
	"github.com/nateberkopec/jobalert/internal/platform"
	"github.com/nateberkopec/jobalert/internal/siteurl"
	"github.com/nateberkopec/jobalert/internal/tone"
)

// stack is the set of collaborators one notifier.Client needs.
type stack struct {
	store   *persistence.Store
	gateway *gateway.Client
	desktop *platform.Desktop
	client  *notifier.Client
	link    string
}

type stackOptions struct {
	consent      platform.Consent
	deferPolling bool
}

func componentLogger(name string) *zerolog.Logger {
	l := log.With().Str("component", name).Logger()
	return &l
}

// newGateway builds an HTTP client for the configured server.
func (f *Flags) newGateway() (*gateway.Client, error) {
	if f.Config == nil {
		return nil, errors.New("config not loaded")
	}
	site, err := siteurl.Parse(f.Config.Server.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	return gateway.New(site, gateway.Options{
		Session: f.Config.Server.SessionCookie,
		Timeout: f.Config.Server.Timeout,
	})
}

func newStack(flags *Flags, opts stackOptions) (*stack, error) {
	cfg := flags.Config
	if cfg == nil {
		return nil, errors.New("config not loaded")
	}

	store, err := persistence.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	gw, err := flags.newGateway()
	if err != nil {
		return nil, err
	}

	link, err := cfg.LinkURL()
	if err != nil {
		return nil, fmt.Errorf("alerts link: %w", err)
	}

	backend := platform.Detect(cfg.Alerts.AppName, *componentLogger("platform"))
	desktop := platform.NewDesktop(platform.Options{
		Backend: backend,
		Store:   store,
		Player:  tone.NewPlayer(store.Dir()),
		Consent: opts.consent,
		Logger:  componentLogger("desktop"),
	})
	log.Debug().Str("backend", desktop.BackendName()).Msg("notification backend selected")

	ncfg := notifier.Config{
		Gateway:      gw,
		Platform:     desktop,
		Interval:     cfg.Polling.Interval,
		Limit:        cfg.Polling.Limit,
		Link:         link,
		DismissAfter: cfg.Alerts.DismissAfter,
		Sound:        cfg.Alerts.Sound,
		DeferPolling: opts.deferPolling,
		Logger:       componentLogger("notifier"),
	}
	if cfg.Alerts.MarkReadOnClick {
		ncfg.MarkRead = gw
	}

	return &stack{
		store:   store,
		gateway: gw,
		desktop: desktop,
		client:  notifier.New(ncfg),
		link:    link,
	}, nil
}

// Close stops polling and releases the notification backend.
func (s *stack) Close() {
	s.client.StopPolling()
	if err := s.desktop.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close notification backend")
	}
}
