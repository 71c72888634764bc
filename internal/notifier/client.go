// Package notifier implements the notification client: permission handling,
// the polling session and watermark based deduplication. Presentation is left
// to subscribers so the state machine runs headless.
package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nateberkopec/jobalert/internal/gateway"
	"github.com/nateberkopec/jobalert/internal/icon"
	"github.com/nateberkopec/jobalert/internal/watch"
)

const (
	DefaultInterval     = 30 * time.Second
	DefaultDismissAfter = 10 * time.Second
	DefaultLink         = "/jobs"

	fetchTimeout = 30 * time.Second
)

// Config wires the client's collaborators.
type Config struct {
	Gateway  Gateway
	Platform Platform

	// Interval between scheduled fetches. Defaults to 30s.
	Interval time.Duration
	// Limit caps the number of unread items fetched per poll. Defaults to 5.
	Limit int
	// Link is the click-through target of every alert.
	Link         string
	DismissAfter time.Duration
	Sound        bool

	// MarkRead, when set, is called for a notification the user clicked.
	MarkRead ReadMarker

	// DeferPolling keeps Init and RequestPermission from starting a session.
	// One-shot callers use it to resolve permission without fetching.
	DeferPolling bool

	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
}

// Client owns permission state, the polling session and the watermark of a
// single notification client instance.
type Client struct {
	gateway      Gateway
	platform     Platform
	interval     time.Duration
	limit        int
	link         string
	dismissAfter time.Duration
	sound        bool
	marker       ReadMarker
	deferPolling bool
	logger       zerolog.Logger
	newTag       func() string

	mu                sync.Mutex
	state             State
	watermark         watch.Watermark
	session           *session
	generation        uint64
	deniedShown       bool
	unsupportedLogged bool
	subscribers       []Subscriber
}

// session is one active polling loop.
type session struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a client. Nothing happens until Init is called.
func New(cfg Config) *Client {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = gateway.DefaultLimit
	}
	link := cfg.Link
	if link == "" {
		link = DefaultLink
	}
	dismissAfter := cfg.DismissAfter
	if dismissAfter <= 0 {
		dismissAfter = DefaultDismissAfter
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Client{
		gateway:      cfg.Gateway,
		platform:     cfg.Platform,
		interval:     interval,
		limit:        limit,
		link:         link,
		dismissAfter: dismissAfter,
		sound:        cfg.Sound,
		marker:       cfg.MarkRead,
		deferPolling: cfg.DeferPolling,
		logger:       logger,
		newTag:       func() string { return "manual-" + uuid.NewString() },
	}
}

// Subscribe registers a callback invoked for every published event.
func (c *Client) Subscribe(fn Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Watermark returns the highest displayed id and whether one was displayed.
func (c *Client) Watermark() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watermark.Value()
}

// Init resolves the current permission. An unresolved permission surfaces
// the prompt through EventPromptShown; an existing grant starts polling.
// Init only acts on a fresh client.
func (c *Client) Init(ctx context.Context) State {
	c.mu.Lock()
	if c.state != StateUnresolved {
		state := c.state
		c.mu.Unlock()
		return state
	}

	if !c.platform.Supported() {
		events := []Event{c.setStateLocked(StateUnsupported)}
		if !c.unsupportedLogged {
			c.unsupportedLogged = true
			c.logger.Warn().Msg("desktop notifications unavailable; alerts disabled for this session")
		}
		c.mu.Unlock()
		c.publish(events...)
		return StateUnsupported
	}

	permission := c.platform.Permission()
	var events []Event
	switch permission {
	case PermissionGranted:
		events = append(events, c.setStateLocked(StateGranted))
	case PermissionDenied:
		c.deniedShown = true
		events = append(events, c.setStateLocked(StateDenied))
	default:
		events = append(events,
			c.setStateLocked(StatePromptShown),
			Event{Kind: EventPromptShown, State: StatePromptShown},
		)
	}
	c.mu.Unlock()

	c.logger.Debug().Str("permission", permission.String()).Msg("resolved notification permission")
	c.publish(events...)

	if permission == PermissionGranted && !c.deferPolling {
		if err := c.StartPolling(ctx); err != nil {
			c.logger.Error().Err(err).Msg("failed to start polling")
		}
	}
	return c.State()
}

// RequestPermission asks the platform for permission and suspends until the
// user answered. A grant emits a confirmation alert and starts polling; a
// denial is terminal for the session and announced exactly once.
func (c *Client) RequestPermission(ctx context.Context) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	switch {
	case state == StateUnsupported:
		return ErrUnsupported
	case state == StateDenied:
		return ErrDenied
	case state.Granted():
		return nil
	}

	permission, err := c.platform.RequestPermission(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("permission request failed")
		return fmt.Errorf("request permission: %w", err)
	}

	if permission != PermissionGranted {
		c.mu.Lock()
		events := []Event{c.setStateLocked(StateDenied)}
		if !c.deniedShown {
			c.deniedShown = true
			events = append(events, Event{Kind: EventDenied, State: StateDenied})
		}
		c.mu.Unlock()

		c.logger.Info().Msg("notification permission denied")
		c.publish(events...)
		return nil
	}

	c.mu.Lock()
	event := c.setStateLocked(StateGranted)
	c.mu.Unlock()
	c.logger.Info().Msg("notification permission granted")
	c.publish(event)

	confirmation := Alert{
		Title:   "Notifications enabled",
		Body:    "You'll be alerted about new jobs and approaching deadlines.",
		Icon:    icon.For(gateway.CategoryDefault),
		Tag:     "permission-granted",
		Link:    c.link,
		Timeout: c.dismissAfter,
	}
	if err := c.display(ctx, confirmation); err != nil {
		c.logger.Warn().Err(err).Msg("failed to show confirmation alert")
	}

	if c.deferPolling {
		return nil
	}
	return c.StartPolling(ctx)
}

// StartPolling schedules recurring fetches and performs the first one
// immediately. It is a no-op while a session is already active. The session
// ends on StopPolling or when ctx is cancelled.
func (c *Client) StartPolling(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.Granted() {
		c.mu.Unlock()
		return ErrNotGranted
	}
	if c.session != nil {
		c.mu.Unlock()
		return nil
	}

	c.generation++
	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		gen:    c.generation,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.session = s
	event := c.setStateLocked(StatePolling)
	c.mu.Unlock()

	c.logger.Info().Dur("interval", c.interval).Msg("polling started")
	c.publish(event)

	go c.loop(sctx, s)
	return nil
}

// StopPolling cancels the active session. It is idempotent and safe to call
// on a client that never polled. A fetch already in flight completes and its
// result is discarded.
func (c *Client) StopPolling() {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return
	}
	c.session = nil
	event := c.setStateLocked(StateStopped)
	c.mu.Unlock()

	s.cancel()
	c.logger.Info().Msg("polling stopped")
	c.publish(event)
}

// PollOnce fetches unread notifications and displays the ones above the
// watermark. Failures are logged and leave the client untouched.
func (c *Client) PollOnce(ctx context.Context) error {
	if !c.State().Granted() {
		return ErrNotGranted
	}
	return c.poll(ctx, 0)
}

// TriggerManual displays a caller-initiated alert without consulting the
// gateway. It does not touch the watermark.
func (c *Client) TriggerManual(ctx context.Context, category gateway.Category, title, body string, jobID *int64) error {
	state := c.State()
	switch {
	case state == StateUnsupported:
		return ErrUnsupported
	case !state.Granted():
		return ErrNotGranted
	}

	ic := icon.For(category)
	item := gateway.Item{
		Title:     title,
		Body:      body,
		Category:  ic.Category,
		JobID:     jobID,
		CreatedAt: time.Now(),
	}
	err := c.display(ctx, Alert{
		Title:   title,
		Body:    body,
		Icon:    ic,
		Tag:     c.newTag(),
		Link:    c.link,
		Timeout: c.dismissAfter,
	})
	c.publish(Event{Kind: EventDisplayed, State: state, Item: item, Manual: true, Err: err})
	return err
}

func (c *Client) loop(ctx context.Context, s *session) {
	defer close(s.done)
	defer c.endSession(s)

	_ = c.poll(ctx, s.gen)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.poll(ctx, s.gen)
		}
	}
}

// endSession handles a session whose context was cancelled from outside,
// e.g. by the owner tearing the page down.
func (c *Client) endSession(s *session) {
	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return
	}
	c.session = nil
	event := c.setStateLocked(StateStopped)
	c.mu.Unlock()

	s.cancel()
	c.publish(event)
}

// poll runs one fetch. gen identifies the session that issued it; zero means
// a manual poll whose result always applies.
func (c *Client) poll(ctx context.Context, gen uint64) error {
	if gen != 0 {
		// The session's cancel stops scheduling, not the fetch in flight.
		ctx = context.WithoutCancel(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	batch, err := c.gateway.FetchUnread(ctx, c.limit)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to fetch notifications")
		c.publish(Event{Kind: EventPollFailed, State: c.State(), Err: err})
		return fmt.Errorf("fetch unread: %w", err)
	}

	c.mu.Lock()
	if gen != 0 && (c.session == nil || c.session.gen != gen) {
		c.mu.Unlock()
		c.logger.Debug().Int("items", len(batch.Items)).Msg("discarding result of stopped session")
		return nil
	}
	if !c.state.Granted() {
		c.mu.Unlock()
		return nil
	}
	fresh := c.watermark.Fresh(batch.Items)
	c.watermark.Advance(batch.Items)
	watermark, _ := c.watermark.Value()
	state := c.state
	c.mu.Unlock()

	for _, item := range fresh {
		err := c.display(ctx, c.alertFor(item))
		c.publish(Event{Kind: EventDisplayed, State: state, Item: item, Err: err})
	}

	c.logger.Debug().
		Int("fetched", len(batch.Items)).
		Int("fresh", len(fresh)).
		Int64("watermark", watermark).
		Msg("poll complete")
	c.publish(Event{Kind: EventPolled, State: state, Fresh: len(fresh), UnreadCount: batch.UnreadCount})
	return nil
}

func (c *Client) alertFor(item gateway.Item) Alert {
	alert := Alert{
		Title:   item.Title,
		Body:    item.Body,
		Icon:    icon.For(item.Category),
		Tag:     fmt.Sprintf("notification-%d", item.ID),
		Link:    c.link,
		Timeout: c.dismissAfter,
	}
	if c.marker != nil {
		id := item.ID
		alert.OnClick = func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := c.marker.MarkRead(ctx, id); err != nil {
				c.logger.Warn().Err(err).Int64("notification_id", id).Msg("failed to mark notification read")
			}
		}
	}
	return alert
}

// display shows an alert and plays the tone. Tone failures are not errors.
func (c *Client) display(ctx context.Context, alert Alert) error {
	if err := c.platform.Display(ctx, alert); err != nil {
		c.logger.Warn().Err(err).Str("tag", alert.Tag).Msg("failed to display alert")
		return err
	}
	if c.sound {
		if err := c.platform.PlayTone(ctx); err != nil {
			c.logger.Debug().Err(err).Msg("alert tone unavailable")
		}
	}
	return nil
}

func (c *Client) setStateLocked(state State) Event {
	c.state = state
	return Event{Kind: EventStateChanged, State: state}
}

func (c *Client) publish(events ...Event) {
	if len(events) == 0 {
		return
	}

	c.mu.Lock()
	subs := make([]Subscriber, len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()

	for _, event := range events {
		for _, fn := range subs {
			fn(event)
		}
	}
}
