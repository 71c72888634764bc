package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/nateberkopec/jobalert/internal/gateway"
	"github.com/nateberkopec/jobalert/internal/icon"
)

// Permission is the user's decision about desktop alerts as reported by the
// platform.
type Permission int

const (
	PermissionUnknown Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// ParsePermission converts the String form back into a Permission.
func ParsePermission(raw string) Permission {
	switch raw {
	case "granted":
		return PermissionGranted
	case "denied":
		return PermissionDenied
	default:
		return PermissionUnknown
	}
}

// State is the client's position in its lifecycle.
type State int

const (
	StateUnresolved State = iota
	StateUnsupported
	StatePromptShown
	StateGranted
	StateDenied
	StatePolling
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnsupported:
		return "unsupported"
	case StatePromptShown:
		return "awaiting permission"
	case StateGranted:
		return "granted"
	case StateDenied:
		return "denied"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "paused"
	default:
		return "starting"
	}
}

// Granted reports whether the state implies the user allowed alerts.
func (s State) Granted() bool {
	return s == StateGranted || s == StatePolling || s == StateStopped
}

// Alert is a single desktop notification handed to the platform.
type Alert struct {
	Title string
	Body  string
	Icon  icon.Icon
	// Tag collapses alerts with the same key on platforms that support it.
	Tag string
	// Link is opened when the user clicks the alert.
	Link    string
	Timeout time.Duration
	// OnClick, when set, runs after the platform routed a click.
	OnClick func()
}

// Platform is the OS notification surface plus audio output.
type Platform interface {
	Supported() bool
	Permission() Permission
	// RequestPermission suspends until the user answered.
	RequestPermission(ctx context.Context) (Permission, error)
	Display(ctx context.Context, alert Alert) error
	PlayTone(ctx context.Context) error
}

// Gateway supplies batches of unread notifications.
type Gateway interface {
	FetchUnread(ctx context.Context, limit int) (gateway.Batch, error)
}

// ReadMarker flags a notification as read on the server.
type ReadMarker interface {
	MarkRead(ctx context.Context, id int64) error
}

// EventKind identifies what an Event reports.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventPromptShown
	EventDenied
	EventDisplayed
	EventPollFailed
	EventPolled
)

// Event is published to subscribers whenever something user-visible happens.
type Event struct {
	Kind  EventKind
	State State
	// Item is set for EventDisplayed.
	Item   gateway.Item
	Manual bool
	// Fresh and UnreadCount are set for EventPolled.
	Fresh       int
	UnreadCount int
	Err         error
}

// Subscriber receives events. It is called outside the client's lock but on
// whatever goroutine produced the event, so it must not block for long.
type Subscriber func(Event)

var (
	// ErrNotGranted is returned when an operation needs a permission grant.
	ErrNotGranted = errors.New("notification permission not granted")
	// ErrDenied is returned when the user already declined alerts.
	ErrDenied = errors.New("notification permission denied")
	// ErrUnsupported is returned when the platform cannot show alerts.
	ErrUnsupported = errors.New("desktop notifications are not supported on this system")
)
