package platform

import (
	"context"
	"time"
)

// Notice is an alert ready for a backend: the icon is already on disk and
// OnClick opens the link.
type Notice struct {
	Title    string
	Body     string
	IconPath string
	IconPNG  []byte
	Tag      string
	Link     string
	Timeout  time.Duration
	OnClick  func()
}

// Backend delivers notices to the operating system's notification service.
type Backend interface {
	Name() string
	Show(ctx context.Context, notice Notice) error
	Close() error
}
