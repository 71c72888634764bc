package platform

import (
	"context"

	"github.com/gen2brain/beeep"
)

// beeepBackend is the portable fallback. It cannot replace by tag, expire
// early or report clicks.
type beeepBackend struct {
	notify func(title, message string, icon any) error
}

func newBeeepBackend(appName string) *beeepBackend {
	beeep.AppName = appName
	return &beeepBackend{notify: beeep.Notify}
}

func (b *beeepBackend) Name() string {
	return "beeep"
}

func (b *beeepBackend) Show(_ context.Context, notice Notice) error {
	var icon any = notice.IconPath
	if len(notice.IconPNG) > 0 {
		icon = notice.IconPNG
	}
	return b.notify(notice.Title, notice.Body, icon)
}

func (b *beeepBackend) Close() error {
	return nil
}
