//go:build windows

package platform

import (
	"context"

	toast "git.sr.ht/~jackmordaunt/go-toast"
	"github.com/rs/zerolog"
)

// Detect returns the toast backend. Clicking a toast opens the link through
// protocol activation.
func Detect(appName string, _ zerolog.Logger) Backend {
	return &toastBackend{appID: appName}
}

type toastBackend struct {
	appID string
}

func (b *toastBackend) Name() string {
	return "toast"
}

func (b *toastBackend) Show(_ context.Context, notice Notice) error {
	n := toast.Notification{
		AppID:    b.appID,
		Title:    notice.Title,
		Body:     notice.Body,
		Icon:     notice.IconPath,
		Audio:    toast.Silent,
		Duration: toast.Short,
	}
	if notice.Link != "" {
		n.ActivationType = toast.Protocol
		n.ActivationArguments = notice.Link
	}
	return n.Push()
}

func (b *toastBackend) Close() error {
	return nil
}
