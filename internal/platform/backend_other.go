//go:build !linux && !windows

package platform

import "github.com/rs/zerolog"

// Detect returns the beeep backend, which drives the native notification
// center on macOS and notify-send on the BSDs.
func Detect(appName string, _ zerolog.Logger) Backend {
	return newBeeepBackend(appName)
}
