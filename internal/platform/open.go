package platform

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener opens a URL in the user's browser.
type Opener func(url string) error

// OpenURL opens url with the platform's default handler.
func OpenURL(url string) error {
	name, args := openCommand(runtime.GOOS, url)
	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
