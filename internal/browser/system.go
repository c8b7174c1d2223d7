package browser

import (
	"os/exec"
	"runtime"
)

// OpenDefault opens url in the user's default browser without waiting for it.
// Used by the manual login, where no DevTools-capable Chrome is available.
func OpenDefault(url string) error {
	name, args := openCommand(runtime.GOOS, url)
	return exec.Command(name, args...).Start()
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin": // Mac OS
		return "open", []string{url}
	default: // Linux, BSD, etc
		return "xdg-open", []string{url}
	}
}
