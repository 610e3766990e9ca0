package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser hands the given URL to the platform's default browser.
// The open command uses it to jump straight to a project's editor page.
func OpenBrowser(url string) error {
	var name string
	var args []string

	switch rt := getRuntime(); rt {
	case "darwin":
		name, args = "open", []string{url}
	case "windows":
		name, args = "cmd", []string{"/c", "start", url}
	case "linux":
		name, args = "xdg-open", []string{url}
	default:
		return fmt.Errorf("no browser opener known for %s", rt)
	}

	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to open %s in a browser: %w", url, err)
	}
	return nil
}
