//go:build linux

package tray

import (
	"fmt"
	"os/exec"
)

// OpenURL opens url in the user's default browser.
func OpenURL(url string) error {
	for _, provider := range []string{"xdg-open", "x-www-browser"} {
		path, err := exec.LookPath(provider)
		if err != nil {
			continue
		}
		return exec.Command(path, url).Start()
	}
	return fmt.Errorf("no browser launcher found for %s", url)
}
