//go:build windows

package tray

import (
	"os/exec"
	"syscall"
)

// OpenURL opens url in the user's default browser.
func OpenURL(url string) error {
	cmd := exec.Command("cmd", "/C", "start", url)
	// Otherwise the cmd window will appear briefly
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
	return cmd.Start()
}
