//go:build darwin

package desktopnotify

import (
	"fmt"
	"os/exec"
	"strconv"
)

// Unbundled binaries cannot use UserNotifications; AppleScript works from a
// plain executable.
func (d *DesktopNotifier) sendNotification(title, body string) error {
	script := fmt.Sprintf("display notification %s with title %s",
		strconv.Quote(body), strconv.Quote(title))

	if out, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		return fmt.Errorf("could not send notification via osascript: %s: %w", string(out), err)
	}
	return nil
}
