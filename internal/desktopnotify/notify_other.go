//go:build !linux && !darwin

package desktopnotify

import "log/slog"

// The browser page shows every dialog already; nothing more to do here.
func (d *DesktopNotifier) sendNotification(title, body string) error {
	d.logger.Debug("desktop notifications unsupported on this platform",
		slog.String("title", title))
	return nil
}
