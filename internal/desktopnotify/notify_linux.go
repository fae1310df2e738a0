//go:build linux

package desktopnotify

import (
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/godbus/dbus/v5"
)

const (
	notificationServiceObj       = "/org/freedesktop/Notifications"
	notificationServiceInterface = "org.freedesktop.Notifications"
)

func (d *DesktopNotifier) sendNotification(title, body string) error {
	if err := d.sendNotificationViaDbus(title, body); err == nil {
		return nil
	}

	return d.sendNotificationViaNotifySend(title, body)
}

// See: https://specifications.freedesktop.org/notification-spec/notification-spec-latest.html
func (d *DesktopNotifier) sendNotificationViaDbus(title, body string) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		d.logger.Debug("could not connect to dbus, will try notify-send",
			slog.String("error", err.Error()))
		return fmt.Errorf("could not connect to dbus: %w", err)
	}

	notificationsService := conn.Object(notificationServiceInterface, notificationServiceObj)
	call := notificationsService.Call("org.freedesktop.Notifications.Notify",
		0,                         // no flags
		AppName,                   // app_name
		uint32(0),                 // replaces_id
		d.iconFilepath,            // app_icon
		title,                     // summary
		body,                      // body
		[]string{},                // actions
		map[string]dbus.Variant{}, // hints
		int32(-1))                 // expire_timeout: server default

	if call.Err != nil {
		d.logger.Warn("could not send notification via dbus",
			slog.String("error", call.Err.Error()))
		return fmt.Errorf("could not send notification via dbus: %w", call.Err)
	}

	return nil
}

func (d *DesktopNotifier) sendNotificationViaNotifySend(title, body string) error {
	notifySend, err := exec.LookPath("notify-send")
	if err != nil {
		d.logger.Debug("notify-send not installed",
			slog.String("error", err.Error()))
		return fmt.Errorf("notify-send not installed: %w", err)
	}

	args := []string{"--app-name", AppName, title, body}
	if d.iconFilepath != "" {
		args = append(args, "-i", d.iconFilepath)
	}

	cmd := exec.Command(notifySend, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		d.logger.Error("could not send notification via notify-send",
			slog.String("output", string(out)),
			slog.String("error", err.Error()))
		return fmt.Errorf("could not send notification via notify-send: %s: %w", string(out), err)
	}

	return nil
}
