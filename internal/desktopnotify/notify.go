// Package desktopnotify raises operator dialogs as desktop notifications.
package desktopnotify

import (
	"github.com/eternisai/push-panel/internal/logger"
)

// AppName is reported to the notification server.
const AppName = "Push Panel"

// DesktopNotifier sends notifications through whatever the platform offers.
type DesktopNotifier struct {
	logger       *logger.Logger
	iconFilepath string
}

// New creates a notifier. iconFilepath may be empty.
func New(logger *logger.Logger, iconFilepath string) *DesktopNotifier {
	return &DesktopNotifier{
		logger:       logger.WithComponent("desktop_notifier"),
		iconFilepath: iconFilepath,
	}
}

// Notify shows title and message. It satisfies webpanel.Notifier.
func (d *DesktopNotifier) Notify(title, message string) error {
	return d.sendNotification(title, message)
}
