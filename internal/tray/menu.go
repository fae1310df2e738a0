// Package tray puts the panel's icon and context menu in the system tray.
package tray

import (
	_ "embed"
	"log/slog"
	"sync"

	"github.com/eternisai/push-panel/internal/logger"
	"github.com/kolide/systray"
)

//go:embed assets/icon.png
var iconPNG []byte

// Menu labels.
const (
	LabelToggle    = "Show/Hide panel"
	LabelOpenPanel = "Open panel in browser"
	LabelExit      = "Exit"
	Tooltip        = "Push Panel"
)

// Actions are what the menu items do. Each runs on the item's own goroutine.
type Actions struct {
	Toggle    func()
	OpenPanel func()
	Exit      func()
}

// Item describes one menu entry. A zero Label is a separator.
type Item struct {
	Label   string
	Tooltip string
	Action  func()
}

// Items lays out the menu.
func Items(actions Actions) []Item {
	return []Item{
		{Label: LabelToggle, Tooltip: "Slide the panel in or out", Action: actions.Toggle},
		{Label: LabelOpenPanel, Tooltip: "Show the panel page", Action: actions.OpenPanel},
		{},
		{Label: LabelExit, Tooltip: "Quit Push Panel", Action: actions.Exit},
	}
}

// Menu owns the tray icon.
type Menu struct {
	actions Actions
	logger  *logger.Logger

	mu        sync.Mutex
	doneChans []chan<- struct{}
}

// New creates a tray menu.
func New(actions Actions, logger *logger.Logger) *Menu {
	return &Menu{
		actions: actions,
		logger:  logger.WithComponent("tray"),
	}
}

// Init creates the icon and menu. It must be called on the main thread, and
// blocks until Shutdown is called.
func (m *Menu) Init() {
	systray.Run(m.build, m.cleanup, m.onAppearanceChanged)
}

// Shutdown quits the menu, unblocking Init.
func (m *Menu) Shutdown() {
	systray.Quit()
}

func (m *Menu) build() {
	systray.ResetMenu()
	m.cleanup()

	systray.SetTemplateIcon(iconPNG, iconPNG)
	systray.SetTooltip(Tooltip)

	for _, it := range Items(m.actions) {
		if it.Label == "" {
			systray.AddSeparator()
			continue
		}
		item := systray.AddMenuItem(it.Label, it.Tooltip)
		if it.Action == nil {
			item.Disable()
			continue
		}
		m.makeActionHandler(item, it.Label, it.Action)
	}

	m.logger.Debug("tray menu built")
}

// The icon is a template image, so the system recolours it for dark mode.
func (m *Menu) onAppearanceChanged(dark bool) {
	m.logger.Debug("menu bar appearance changed",
		slog.Bool("dark", dark))
}

// makeActionHandler runs action whenever item is clicked, until cleanup.
func (m *Menu) makeActionHandler(item *systray.MenuItem, label string, action func()) {
	done := make(chan struct{})

	m.mu.Lock()
	m.doneChans = append(m.doneChans, done)
	m.mu.Unlock()

	go func() {
		for {
			select {
			case <-item.ClickedCh:
				m.logger.Debug("menu item clicked",
					slog.String("label", label))
				action()
			case <-done:
				return
			}
		}
	}()
}

func (m *Menu) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, done := range m.doneChans {
		close(done)
	}
	m.doneChans = nil
}
