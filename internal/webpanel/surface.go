// Package webpanel draws the tray panel in a local browser page and turns the
// page's input into controller calls.
package webpanel

import (
	"log/slog"
	"sync"

	"github.com/eternisai/push-panel/internal/logger"
	"github.com/eternisai/push-panel/internal/panel"
)

// Notifier raises a desktop notification next to the in-page dialog.
type Notifier interface {
	Notify(title, message string) error
}

// Surface is the panel.Window behind the web page. It keeps the latest
// snapshot for new connections and pushes every change through the hub.
type Surface struct {
	hub      *Hub
	notifier Notifier
	logger   *logger.Logger

	mu       sync.RWMutex
	snapshot Snapshot
}

var _ panel.Window = (*Surface)(nil)

// NewSurface creates a surface for a screen of the given size. notifier may
// be nil.
func NewSurface(hub *Hub, screen panel.Size, notifier Notifier, logger *logger.Logger) *Surface {
	return &Surface{
		hub:      hub,
		notifier: notifier,
		logger:   logger,
		snapshot: Snapshot{
			Screen:    screen,
			SendState: panel.SendIdle.String(),
		},
	}
}

// Snapshot returns the current panel picture.
func (s *Surface) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Surface) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snapshot)
	s.snapshot.Version++
	snap := s.snapshot
	s.mu.Unlock()

	s.hub.Broadcast(WebSocketMessage{Type: WSMessageTypeSnapshot, Snapshot: &snap})
}

func (s *Surface) Show() {
	s.update(func(snap *Snapshot) { snap.Visible = true })
}

func (s *Surface) Hide() {
	s.update(func(snap *Snapshot) { snap.Visible = false })
}

func (s *Surface) SetGeometry(r panel.Rect) {
	s.update(func(snap *Snapshot) { snap.Geometry = r })
}

func (s *Surface) SetFields(token string, remember bool) {
	s.update(func(snap *Snapshot) {
		snap.Token = token
		snap.Remember = remember
	})
}

func (s *Surface) SetSendState(state panel.SendState) {
	s.update(func(snap *Snapshot) {
		snap.SendState = state.String()
		snap.SendColor = state.Color()
	})
}

func (s *Surface) ShowWarning(title, message string) {
	s.showDialog(DialogWarning, title, message)
}

func (s *Surface) ShowError(title, message string) {
	s.showDialog(DialogError, title, message)
}

func (s *Surface) showDialog(kind, title, message string) {
	s.hub.Broadcast(WebSocketMessage{
		Type:   WSMessageTypeDialog,
		Dialog: &Dialog{Kind: kind, Title: title, Message: message},
	})

	if s.notifier == nil {
		return
	}
	// Desktop notifications may block on the session bus; keep the UI thread free.
	go func() {
		if err := s.notifier.Notify(title, message); err != nil {
			s.logger.WithComponent("webpanel").Warn("desktop notification failed",
				slog.String("kind", kind),
				slog.String("error", err.Error()))
		}
	}()
}
