// Package panel implements the tray panel's presentation state machine:
// where the panel sits, how it slides in and out, and how a send from the
// panel is carried out and reported back.
//
// Every Controller method must be called on the Scheduler's goroutine.
package panel

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/eternisai/push-panel/internal/logger"
	"github.com/eternisai/push-panel/internal/notifications"
)

var (
	// ErrSendInProgress is returned while an earlier send has not reported back.
	ErrSendInProgress = errors.New("a send is already in progress")
	// ErrPanelNotVisible is returned when Send is called while the panel is
	// not fully shown.
	ErrPanelNotVisible = errors.New("panel is not visible")
)

// Dialog texts.
const (
	InputErrorTitle   = "Input Error"
	InputErrorMessage = "All fields must be filled out."
	SendErrorTitle    = "Error"
	SendErrorPrefix   = "Failed to send notification.\n"
)

// Window is the surface the panel is drawn on.
type Window interface {
	Show()
	Hide()
	SetGeometry(r Rect)
	// SetFields pre-fills the token field and the remember flag.
	SetFields(token string, remember bool)
	SetSendState(s SendState)
	ShowWarning(title, message string)
	ShowError(title, message string)
}

// Screen describes the display the tray lives on.
type Screen interface {
	Size() Size
	TrayIcon() Rect
}

// Dispatcher delivers a notification. Send blocks for the network round trip.
type Dispatcher interface {
	Send(ctx context.Context, token, body string) (notifications.DeliveryResult, error)
}

// TokenStore remembers the device token between runs.
type TokenStore interface {
	Persist(token string) error
	Erase() error
	Load() (string, bool, error)
}

// Scheduler is the UI thread. Post may be called from any goroutine; After
// and the returned stop func only from the scheduler itself.
type Scheduler interface {
	Post(fn func()) bool
	After(d time.Duration, fn func()) (stop func())
	Now() time.Time
}

// AppContext carries what the controller needs from the application.
type AppContext struct {
	Scheduler Scheduler
	Logger    *logger.Logger
	Screen    Screen
	PanelSize Size

	AnimationDuration time.Duration
	FlashDuration     time.Duration
	// FrameInterval defaults to DefaultFrameInterval.
	FrameInterval time.Duration
}

// SendInput is what the operator entered in the panel.
type SendInput struct {
	Token    string
	Body     string
	Remember bool
}

type pendingSend struct {
	id     uint64
	cancel context.CancelFunc
}

// Controller owns the panel's WindowState and the single in-flight send.
type Controller struct {
	app        AppContext
	window     Window
	dispatcher Dispatcher
	store      TokenStore
	log        *logger.Logger

	state    WindowState
	geometry Rect
	anim     *animation

	pending   *pendingSend
	sendSeq   uint64
	sendState SendState
	stopFlash func()

	closed bool
}

// NewController places the hidden window at its rest position and pre-fills
// the token field from the store.
func NewController(app AppContext, window Window, dispatcher Dispatcher, store TokenStore) *Controller {
	c := &Controller{
		app:        app,
		window:     window,
		dispatcher: dispatcher,
		store:      store,
		log:        app.Logger.WithComponent("panel"),
		state:      Hidden,
	}

	c.geometry = Offscreen(c.anchor(), app.Screen.Size())
	window.SetGeometry(c.geometry)

	token, ok, err := store.Load()
	if err != nil {
		c.log.Warn("failed to load saved token",
			slog.String("error", err.Error()))
		token, ok = "", false
	}
	window.SetFields(token, ok)
	window.SetSendState(SendIdle)

	return c
}

// State returns the current WindowState.
func (c *Controller) State() WindowState {
	return c.state
}

// Geometry returns the window's current rect.
func (c *Controller) Geometry() Rect {
	return c.geometry
}

// SendState returns what the send affordance currently shows.
func (c *Controller) SendState() SendState {
	return c.sendState
}

// Toggle shows a hidden panel and hides a shown one. A toggle during an
// animation reverses it from wherever the window currently is.
func (c *Controller) Toggle() {
	if c.closed {
		return
	}

	from := c.state
	switch c.state {
	case Hidden:
		anchor := c.anchor()
		c.geometry = Offscreen(anchor, c.app.Screen.Size())
		c.window.Show()
		c.slideIn(anchor)
	case AnimatingIn, Visible:
		c.cancelPendingSend()
		c.slideOut()
	case AnimatingOut:
		c.slideIn(c.anchor())
	}

	c.log.Debug("panel toggled",
		slog.String("from", from.String()),
		slog.String("to", c.state.String()),
		slog.String("geometry", c.geometry.String()))
}

func (c *Controller) slideIn(anchor Rect) {
	c.animate(c.geometry, anchor, func() {
		c.state = Visible
	})
	if c.state != Visible {
		c.state = AnimatingIn
	}
}

func (c *Controller) slideOut() {
	c.animate(c.geometry, Offscreen(c.anchor(), c.app.Screen.Size()), func() {
		c.window.Hide()
		c.state = Hidden
	})
	if c.state != Hidden {
		c.state = AnimatingOut
	}
}

// animate replaces any running animation. done runs only if this animation
// completes without being cancelled.
func (c *Controller) animate(from, to Rect, done func()) {
	if c.anim != nil {
		c.anim.cancel()
	}

	var a *animation
	a = newAnimation(c.app.Scheduler, from, to, c.app.AnimationDuration, c.app.FrameInterval,
		func(r Rect) {
			c.geometry = r
			c.window.SetGeometry(r)
		},
		func() {
			if c.anim == a {
				c.anim = nil
			}
			done()
		},
	)
	c.anim = a
	a.begin()
}

// Send validates the input, stores or forgets the token, and dispatches off
// the scheduler. The outcome arrives later as a flash of the send affordance
// and, on failure, an error dialog.
func (c *Controller) Send(in SendInput) error {
	if c.closed || c.state != Visible {
		return ErrPanelNotVisible
	}

	token := strings.TrimSpace(in.Token)
	body := strings.TrimSpace(in.Body)
	if err := notifications.Validate(notifications.NotificationRequest{DeviceToken: token, Body: body}); err != nil {
		c.window.ShowWarning(InputErrorTitle, InputErrorMessage)
		return err
	}

	if c.pending != nil {
		return ErrSendInProgress
	}

	if in.Remember {
		if err := c.store.Persist(token); err != nil {
			c.log.Error("failed to save token",
				slog.String("error", err.Error()))
		}
	} else if err := c.store.Erase(); err != nil {
		c.log.Error("failed to erase saved token",
			slog.String("error", err.Error()))
	}

	c.sendSeq++
	ctx, cancel := context.WithCancel(context.Background())
	p := &pendingSend{id: c.sendSeq, cancel: cancel}
	c.pending = p

	c.clearFlash()
	c.setSendState(SendPending)

	go func() {
		result, err := c.dispatcher.Send(ctx, token, body)
		c.app.Scheduler.Post(func() {
			c.finishSend(p, result, err)
		})
	}()

	return nil
}

func (c *Controller) finishSend(p *pendingSend, result notifications.DeliveryResult, err error) {
	p.cancel()

	if c.pending != p {
		c.log.Debug("discarding result of cancelled send",
			slog.Bool("success", result.Success))
		return
	}
	c.pending = nil

	if err == nil && result.Success {
		c.flash(SendSucceeded)
		return
	}

	c.flash(SendFailed)

	message := result.PayloadText()
	if message == "" && err != nil {
		message = err.Error()
	}
	c.window.ShowError(SendErrorTitle, SendErrorPrefix+message)
}

func (c *Controller) flash(s SendState) {
	c.clearFlash()
	c.setSendState(s)
	c.stopFlash = c.app.Scheduler.After(c.app.FlashDuration, func() {
		c.stopFlash = nil
		c.setSendState(SendIdle)
	})
}

func (c *Controller) clearFlash() {
	if c.stopFlash != nil {
		c.stopFlash()
		c.stopFlash = nil
	}
}

func (c *Controller) setSendState(s SendState) {
	c.sendState = s
	c.window.SetSendState(s)
}

func (c *Controller) cancelPendingSend() {
	if c.pending == nil {
		return
	}

	c.log.Info("cancelling in-flight send",
		slog.Uint64("send_id", c.pending.id))
	c.pending.cancel()
	c.pending = nil
	c.clearFlash()
	c.setSendState(SendIdle)
}

// Close stops the animation, the flash timer and any in-flight send. The
// controller ignores further calls.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true

	if c.anim != nil {
		c.anim.cancel()
		c.anim = nil
	}
	c.clearFlash()
	if c.pending != nil {
		c.pending.cancel()
		c.pending = nil
	}
}

func (c *Controller) anchor() Rect {
	return Anchor(c.app.Screen.TrayIcon(), c.app.PanelSize, c.app.Screen.Size())
}
