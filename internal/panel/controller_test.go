package panel

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/eternisai/push-panel/internal/errors"
	"github.com/eternisai/push-panel/internal/logger"
	"github.com/eternisai/push-panel/internal/notifications"
	"github.com/eternisai/push-panel/internal/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	animationDuration = 300 * time.Millisecond
	flashDuration     = 2 * time.Second
	// settle is long enough for any animation to finish.
	settle = animationDuration + 5*DefaultFrameInterval
)

var (
	screen1080 = fakeScreen{
		size: Size{W: 1920, H: 1080},
		tray: Rect{X: 1800, Y: 1040, W: 24, H: 40},
	}
	panelSize  = Size{W: 400, H: 270}
	restRect   = Rect{X: 1520, Y: 1080, W: 400, H: 270}
	anchorRect = Rect{X: 1520, Y: 770, W: 400, H: 270}
)

type harness struct {
	sched  *fakeScheduler
	window *fakeWindow
	disp   *mockDispatcher
	store  TokenStore
	c      *Controller
}

func newHarness(t *testing.T, store TokenStore, disp *mockDispatcher) *harness {
	t.Helper()

	if store == nil {
		store = &memStore{}
	}
	if disp == nil {
		disp = &mockDispatcher{SendFunc: func(ctx context.Context, token, body string) (notifications.DeliveryResult, error) {
			return notifications.DeliveryResult{Success: true, StatusCode: 200, Payload: map[string]any{"name": "m"}}, nil
		}}
	}

	h := &harness{
		sched:  newFakeScheduler(),
		window: &fakeWindow{},
		disp:   disp,
		store:  store,
	}
	h.c = NewController(AppContext{
		Scheduler:         h.sched,
		Logger:            logger.NewDiscard(),
		Screen:            screen1080,
		PanelSize:         panelSize,
		AnimationDuration: animationDuration,
		FlashDuration:     flashDuration,
	}, h.window, disp, store)
	t.Cleanup(h.c.Close)

	return h
}

func (h *harness) show(t *testing.T) {
	t.Helper()
	h.c.Toggle()
	h.sched.Advance(settle)
	require.Equal(t, Visible, h.c.State())
}

func TestAnchor(t *testing.T) {
	tests := []struct {
		name   string
		tray   Rect
		screen Size
		want   Rect
	}{
		{
			name:   "clamped to right edge",
			tray:   Rect{X: 1800, Y: 1040, W: 24, H: 40},
			screen: Size{W: 1920, H: 1080},
			want:   Rect{X: 1520, Y: 770, W: 400, H: 270},
		},
		{
			name:   "centred on icon",
			tray:   Rect{X: 800, Y: 1040, W: 24, H: 40},
			screen: Size{W: 1920, H: 1080},
			want:   Rect{X: 612, Y: 770, W: 400, H: 270},
		},
		{
			name:   "exactly at edge is not moved",
			tray:   Rect{X: 1708, Y: 1040, W: 24, H: 40},
			screen: Size{W: 1920, H: 1080},
			want:   Rect{X: 1520, Y: 770, W: 400, H: 270},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Anchor(tt.tray, panelSize, tt.screen)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got.X+got.W, tt.screen.W)
		})
	}
}

func TestNewControllerRestsOffscreen(t *testing.T) {
	h := newHarness(t, nil, nil)

	assert.Equal(t, Hidden, h.c.State())
	assert.Equal(t, restRect, h.c.Geometry())
	assert.Equal(t, restRect, h.window.geometry)
	assert.False(t, h.window.visible)
}

func TestNewControllerPrefillsSavedToken(t *testing.T) {
	t.Run("saved", func(t *testing.T) {
		h := newHarness(t, &memStore{token: "T1", present: true}, nil)
		assert.Equal(t, "T1", h.window.token)
		assert.True(t, h.window.remember)
	})

	t.Run("nothing saved", func(t *testing.T) {
		h := newHarness(t, &memStore{}, nil)
		assert.Empty(t, h.window.token)
		assert.False(t, h.window.remember)
	})
}

func TestToggleShowsPanel(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.c.Toggle()
	assert.Equal(t, AnimatingIn, h.c.State())
	assert.True(t, h.window.visible)
	assert.Equal(t, restRect, h.c.Geometry(), "animation starts below the screen")

	h.sched.Advance(animationDuration / 2)
	mid := h.c.Geometry()
	assert.Equal(t, AnimatingIn, h.c.State())
	assert.Equal(t, anchorRect.X, mid.X)
	assert.Less(t, mid.Y, restRect.Y)
	assert.Greater(t, mid.Y, anchorRect.Y)

	h.sched.Advance(settle)
	assert.Equal(t, Visible, h.c.State())
	assert.Equal(t, anchorRect, h.c.Geometry())
	assert.Zero(t, h.sched.activeTimers())

	// Geometry only ever moves up while sliding in.
	for i := 1; i < len(h.window.geometries); i++ {
		assert.LessOrEqual(t, h.window.geometries[i].Y, h.window.geometries[i-1].Y)
	}
}

func TestToggleHidesPanel(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.show(t)

	h.c.Toggle()
	assert.Equal(t, AnimatingOut, h.c.State())
	assert.True(t, h.window.visible, "still visible while sliding out")

	h.sched.Advance(settle)
	assert.Equal(t, Hidden, h.c.State())
	assert.Equal(t, restRect, h.c.Geometry())
	assert.False(t, h.window.visible)
	assert.Equal(t, 1, h.window.hides)
}

func TestDoubleToggleReturnsToHidden(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.c.Toggle()
	h.c.Toggle()
	assert.Equal(t, AnimatingOut, h.c.State())

	h.sched.Advance(settle)
	assert.Equal(t, Hidden, h.c.State())
	assert.Equal(t, restRect, h.c.Geometry())
	assert.False(t, h.window.visible)

	// Nothing from the first animation fires later.
	h.sched.Advance(time.Second)
	assert.Equal(t, Hidden, h.c.State())
	assert.Zero(t, h.sched.activeTimers())
}

func TestToggleReversesMidAnimation(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.c.Toggle()
	h.sched.Advance(animationDuration / 2)
	mid := h.c.Geometry()

	h.c.Toggle()
	assert.Equal(t, AnimatingOut, h.c.State())
	assert.Equal(t, mid, h.c.Geometry(), "reverse starts from the current geometry")

	// Past the point where the cancelled slide-in would have finished.
	h.sched.Advance(animationDuration/2 + 2*DefaultFrameInterval)
	assert.Equal(t, AnimatingOut, h.c.State(), "stale completion of the slide-in must not fire")

	h.c.Toggle()
	assert.Equal(t, AnimatingIn, h.c.State())

	h.sched.Advance(settle)
	assert.Equal(t, Visible, h.c.State())
	assert.Equal(t, anchorRect, h.c.Geometry())
	assert.Equal(t, 0, h.window.hides)
}

func TestSendRejectsEmptyFields(t *testing.T) {
	store := &memStore{token: "OLD", present: true}
	h := newHarness(t, store, nil)
	h.show(t)

	err := h.c.Send(SendInput{Token: "", Body: "x", Remember: true})

	var validationErr *apperrors.InputValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []dialog{{"Input Error", "All fields must be filled out."}}, h.window.warnings)
	assert.Zero(t, h.disp.Calls())
	assert.Equal(t, "OLD", store.token, "store untouched")
	assert.Equal(t, Visible, h.c.State())
}

func TestSendRequiresVisiblePanel(t *testing.T) {
	h := newHarness(t, nil, nil)

	assert.ErrorIs(t, h.c.Send(SendInput{Token: "T1", Body: "hi"}), ErrPanelNotVisible)

	h.c.Toggle()
	assert.ErrorIs(t, h.c.Send(SendInput{Token: "T1", Body: "hi"}), ErrPanelNotVisible)
	assert.Zero(t, h.disp.Calls())
}

func TestSendSuccessPersistsAndFlashes(t *testing.T) {
	store := tokenstore.New(filepath.Join(t.TempDir(), "data", "saved_token.txt"))
	h := newHarness(t, store, nil)
	h.show(t)

	require.NoError(t, h.c.Send(SendInput{Token: " T1 ", Body: "hello", Remember: true}))
	assert.Equal(t, SendPending, h.c.SendState())

	saved, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "T1", saved)

	h.sched.AwaitPosted(t)
	assert.Equal(t, SendSucceeded, h.c.SendState())
	assert.Equal(t, "#28A745", h.window.lastSendState().Color())
	assert.Empty(t, h.window.errors)

	h.sched.Advance(flashDuration - time.Millisecond)
	assert.Equal(t, SendSucceeded, h.c.SendState())
	h.sched.Advance(time.Millisecond)
	assert.Equal(t, SendIdle, h.c.SendState())
}

func TestSendFailureShowsError(t *testing.T) {
	store := tokenstore.New(filepath.Join(t.TempDir(), "saved_token.txt"))
	require.NoError(t, store.Persist("T1"))

	disp := &mockDispatcher{SendFunc: func(ctx context.Context, token, body string) (notifications.DeliveryResult, error) {
		err := &apperrors.DeliveryError{StatusCode: 404, Body: "Not Found"}
		return notifications.DeliveryResult{StatusCode: 404, Payload: "Not Found", Err: err}, err
	}}
	h := newHarness(t, store, disp)
	require.True(t, h.window.remember)
	h.show(t)

	require.NoError(t, h.c.Send(SendInput{Token: "T1", Body: "hello", Remember: false}))

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok, "token file erased before dispatch")

	h.sched.AwaitPosted(t)
	assert.Equal(t, SendFailed, h.c.SendState())
	assert.Equal(t, "#DC3545", h.window.lastSendState().Color())
	assert.Equal(t, []dialog{{"Error", "Failed to send notification.\nNot Found"}}, h.window.errors)

	h.sched.Advance(flashDuration)
	assert.Equal(t, SendIdle, h.c.SendState())
}

func TestSendFailureKeepsRememberedToken(t *testing.T) {
	store := tokenstore.New(filepath.Join(t.TempDir(), "saved_token.txt"))

	disp := &mockDispatcher{SendFunc: func(ctx context.Context, token, body string) (notifications.DeliveryResult, error) {
		err := &apperrors.DeliveryError{StatusCode: 404, Body: "Not Found"}
		return notifications.DeliveryResult{StatusCode: 404, Payload: "Not Found", Err: err}, err
	}}
	h := newHarness(t, store, disp)
	h.show(t)

	require.NoError(t, h.c.Send(SendInput{Token: "T1", Body: "B", Remember: true}))

	h.sched.AwaitPosted(t)
	assert.Equal(t, SendFailed, h.c.SendState())
	assert.Equal(t, "#DC3545", h.window.lastSendState().Color())
	assert.Equal(t, []dialog{{"Error", "Failed to send notification.\nNot Found"}}, h.window.errors)

	saved, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok, "failed send does not erase a remembered token")
	assert.Equal(t, "T1", saved)

	h.sched.Advance(flashDuration)
	assert.Equal(t, SendIdle, h.c.SendState())
}

func TestSendWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	disp := &mockDispatcher{SendFunc: func(ctx context.Context, token, body string) (notifications.DeliveryResult, error) {
		<-release
		return notifications.DeliveryResult{Success: true, StatusCode: 200}, nil
	}}
	h := newHarness(t, nil, disp)
	h.show(t)

	require.NoError(t, h.c.Send(SendInput{Token: "T1", Body: "one"}))
	assert.ErrorIs(t, h.c.Send(SendInput{Token: "T1", Body: "two"}), ErrSendInProgress)

	close(release)
	h.sched.AwaitPosted(t)
	assert.Equal(t, SendSucceeded, h.c.SendState())

	require.NoError(t, h.c.Send(SendInput{Token: "T1", Body: "three"}))
	h.sched.AwaitPosted(t)
	assert.Equal(t, 2, h.disp.Calls())
}

func TestHidingCancelsInFlightSend(t *testing.T) {
	started := make(chan struct{})
	disp := &mockDispatcher{SendFunc: func(ctx context.Context, token, body string) (notifications.DeliveryResult, error) {
		close(started)
		<-ctx.Done()
		err := &apperrors.DeliveryError{Err: ctx.Err()}
		return notifications.DeliveryResult{Payload: err.Error(), Err: err}, err
	}}
	h := newHarness(t, nil, disp)
	h.show(t)

	require.NoError(t, h.c.Send(SendInput{Token: "T1", Body: "hello"}))
	<-started

	h.c.Toggle()
	assert.Equal(t, AnimatingOut, h.c.State())
	assert.Equal(t, SendIdle, h.c.SendState())

	h.sched.AwaitPosted(t)
	assert.Empty(t, h.window.errors, "late result is discarded")
	assert.Equal(t, SendIdle, h.c.SendState())

	h.sched.Advance(settle)
	assert.Equal(t, Hidden, h.c.State())
}

func TestCloseStopsEverything(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.c.Toggle()
	h.sched.Advance(animationDuration / 3)
	g := h.c.Geometry()

	h.c.Close()
	h.sched.Advance(settle)

	assert.Equal(t, g, h.c.Geometry())
	assert.Zero(t, h.sched.activeTimers())

	h.c.Toggle()
	assert.Equal(t, AnimatingIn, h.c.State(), "toggle after close is ignored")
}

func TestZeroDurationAnimation(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.c.app.AnimationDuration = 0

	h.c.Toggle()
	assert.Equal(t, Visible, h.c.State())
	assert.Equal(t, anchorRect, h.c.Geometry())

	h.c.Toggle()
	assert.Equal(t, Hidden, h.c.State())
	assert.False(t, h.window.visible)
}
