package panel

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/eternisai/push-panel/internal/notifications"
	"github.com/stretchr/testify/require"
)

// fakeScheduler is a manual clock plus a task queue. Timers fire only from
// Advance, in deadline order, on the test goroutine.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
	posted []func()
}

type fakeTimer struct {
	at      time.Time
	seq     int
	fn      func()
	stopped bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *fakeScheduler) Post(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posted = append(s.posted, fn)
	return true
}

func (s *fakeScheduler) After(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &fakeTimer{at: s.now.Add(d), seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		t.stopped = true
	}
}

func (s *fakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves the clock forward, firing due timers and then draining posted
// tasks.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		live := s.timers[:0]
		for _, t := range s.timers {
			if !t.stopped {
				live = append(live, t)
			}
		}
		s.timers = live
		sort.Slice(s.timers, func(i, j int) bool {
			if s.timers[i].at.Equal(s.timers[j].at) {
				return s.timers[i].seq < s.timers[j].seq
			}
			return s.timers[i].at.Before(s.timers[j].at)
		})
		if len(s.timers) == 0 || s.timers[0].at.After(target) {
			s.now = target
			s.mu.Unlock()
			break
		}
		next := s.timers[0]
		s.timers = s.timers[1:]
		s.now = next.at
		s.mu.Unlock()

		next.fn()
	}

	s.RunPosted()
}

// RunPosted runs queued tasks, including ones they queue.
func (s *fakeScheduler) RunPosted() {
	for {
		s.mu.Lock()
		if len(s.posted) == 0 {
			s.mu.Unlock()
			return
		}
		fn := s.posted[0]
		s.posted = s.posted[1:]
		s.mu.Unlock()

		fn()
	}
}

// AwaitPosted blocks until a background goroutine has posted, then runs the
// queue.
func (s *fakeScheduler) AwaitPosted(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.posted) > 0
	}, time.Second, time.Millisecond)
	s.RunPosted()
}

func (s *fakeScheduler) activeTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type dialog struct {
	title, message string
}

type fakeWindow struct {
	visible    bool
	geometry   Rect
	geometries []Rect
	shows      int
	hides      int

	token    string
	remember bool

	sendStates []SendState
	warnings   []dialog
	errors     []dialog
}

func (w *fakeWindow) Show() { w.visible = true; w.shows++ }
func (w *fakeWindow) Hide() { w.visible = false; w.hides++ }

func (w *fakeWindow) SetGeometry(r Rect) {
	w.geometry = r
	w.geometries = append(w.geometries, r)
}

func (w *fakeWindow) SetFields(token string, remember bool) {
	w.token = token
	w.remember = remember
}

func (w *fakeWindow) SetSendState(s SendState) { w.sendStates = append(w.sendStates, s) }

func (w *fakeWindow) ShowWarning(title, message string) {
	w.warnings = append(w.warnings, dialog{title, message})
}

func (w *fakeWindow) ShowError(title, message string) {
	w.errors = append(w.errors, dialog{title, message})
}

func (w *fakeWindow) lastSendState() SendState {
	if len(w.sendStates) == 0 {
		return SendIdle
	}
	return w.sendStates[len(w.sendStates)-1]
}

type fakeScreen struct {
	size Size
	tray Rect
}

func (s fakeScreen) Size() Size     { return s.size }
func (s fakeScreen) TrayIcon() Rect { return s.tray }

// mockDispatcher is a func-field fake for Dispatcher.
type mockDispatcher struct {
	mu       sync.Mutex
	calls    int
	SendFunc func(ctx context.Context, token, body string) (notifications.DeliveryResult, error)
}

func (m *mockDispatcher) Send(ctx context.Context, token, body string) (notifications.DeliveryResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.SendFunc(ctx, token, body)
}

func (m *mockDispatcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type memStore struct {
	token   string
	present bool
	loadErr error
}

func (s *memStore) Persist(token string) error {
	s.token, s.present = token, true
	return nil
}

func (s *memStore) Erase() error {
	s.token, s.present = "", false
	return nil
}

func (s *memStore) Load() (string, bool, error) {
	return s.token, s.present, s.loadErr
}
