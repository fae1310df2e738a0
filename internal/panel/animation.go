package panel

import "time"

// DefaultFrameInterval is roughly 60 frames per second.
const DefaultFrameInterval = 16 * time.Millisecond

// animation moves the window geometry from one rect to another over a fixed
// duration. Frames are driven by the scheduler; cancel stops the pending frame
// and guarantees that neither another frame nor the completion runs.
type animation struct {
	sched    Scheduler
	from, to Rect
	start    time.Time
	duration time.Duration
	interval time.Duration

	apply  func(Rect)
	finish func()

	stopFrame func()
	cancelled bool
}

func newAnimation(sched Scheduler, from, to Rect, duration, interval time.Duration, apply func(Rect), finish func()) *animation {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &animation{
		sched:    sched,
		from:     from,
		to:       to,
		duration: duration,
		interval: interval,
		apply:    apply,
		finish:   finish,
	}
}

func (a *animation) begin() {
	a.start = a.sched.Now()
	a.apply(a.from)
	if a.duration <= 0 {
		a.complete()
		return
	}
	a.scheduleFrame()
}

func (a *animation) scheduleFrame() {
	a.stopFrame = a.sched.After(a.interval, a.frame)
}

func (a *animation) frame() {
	if a.cancelled {
		return
	}

	elapsed := a.sched.Now().Sub(a.start)
	if elapsed >= a.duration {
		a.complete()
		return
	}

	a.apply(lerp(a.from, a.to, float64(elapsed)/float64(a.duration)))
	a.scheduleFrame()
}

func (a *animation) complete() {
	a.stopFrame = nil
	a.apply(a.to)
	a.finish()
}

func (a *animation) cancel() {
	a.cancelled = true
	if a.stopFrame != nil {
		a.stopFrame()
		a.stopFrame = nil
	}
}
