package panel

import "fmt"

// Size is a width and height in screen pixels.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Rect is a screen-space rectangle with its origin at the top-left corner.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.W, r.H, r.X, r.Y)
}

// Anchor returns the visible position of a panel of size p: horizontally
// centred on the tray icon and resting on top of the tray. The panel is
// pulled left if it would run past the right edge of the screen.
func Anchor(tray Rect, p Size, screen Size) Rect {
	x := tray.X + tray.W/2 - p.W/2
	if x+p.W > screen.W {
		x = screen.W - p.W
	}
	y := screen.H - p.H - tray.H

	return Rect{X: x, Y: y, W: p.W, H: p.H}
}

// Offscreen returns the hidden position for an anchor: same x, top edge on
// the bottom of the screen.
func Offscreen(anchor Rect, screen Size) Rect {
	return Rect{X: anchor.X, Y: screen.H, W: anchor.W, H: anchor.H}
}

// lerp interpolates between two rects; t is clamped to [0, 1].
func lerp(from, to Rect, t float64) Rect {
	switch {
	case t <= 0:
		return from
	case t >= 1:
		return to
	}

	mix := func(a, b int) int {
		return a + int(float64(b-a)*t+0.5*sign(b-a))
	}
	return Rect{
		X: mix(from.X, to.X),
		Y: mix(from.Y, to.Y),
		W: mix(from.W, to.W),
		H: mix(from.H, to.H),
	}
}

func sign(v int) float64 {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

// StaticScreen is a Screen with fixed, configured dimensions.
type StaticScreen struct {
	ScreenSize Size
	Tray       Rect
}

func (s StaticScreen) Size() Size     { return s.ScreenSize }
func (s StaticScreen) TrayIcon() Rect { return s.Tray }
