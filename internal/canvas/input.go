package canvas

import (
	"image"

	"github.com/example/easel/internal/raster"
)

// Button indexes the pointer buttons the editor reacts to.
type Button int

const (
	Left Button = iota
	Right
	Middle
	numButtons
)

// ButtonState is a button's state for one frame.
type ButtonState int

const (
	// Idle means the button is up and was up last frame.
	Idle ButtonState = iota
	// Down is the first frame the button is held.
	Down
	// Repeat is every later frame the button stays held.
	Repeat
	// Up is the frame the button is let go.
	Up
)

func (b ButtonState) String() string {
	switch b {
	case Idle:
		return "idle"
	case Down:
		return "down"
	case Repeat:
		return "repeat"
	case Up:
		return "up"
	}
	return "unknown"
}

// Held reports whether the button is pressed this frame.
func (b ButtonState) Held() bool { return b == Down || b == Repeat }

func (b ButtonState) phase() (raster.Phase, bool) {
	switch b {
	case Down:
		return raster.Press, true
	case Repeat:
		return raster.Hold, true
	case Up:
		return raster.Release, true
	}
	return 0, false
}

// Input is the pointer and keyboard state sampled for one frame. Pointer is
// in screen space.
type Input struct {
	Pointer image.Point
	Buttons [numButtons]ButtonState
	// Nudge moves the background by a fixed amount, as arrow keys do.
	Nudge image.Point
}

// Tracker turns raw press and release events into per-frame button states.
type Tracker struct {
	pointer image.Point
	down    [numButtons]bool
	pressed [numButtons]bool
	edge    [numButtons]bool
	// repress marks a press that arrived while the Up of an earlier hold
	// was still waiting to be sampled.
	repress [numButtons]bool
	nudge   image.Point
}

// Move records the pointer position.
func (t *Tracker) Move(p image.Point) { t.pointer = p }

// Press records a button going down.
func (t *Tracker) Press(b Button) {
	if b < 0 || b >= numButtons {
		return
	}
	if !t.down[b] {
		if t.edge[b] && !t.pressed[b] {
			t.repress[b] = true
		} else {
			t.pressed[b] = true
		}
	}
	t.down[b] = true
}

// Release records a button coming up.
func (t *Tracker) Release(b Button) {
	if b < 0 || b >= numButtons {
		return
	}
	if t.down[b] || t.pressed[b] {
		t.edge[b] = true
	}
	t.down[b] = false
}

// Nudge queues a keyboard pan for the next frame.
func (t *Tracker) Nudge(dx, dy int) { t.nudge = t.nudge.Add(image.Pt(dx, dy)) }

// Sample produces the Input for the current frame and advances the edges.
// A press and release that both land between two frames still yield a
// Down frame; the Up follows on the next sample. A release and press that
// both land between two frames yield the Up first and the Down next.
func (t *Tracker) Sample() Input {
	in := Input{Pointer: t.pointer, Nudge: t.nudge}
	t.nudge = image.Point{}
	for b := range in.Buttons {
		switch {
		case t.repress[b]:
			in.Buttons[b] = Up
			t.repress[b] = false
			t.edge[b] = false
			t.pressed[b] = true
		case t.pressed[b]:
			in.Buttons[b] = Down
			t.pressed[b] = false
			if !t.down[b] {
				// Released in the same interval: deliver Up next frame.
				t.edge[b] = true
				continue
			}
			t.edge[b] = false
		case t.down[b]:
			in.Buttons[b] = Repeat
		case t.edge[b]:
			in.Buttons[b] = Up
			t.edge[b] = false
		}
	}
	return in
}
