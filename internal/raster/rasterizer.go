package raster

import (
	"image"
	"image/color"

	"github.com/golang/glog"

	"github.com/example/easel/internal/pixbuf"
	"github.com/example/easel/internal/tools"
)

// Phase is where a pointer button is in its press-hold-release cycle on a
// given frame.
type Phase int

const (
	// Press is the first frame the button is down.
	Press Phase = iota
	// Hold is every later frame the button stays down.
	Hold
	// Release is the frame the button comes up.
	Release
)

func (p Phase) String() string {
	switch p {
	case Press:
		return "press"
	case Hold:
		return "hold"
	case Release:
		return "release"
	}
	return "unknown"
}

// Stroke is the per-gesture pointer history. It is reset when a gesture
// starts and cleared once a shape commits.
type Stroke struct {
	Prev, Cur image.Point
	Anchor    image.Point
	Release   image.Point
	active    bool
}

// Reset starts a new gesture at p.
func (s *Stroke) Reset(p image.Point) {
	*s = Stroke{Prev: p, Cur: p, Anchor: p, Release: p, active: true}
}

// Move advances the pointer, keeping the previous frame's position.
func (s *Stroke) Move(p image.Point) {
	s.Prev, s.Cur = s.Cur, p
}

// Finish records the release point.
func (s *Stroke) Finish(p image.Point) {
	s.Move(p)
	s.Release = p
}

// Clear discards the gesture.
func (s *Stroke) Clear() { *s = Stroke{} }

// Active reports whether a gesture is in progress.
func (s *Stroke) Active() bool { return s.active }

// DefaultEraser is the color the eraser paints with: opaque white, the
// color of a fresh canvas.
var DefaultEraser = color.RGBA{255, 255, 255, 255}

// Rasterizer turns tool gestures into pixels.
type Rasterizer struct {
	Eraser color.RGBA
}

// New returns a rasterizer whose eraser paints with eraser.
func New(eraser color.RGBA) *Rasterizer {
	return &Rasterizer{Eraser: eraser}
}

// Apply advances the gesture in s to pointer p (canvas space) and paints
// whatever the tool produces for that phase. Continuous and stamp tools paint
// on press and every held frame; two-phase shapes paint once, on release.
func (r *Rasterizer) Apply(dst *pixbuf.Buffer, st tools.State, s *Stroke, phase Phase, p image.Point) {
	switch phase {
	case Press:
		s.Reset(p)
	case Hold:
		if !s.Active() {
			s.Reset(p)
		} else {
			s.Move(p)
		}
	case Release:
		if !s.Active() {
			return
		}
		s.Finish(p)
		switch {
		case st.Kind.TwoPhase():
			r.Commit(dst, st, s.Anchor, s.Release)
		case st.Kind == tools.Brush && s.Prev != s.Cur:
			// Motion between the last held frame and the button-up.
			Line(dst, s.Prev, s.Cur, st.Size, st.Color)
		}
		s.Clear()
		return
	}
	switch {
	case st.Kind.TwoPhase():
		return
	case st.Kind == tools.Brush:
		Line(dst, s.Prev, s.Cur, st.Size, st.Color)
	default:
		r.Stamp(dst, st, s.Cur)
	}
}

// Stamp paints a single-point tool at p.
func (r *Rasterizer) Stamp(dst *pixbuf.Buffer, st tools.State, p image.Point) {
	switch st.Kind {
	case tools.Eraser:
		r.Erase(dst, st.Size, p)
	case tools.Circle:
		CircleOutline(dst, p, st.Size, st.Color)
	case tools.CircleFill:
		Disc(dst, p, st.Size, st.Color)
	case tools.Square:
		SquareOutline(dst, p, st.Size, st.Color)
	case tools.SquareFill:
		SquareFill(dst, p, st.Size, st.Color)
	case tools.Brush:
		stamp(dst, p, st.Size, st.Color)
	}
}

// Erase stamps a disc of the eraser color regardless of the tool color.
func (r *Rasterizer) Erase(dst *pixbuf.Buffer, size int, p image.Point) {
	Disc(dst, p, size, r.Eraser)
}

// Commit paints a two-phase shape spanning anchor to release.
func (r *Rasterizer) Commit(dst *pixbuf.Buffer, st tools.State, anchor, release image.Point) {
	if glog.V(2) {
		glog.Infof("commit %v %v -> %v size %d", st.Kind, anchor, release, st.Size)
	}
	switch st.Kind {
	case tools.Line:
		Line(dst, anchor, release, st.Size, st.Color)
	case tools.Rectangle:
		RectOutline(dst, DragRect(anchor, release), st.Size, st.Color)
	case tools.RectangleFill:
		RectFill(dst, DragRect(anchor, release), st.Color)
	case tools.Ellipse:
		c, rx, ry := EllipseBounds(anchor, release)
		EllipseOutline(dst, c, rx, ry, st.Size, st.Color)
	case tools.EllipseFill:
		c, rx, ry := EllipseBounds(anchor, release)
		EllipseFill(dst, c, rx, ry, st.Color)
	}
}

// Preview draws the pending two-phase shape of s into dst, shifted by
// offset. It is used to show the shape on the composite before it commits.
func (r *Rasterizer) Preview(dst *pixbuf.Buffer, st tools.State, s *Stroke, offset image.Point) {
	if !s.Active() || !st.Kind.TwoPhase() {
		return
	}
	r.Commit(dst, st, s.Anchor.Add(offset), s.Cur.Add(offset))
}
