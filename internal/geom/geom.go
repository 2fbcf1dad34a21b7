// Package geom maps pointer positions between screen space and canvas space.
package geom

import "image"

// Placement is the background image's position and size in screen space.
// Width and Height are set when an image is loaded and only change on reload.
type Placement struct {
	OffsetX, OffsetY int
	Width, Height    int
}

// NewPlacement places an image of the given native size at the origin.
func NewPlacement(width, height int) Placement {
	return Placement{Width: width, Height: height}
}

// Offset returns the placement offset as a point.
func (p Placement) Offset() image.Point { return image.Pt(p.OffsetX, p.OffsetY) }

// Rect returns the screen-space rectangle the image occupies.
func (p Placement) Rect() image.Rectangle {
	return image.Rect(p.OffsetX, p.OffsetY, p.OffsetX+p.Width, p.OffsetY+p.Height)
}

// Nudge shifts the placement by (dx, dy).
func (p *Placement) Nudge(dx, dy int) {
	p.OffsetX += dx
	p.OffsetY += dy
}

// ScreenToCanvas subtracts the placement offset. Results are not clamped;
// negative or out-of-range values are legitimate and clipped by the writer.
func ScreenToCanvas(screen image.Point, p Placement) image.Point {
	return image.Pt(screen.X-p.OffsetX, screen.Y-p.OffsetY)
}

// CanvasToScreen is the exact inverse of ScreenToCanvas.
func CanvasToScreen(canvas image.Point, p Placement) image.Point {
	return image.Pt(canvas.X+p.OffsetX, canvas.Y+p.OffsetY)
}

// Pan tracks a drag-to-move gesture on the background. The image follows the
// cursor regardless of where inside it the drag began.
type Pan struct {
	grab   image.Point
	active bool
}

// Begin records the vector from the placement offset to the pointer.
func (g *Pan) Begin(pointer image.Point, p Placement) {
	g.grab = pointer.Sub(p.Offset())
	g.active = true
}

// Drag moves the placement so the grab vector is preserved. It is a no-op
// when no pan is in progress.
func (g *Pan) Drag(pointer image.Point, p *Placement) {
	if !g.active {
		return
	}
	off := pointer.Sub(g.grab)
	p.OffsetX, p.OffsetY = off.X, off.Y
}

// End finishes the gesture.
func (g *Pan) End() { g.active = false }

// Active reports whether a pan gesture is in progress.
func (g *Pan) Active() bool { return g.active }
