// Package raster paints tool shapes into pixel buffers. Every primitive works
// in canvas space and drops writes that fall outside the target.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/example/easel/internal/pixbuf"
)

// stamp fills a thick x thick square whose top-left is p - thick/2.
func stamp(dst *pixbuf.Buffer, p image.Point, thick int, col color.RGBA) {
	if thick <= 1 {
		dst.Set(p.X, p.Y, col)
		return
	}
	h := thick / 2
	dst.FillRect(image.Rect(p.X-h, p.Y-h, p.X-h+thick, p.Y-h+thick), col)
}

// Line draws a Bresenham segment from p0 to p1 inclusive, stamping a square
// of side thick at every step.
func Line(dst *pixbuf.Buffer, p0, p1 image.Point, thick int, col color.RGBA) {
	x0, y0, x1, y1 := p0.X, p0.Y, p1.X, p1.Y
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		stamp(dst, image.Pt(x0, y0), thick, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// CircleOutline draws a one pixel midpoint circle. Radius 0 paints the centre.
func CircleOutline(dst *pixbuf.Buffer, c image.Point, r int, col color.RGBA) {
	if r <= 0 {
		dst.Set(c.X, c.Y, col)
		return
	}
	x := r
	y := 0
	err := 1 - r
	for x >= y {
		pts := [][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}}
		for _, p := range pts {
			dst.Set(c.X+p[0], c.Y+p[1], col)
		}
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2 * (y - x + 1)
		}
	}
}

// Disc fills every pixel with dx²+dy² <= r².
func Disc(dst *pixbuf.Buffer, c image.Point, r int, col color.RGBA) {
	if r < 0 {
		return
	}
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				dst.Set(c.X+dx, c.Y+dy, col)
			}
		}
	}
}

// SquareRect is the size x size square centred on p, top-left at p - size/2.
func SquareRect(p image.Point, size int) image.Rectangle {
	h := size / 2
	return image.Rect(p.X-h, p.Y-h, p.X-h+size, p.Y-h+size)
}

// SquareOutline draws the one pixel border of SquareRect(p, size).
func SquareOutline(dst *pixbuf.Buffer, p image.Point, size int, col color.RGBA) {
	RectOutline(dst, SquareRect(p, size), 1, col)
}

// SquareFill fills SquareRect(p, size).
func SquareFill(dst *pixbuf.Buffer, p image.Point, size int, col color.RGBA) {
	dst.FillRect(SquareRect(p, size), col)
}

// DragRect converts a press-to-release drag into a rectangle. Either corner
// may be the anchor, so negative extents describe the same pixels as their
// swapped positive counterpart.
func DragRect(anchor, release image.Point) image.Rectangle {
	return image.Rectangle{Min: anchor, Max: release}.Canon()
}

// RectOutline strokes the border of r with the given thickness.
func RectOutline(dst *pixbuf.Buffer, r image.Rectangle, thick int, col color.RGBA) {
	r = r.Canon()
	if r.Empty() {
		return
	}
	Line(dst, image.Pt(r.Min.X, r.Min.Y), image.Pt(r.Max.X-1, r.Min.Y), thick, col)
	Line(dst, image.Pt(r.Max.X-1, r.Min.Y), image.Pt(r.Max.X-1, r.Max.Y-1), thick, col)
	Line(dst, image.Pt(r.Max.X-1, r.Max.Y-1), image.Pt(r.Min.X, r.Max.Y-1), thick, col)
	Line(dst, image.Pt(r.Min.X, r.Max.Y-1), image.Pt(r.Min.X, r.Min.Y), thick, col)
}

// RectFill fills r after canonicalising it.
func RectFill(dst *pixbuf.Buffer, r image.Rectangle, col color.RGBA) {
	dst.FillRect(r.Canon(), col)
}

// EllipseBounds returns the centre and radii of the ellipse inscribed in the
// drag from anchor to release.
func EllipseBounds(anchor, release image.Point) (c image.Point, rx, ry int) {
	c = image.Pt(floorHalf(anchor.X+release.X), floorHalf(anchor.Y+release.Y))
	return c, abs(release.X-anchor.X) / 2, abs(release.Y-anchor.Y) / 2
}

// EllipseOutline strokes the ellipse as a closed polyline.
func EllipseOutline(dst *pixbuf.Buffer, c image.Point, rx, ry, thick int, col color.RGBA) {
	if rx == 0 || ry == 0 {
		Line(dst, image.Pt(c.X-rx, c.Y-ry), image.Pt(c.X+rx, c.Y+ry), thick, col)
		return
	}
	steps := int(math.Ceil(2 * math.Pi * math.Sqrt(float64(rx*rx+ry*ry))))
	if steps < 8 {
		steps = 8
	}
	var prev image.Point
	for i := 0; i <= steps; i++ {
		angle := 2 * math.Pi * float64(i) / float64(steps)
		p := image.Pt(c.X+int(math.Round(math.Cos(angle)*float64(rx))), c.Y+int(math.Round(math.Sin(angle)*float64(ry))))
		if i > 0 {
			Line(dst, prev, p, thick, col)
		}
		prev = p
	}
}

// EllipseFill fills the ellipse row by row.
func EllipseFill(dst *pixbuf.Buffer, c image.Point, rx, ry int, col color.RGBA) {
	if ry == 0 {
		dst.FillRect(image.Rect(c.X-rx, c.Y, c.X+rx+1, c.Y+1), col)
		return
	}
	for dy := -ry; dy <= ry; dy++ {
		span := int(float64(rx) * math.Sqrt(1.0-float64(dy*dy)/float64(ry*ry)))
		dst.FillRect(image.Rect(c.X-span, c.Y+dy, c.X+span+1, c.Y+dy+1), col)
	}
}

// floorHalf is v/2 rounded toward negative infinity, so centres do not shift
// when a drag crosses the origin.
func floorHalf(v int) int {
	if v < 0 {
		return -((-v + 1) / 2)
	}
	return v / 2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
