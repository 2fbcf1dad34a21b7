package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/example/easel/internal/pixbuf"
	"github.com/example/easel/internal/tools"
)

var ink = color.RGBA{10, 20, 30, 255}

func painted(b *pixbuf.Buffer, col color.RGBA) map[image.Point]bool {
	out := map[image.Point]bool{}
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			if b.At(x, y) == col {
				out[image.Pt(x, y)] = true
			}
		}
	}
	return out
}

func TestDiscRadiusZero(t *testing.T) {
	b := pixbuf.MustNew(9, 9)
	Disc(b, image.Pt(4, 4), 0, ink)
	got := painted(b, ink)
	if len(got) != 1 || !got[image.Pt(4, 4)] {
		t.Fatalf("radius 0 painted %v", got)
	}
}

func TestDiscRadiusOne(t *testing.T) {
	b := pixbuf.MustNew(9, 9)
	Disc(b, image.Pt(4, 4), 1, ink)
	got := painted(b, ink)
	want := []image.Point{{4, 4}, {3, 4}, {5, 4}, {4, 3}, {4, 5}}
	if len(got) != len(want) {
		t.Fatalf("radius 1 painted %d pixels, want %d", len(got), len(want))
	}
	for _, p := range want {
		if !got[p] {
			t.Fatalf("missing %v", p)
		}
	}
}

func TestDiscInclusiveBoundary(t *testing.T) {
	const r = 6
	b := pixbuf.MustNew(20, 20)
	c := image.Pt(10, 10)
	Disc(b, c, r, ink)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			dx, dy := x-c.X, y-c.Y
			want := dx*dx+dy*dy <= r*r
			if got := b.At(x, y) == ink; got != want {
				t.Fatalf("pixel (%d,%d) painted=%v want %v", x, y, got, want)
			}
		}
	}
}

func TestDiscClipsAtEdges(t *testing.T) {
	b := pixbuf.MustNew(4, 4)
	Disc(b, image.Pt(-2, -2), 3, ink)
	Disc(b, image.Pt(100, 100), 50, ink)
	if got := painted(b, ink); !got[image.Pt(0, 0)] {
		t.Fatalf("corner not painted: %v", got)
	}
}

func TestRectangleCornerSwap(t *testing.T) {
	pairs := [][2]image.Point{
		{{2, 3}, {12, 9}},
		{{12, 9}, {2, 3}},
		{{12, 3}, {2, 9}},
		{{2, 9}, {12, 3}},
	}
	// thick 0 means fill.
	for _, thick := range []int{0, 1, 3} {
		fill := thick == 0
		var first map[image.Point]bool
		for i, pr := range pairs {
			b := pixbuf.MustNew(16, 16)
			if fill {
				RectFill(b, DragRect(pr[0], pr[1]), ink)
			} else {
				RectOutline(b, DragRect(pr[0], pr[1]), thick, ink)
			}
			got := painted(b, ink)
			if len(got) == 0 {
				t.Fatalf("pair %d painted nothing", i)
			}
			if first == nil {
				first = got
				continue
			}
			if len(got) != len(first) {
				t.Fatalf("thick=%d pair %d painted %d pixels, want %d", thick, i, len(got), len(first))
			}
			for p := range first {
				if !got[p] {
					t.Fatalf("thick=%d pair %d missing %v", thick, i, p)
				}
			}
		}
	}
}

func TestSquareTopLeft(t *testing.T) {
	if got := SquareRect(image.Pt(10, 10), 5); got != image.Rect(8, 8, 13, 13) {
		t.Fatalf("SquareRect(10,10,5) = %v", got)
	}
	if got := SquareRect(image.Pt(10, 10), 4); got != image.Rect(8, 8, 12, 12) {
		t.Fatalf("SquareRect(10,10,4) = %v", got)
	}
	b := pixbuf.MustNew(20, 20)
	SquareFill(b, image.Pt(10, 10), 4, ink)
	if n := len(painted(b, ink)); n != 16 {
		t.Fatalf("square fill painted %d, want 16", n)
	}
}

func TestLineIsContinuous(t *testing.T) {
	b := pixbuf.MustNew(50, 50)
	Line(b, image.Pt(1, 1), image.Pt(40, 13), 1, ink)
	got := painted(b, ink)
	for x := 1; x <= 40; x++ {
		found := false
		for y := 0; y < 50; y++ {
			if got[image.Pt(x, y)] {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("gap at column %d", x)
		}
	}
}

func TestEllipseBounds(t *testing.T) {
	c, rx, ry := EllipseBounds(image.Pt(20, 10), image.Pt(10, 30))
	if c != image.Pt(15, 20) || rx != 5 || ry != 10 {
		t.Fatalf("EllipseBounds = %v %d %d", c, rx, ry)
	}
}

func TestEllipseBoundsNegativeCoordinates(t *testing.T) {
	c, rx, ry := EllipseBounds(image.Pt(-3, -3), image.Pt(0, 0))
	shifted, _, _ := EllipseBounds(image.Pt(7, 7), image.Pt(10, 10))
	if c != shifted.Sub(image.Pt(10, 10)) || rx != 1 || ry != 1 {
		t.Fatalf("EllipseBounds(-3,-3 to 0,0) = %v %d %d, want %v", c, rx, ry, shifted.Sub(image.Pt(10, 10)))
	}
	if c, _, _ := EllipseBounds(image.Pt(0, 0), image.Pt(-3, -3)); c != image.Pt(-2, -2) {
		t.Fatalf("swapped drag centre = %v", c)
	}
}

// reachable flood fills the unpainted pixels 4-connected to from.
func reachable(b *pixbuf.Buffer, from image.Point) map[image.Point]bool {
	seen := map[image.Point]bool{from: true}
	queue := []image.Point{from}
	bounds := image.Rect(0, 0, b.Width(), b.Height())
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range []image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			q := p.Add(d)
			if !q.In(bounds) || seen[q] || b.At(q.X, q.Y) == ink {
				continue
			}
			seen[q] = true
			queue = append(queue, q)
		}
	}
	return seen
}

func TestCircleOutline(t *testing.T) {
	b := pixbuf.MustNew(9, 9)
	CircleOutline(b, image.Pt(4, 4), 0, ink)
	if got := painted(b, ink); len(got) != 1 || !got[image.Pt(4, 4)] {
		t.Fatalf("radius 0 painted %v", got)
	}

	for _, r := range []int{1, 3, 7, 12} {
		b := pixbuf.MustNew(40, 40)
		c := image.Pt(20, 20)
		CircleOutline(b, c, r, ink)
		got := painted(b, ink)
		for p := range got {
			dx, dy := p.X-c.X, p.Y-c.Y
			d2 := dx*dx + dy*dy
			if d2 < (r-1)*(r-1) || d2 > (r+1)*(r+1) {
				t.Fatalf("r=%d: %v is %d squared from the centre", r, p, d2)
			}
			for _, m := range [][2]int{{dx, dy}, {-dx, dy}, {dx, -dy}, {-dx, -dy}, {dy, dx}, {-dy, dx}, {dy, -dx}, {-dy, -dx}} {
				if !got[c.Add(image.Pt(m[0], m[1]))] {
					t.Fatalf("r=%d: %v painted but mirror %v is not", r, p, m)
				}
			}
		}
		if got[c] {
			t.Fatalf("r=%d: centre painted", r)
		}
		if reachable(b, image.Pt(0, 0))[c] {
			t.Fatalf("r=%d: outline is not closed", r)
		}
	}
}

func TestSquareOutlinePerimeter(t *testing.T) {
	for _, size := range []int{2, 3, 5, 10} {
		b := pixbuf.MustNew(30, 30)
		p := image.Pt(15, 15)
		SquareOutline(b, p, size, ink)
		got := painted(b, ink)
		if len(got) != 4*size-4 {
			t.Fatalf("size %d painted %d pixels, want %d", size, len(got), 4*size-4)
		}
		r := SquareRect(p, size)
		for q := range got {
			onEdge := q.X == r.Min.X || q.X == r.Max.X-1 || q.Y == r.Min.Y || q.Y == r.Max.Y-1
			if !q.In(r) || !onEdge {
				t.Fatalf("size %d: %v off the border of %v", size, q, r)
			}
		}
	}
}

func TestEllipseOutlineClosedWithinBounds(t *testing.T) {
	b := pixbuf.MustNew(40, 40)
	c := image.Pt(20, 20)
	EllipseOutline(b, c, 12, 7, 1, ink)
	got := painted(b, ink)
	for p := range got {
		if p.X < c.X-12 || p.X > c.X+12 || p.Y < c.Y-7 || p.Y > c.Y+7 {
			t.Fatalf("pixel %v outside ellipse bounds", p)
		}
	}
	for _, p := range []image.Point{{c.X - 12, c.Y}, {c.X + 12, c.Y}, {c.X, c.Y - 7}, {c.X, c.Y + 7}} {
		if !got[p] {
			t.Fatalf("extreme %v not painted", p)
		}
	}
	if got[c] {
		t.Fatal("centre painted")
	}
	if reachable(b, image.Pt(0, 0))[c] {
		t.Fatal("outline is not closed")
	}
}

func TestBrushPaintsReleaseSegment(t *testing.T) {
	b := pixbuf.MustNew(40, 10)
	r := New(DefaultEraser)
	st := tools.State{Kind: tools.Brush, Size: 1, Color: ink}
	var s Stroke
	r.Apply(b, st, &s, Press, image.Pt(2, 2))
	r.Apply(b, st, &s, Hold, image.Pt(10, 2))
	r.Apply(b, st, &s, Release, image.Pt(30, 2))
	for x := 2; x <= 30; x++ {
		if b.At(x, 2) != ink {
			t.Fatalf("gap at (%d,2)", x)
		}
	}
}

func TestEllipseFillWithinBounds(t *testing.T) {
	b := pixbuf.MustNew(40, 40)
	EllipseFill(b, image.Pt(20, 20), 8, 4, ink)
	for p := range painted(b, ink) {
		if p.X < 12 || p.X > 28 || p.Y < 16 || p.Y > 24 {
			t.Fatalf("pixel %v outside ellipse bounds", p)
		}
	}
	if b.At(20, 20) != ink || b.At(12, 20) != ink || b.At(20, 16) != ink {
		t.Fatal("ellipse extremes not filled")
	}
}

func TestBrushPaintsEveryHeldFrame(t *testing.T) {
	b := pixbuf.MustNew(40, 40)
	r := New(DefaultEraser)
	st := tools.State{Kind: tools.Brush, Size: 1, Color: ink}
	var s Stroke
	r.Apply(b, st, &s, Press, image.Pt(2, 2))
	r.Apply(b, st, &s, Hold, image.Pt(20, 2))
	r.Apply(b, st, &s, Hold, image.Pt(20, 20))
	for x := 2; x <= 20; x++ {
		if b.At(x, 2) != ink {
			t.Fatalf("gap at (%d,2)", x)
		}
	}
	for y := 2; y <= 20; y++ {
		if b.At(20, y) != ink {
			t.Fatalf("gap at (20,%d)", y)
		}
	}
	r.Apply(b, st, &s, Release, image.Pt(20, 20))
	if s.Active() {
		t.Fatal("stroke still active after release")
	}
}

func TestEraserIgnoresToolColor(t *testing.T) {
	b, _ := pixbuf.Filled(10, 10, ink)
	r := New(DefaultEraser)
	st := tools.State{Kind: tools.Eraser, Size: 1, Color: color.RGBA{255, 0, 0, 255}}
	var s Stroke
	r.Apply(b, st, &s, Press, image.Pt(5, 5))
	if b.At(5, 5) != DefaultEraser {
		t.Fatalf("eraser painted %v", b.At(5, 5))
	}
	if len(painted(b, color.RGBA{255, 0, 0, 255})) != 0 {
		t.Fatal("eraser used tool color")
	}
}

func TestTwoPhaseCommitsOnRelease(t *testing.T) {
	b := pixbuf.MustNew(30, 30)
	r := New(DefaultEraser)
	st := tools.State{Kind: tools.RectangleFill, Size: 1, Color: ink}
	var s Stroke
	r.Apply(b, st, &s, Press, image.Pt(20, 20))
	r.Apply(b, st, &s, Hold, image.Pt(15, 15))
	r.Apply(b, st, &s, Hold, image.Pt(10, 12))
	if n := len(painted(b, ink)); n != 0 {
		t.Fatalf("shape painted %d pixels before release", n)
	}
	r.Apply(b, st, &s, Release, image.Pt(10, 10))
	if n := len(painted(b, ink)); n != 100 {
		t.Fatalf("committed rect has %d pixels, want 100", n)
	}
	if b.At(10, 10) != ink || b.At(19, 19) != ink || b.At(20, 20) == ink {
		t.Fatal("rect pixels wrong")
	}
}

func TestReleaseWithoutPressIsNoop(t *testing.T) {
	b := pixbuf.MustNew(10, 10)
	r := New(DefaultEraser)
	var s Stroke
	r.Apply(b, tools.State{Kind: tools.Line, Size: 1, Color: ink}, &s, Release, image.Pt(5, 5))
	if n := len(painted(b, ink)); n != 0 {
		t.Fatalf("release without press painted %d", n)
	}
}
