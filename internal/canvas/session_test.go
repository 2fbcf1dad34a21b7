package canvas

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/easel/internal/filter"
	"github.com/example/easel/internal/geom"
	"github.com/example/easel/internal/imageio"
	"github.com/example/easel/internal/pixbuf"
	"github.com/example/easel/internal/tools"
	"github.com/example/easel/internal/worker"
)

var white = color.RGBA{255, 255, 255, 255}

type capturePresenter struct {
	frames int
	last   *pixbuf.Buffer
}

func (c *capturePresenter) Present(out *pixbuf.Buffer) error {
	c.frames++
	c.last = out.Clone()
	return nil
}

func newSession(t *testing.T, w, h int) (*Session, *capturePresenter) {
	t.Helper()
	p := &capturePresenter{}
	s, err := New(Options{ViewportWidth: w, ViewportHeight: h, Presenter: p})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s, p
}

func frame(t *testing.T, s *Session, in Input) {
	t.Helper()
	s.SetInput(in)
	if err := s.Frame(); err != nil {
		t.Fatal(err)
	}
}

func press(b Button, st ButtonState, p image.Point) Input {
	in := Input{Pointer: p}
	in.Buttons[b] = st
	return in
}

func TestInitialSurfaceIsWhiteViewport(t *testing.T) {
	s, p := newSession(t, 40, 30)
	if s.Active.Width() != 40 || s.Active.Height() != 30 {
		t.Fatalf("active %dx%d", s.Active.Width(), s.Active.Height())
	}
	frame(t, s, Input{})
	if p.frames != 1 {
		t.Fatalf("presented %d frames", p.frames)
	}
	if got := p.last.At(39, 29); got != white {
		t.Fatalf("output corner = %v, want white", got)
	}
}

func TestCompositeWithPlacement(t *testing.T) {
	s, p := newSession(t, 20, 20)
	img, _ := pixbuf.Filled(4, 4, color.RGBA{255, 0, 0, 255})
	if err := s.LoadImage(img); err != nil {
		t.Fatal(err)
	}
	s.Placement.OffsetX, s.Placement.OffsetY = 5, 6
	frame(t, s, Input{})
	if got := p.last.At(5, 6); got != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("image pixel = %v", got)
	}
	if got := p.last.At(4, 6); got != WorkbenchGray {
		t.Fatalf("workbench pixel = %v", got)
	}
	if got := p.last.At(9, 10); got != WorkbenchGray {
		t.Fatalf("past image = %v", got)
	}
}

func TestDrawingUsesPlacementOffset(t *testing.T) {
	s, p := newSession(t, 40, 40)
	img, _ := pixbuf.Filled(20, 20, white)
	s.LoadImage(img)
	s.Placement.OffsetX, s.Placement.OffsetY = 10, 10
	s.Tool = tools.State{Kind: tools.Brush, Size: 1, Color: color.RGBA{0, 0, 255, 255}}
	frame(t, s, press(Left, Down, image.Pt(15, 17)))
	frame(t, s, press(Left, Up, image.Pt(15, 17)))
	if got := s.Active.At(5, 7); got != s.Tool.Color {
		t.Fatalf("canvas (5,7) = %v", got)
	}
	if got := p.last.At(15, 17); got != s.Tool.Color {
		t.Fatalf("screen (15,17) = %v", got)
	}
}

func TestMiddleButtonPans(t *testing.T) {
	s, _ := newSession(t, 300, 300)
	img, _ := pixbuf.Filled(50, 50, white)
	s.LoadImage(img)
	s.Placement.OffsetX, s.Placement.OffsetY = 10, 10
	frame(t, s, press(Middle, Down, image.Pt(100, 100)))
	frame(t, s, press(Middle, Repeat, image.Pt(150, 120)))
	if s.Placement.OffsetX != 60 || s.Placement.OffsetY != 30 {
		t.Fatalf("offset = (%d,%d), want (60,30)", s.Placement.OffsetX, s.Placement.OffsetY)
	}
	frame(t, s, press(Middle, Up, image.Pt(150, 120)))
	frame(t, s, press(Middle, Idle, image.Pt(0, 0)))
	if s.Placement.OffsetX != 60 {
		t.Fatal("placement moved after pan ended")
	}
}

func TestRightButtonErases(t *testing.T) {
	s, _ := newSession(t, 20, 20)
	s.Active.Fill(color.RGBA{0, 0, 0, 255})
	s.Tool = tools.State{Kind: tools.CircleFill, Size: 2, Color: color.RGBA{255, 0, 0, 255}}
	frame(t, s, press(Right, Down, image.Pt(10, 10)))
	if got := s.Active.At(10, 10); got != white {
		t.Fatalf("right button painted %v", got)
	}
}

func TestTwoPhasePreviewDoesNotTouchActive(t *testing.T) {
	s, p := newSession(t, 30, 30)
	s.Tool = tools.State{Kind: tools.RectangleFill, Size: 1, Color: color.RGBA{0, 200, 0, 255}}
	frame(t, s, press(Left, Down, image.Pt(5, 5)))
	frame(t, s, press(Left, Repeat, image.Pt(15, 15)))
	if s.Active.At(10, 10) == s.Tool.Color {
		t.Fatal("shape committed before release")
	}
	if p.last.At(10, 10) != s.Tool.Color {
		t.Fatal("preview not shown on output")
	}
	frame(t, s, press(Left, Up, image.Pt(15, 15)))
	if s.Active.At(10, 10) != s.Tool.Color {
		t.Fatal("shape not committed on release")
	}
}

func TestApplyFilterReplacesActive(t *testing.T) {
	s, _ := newSession(t, 8, 8)
	s.Active.Fill(color.RGBA{30, 60, 90, 255})
	old := s.Active
	if err := s.ApplyFilter(filter.Grayscale{}); err != nil {
		t.Fatal(err)
	}
	if s.Active == old || !old.Released() {
		t.Fatal("old active buffer not retired")
	}
	if got := s.Active.At(3, 3); got != (color.RGBA{60, 60, 60, 255}) {
		t.Fatalf("filtered pixel %v", got)
	}
	if !s.Filter.SameSize(s.Active) {
		t.Fatal("staging buffer not sized to canvas")
	}
}

func TestApplyFilterErrorLeavesActive(t *testing.T) {
	s, _ := newSession(t, 8, 8)
	before := s.Active.Clone()
	if err := s.ApplyFilter(filter.BoxBlur{Size: 4}); !errors.Is(err, filter.ErrInvalidParameter) {
		t.Fatalf("err = %v", err)
	}
	if !s.Active.Equal(before) {
		t.Fatal("failed filter changed the canvas")
	}
}

func TestLoadFileFailureLeavesState(t *testing.T) {
	s, _ := newSession(t, 8, 8)
	active := s.Active
	err := s.LoadFile(filepath.Join(t.TempDir(), "missing.png"))
	var ioe *imageio.IOError
	if !errors.As(err, &ioe) {
		t.Fatalf("err = %v", err)
	}
	if s.Active != active || s.Loaded() {
		t.Fatal("failed load changed session")
	}
}

func TestLoadReleasesPreviousStack(t *testing.T) {
	s, _ := newSession(t, 8, 8)
	old := s.Stack
	img, _ := pixbuf.Filled(3, 5, white)
	s.LoadImage(img)
	for name, b := range map[string]*pixbuf.Buffer{"workbench": old.Workbench, "active": old.Active, "filter": old.Filter, "output": old.Output} {
		if !b.Released() {
			t.Fatalf("%s buffer not released", name)
		}
	}
	if s.Placement.Width != 3 || s.Placement.Height != 5 || s.Placement.Offset() != (image.Point{}) {
		t.Fatalf("placement %+v", s.Placement)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s, _ := newSession(t, 6, 6)
	var events []Event
	s.opts.OnEvent = func(e Event) { events = append(events, e) }
	path := filepath.Join(t.TempDir(), "out.png")
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if s.Active.At(0, 0) != white {
		t.Fatal("saved canvas not white")
	}
	if len(events) != 2 || events[0].Kind != EventSave || events[1].Kind != EventLoad {
		t.Fatalf("events %+v", events)
	}
}

func TestTaskResultInstalledBetweenFrames(t *testing.T) {
	pool := worker.NewPool(1)
	t.Cleanup(pool.Close)
	s, err := New(Options{ViewportWidth: 10, ViewportHeight: 10, Pool: pool})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Submit("upscale", func(ctx context.Context) (*pixbuf.Buffer, error) {
		return pixbuf.Filled(20, 20, color.RGBA{1, 2, 3, 255})
	}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for !s.Loaded() && time.Now().Before(deadline) {
		frame(t, s, Input{})
		time.Sleep(time.Millisecond)
	}
	if s.Active.Width() != 20 || s.Active.At(0, 0) != (color.RGBA{1, 2, 3, 255}) {
		t.Fatalf("task result not installed: %dx%d", s.Active.Width(), s.Active.Height())
	}
}

func TestTrackerEdges(t *testing.T) {
	var tr Tracker
	tr.Press(Left)
	if in := tr.Sample(); in.Buttons[Left] != Down {
		t.Fatalf("first frame %v", in.Buttons[Left])
	}
	if in := tr.Sample(); in.Buttons[Left] != Repeat {
		t.Fatalf("second frame %v", in.Buttons[Left])
	}
	tr.Release(Left)
	if in := tr.Sample(); in.Buttons[Left] != Up {
		t.Fatalf("release frame %v", in.Buttons[Left])
	}
	if in := tr.Sample(); in.Buttons[Left] != Idle {
		t.Fatalf("after release %v", in.Buttons[Left])
	}
	tr.Press(Right)
	tr.Release(Right)
	if in := tr.Sample(); in.Buttons[Right] != Down {
		t.Fatalf("quick click first frame %v", in.Buttons[Right])
	}
	if in := tr.Sample(); in.Buttons[Right] != Up {
		t.Fatalf("quick click second frame %v", in.Buttons[Right])
	}

	// Release then press again within one frame interval.
	tr.Press(Left)
	tr.Sample()
	tr.Sample()
	tr.Release(Left)
	tr.Press(Left)
	for i, want := range []ButtonState{Up, Down, Repeat} {
		if in := tr.Sample(); in.Buttons[Left] != want {
			t.Fatalf("re-press frame %d: %v, want %v", i, in.Buttons[Left], want)
		}
	}
	tr.Release(Left)
	tr.Press(Left)
	tr.Release(Left)
	for i, want := range []ButtonState{Up, Down, Up, Idle} {
		if in := tr.Sample(); in.Buttons[Left] != want {
			t.Fatalf("re-press click frame %d: %v, want %v", i, in.Buttons[Left], want)
		}
	}
}

func TestQuickRepressCommitsFirstLine(t *testing.T) {
	s, _ := newSession(t, 40, 10)
	s.Tool = tools.State{Kind: tools.Line, Size: 1, Color: color.RGBA{0, 0, 0, 255}}
	var tr Tracker
	step := func() {
		s.SetInput(tr.Sample())
		if err := s.Frame(); err != nil {
			t.Fatal(err)
		}
	}
	tr.Move(image.Pt(2, 2))
	tr.Press(Left)
	step()
	tr.Move(image.Pt(30, 2))
	step()
	tr.Release(Left)
	tr.Press(Left)
	step()
	if got := s.Active.At(16, 2); got != s.Tool.Color {
		t.Fatalf("line not committed before the next press: (16,2) = %v", got)
	}
}

func TestCompositeScalesWhenPlacementDiffers(t *testing.T) {
	out := pixbuf.MustNew(10, 10)
	wb, _ := pixbuf.Filled(10, 10, WorkbenchGray)
	active, _ := pixbuf.Filled(2, 2, color.RGBA{9, 9, 9, 255})
	pl := geom.Placement{OffsetX: 1, OffsetY: 1, Width: 4, Height: 4}
	Composite(out, wb, active, &pl)
	if got := out.At(4, 4); got != (color.RGBA{9, 9, 9, 255}) {
		t.Fatalf("scaled pixel = %v", got)
	}
	if got := out.At(5, 5); got != WorkbenchGray {
		t.Fatalf("outside scaled rect = %v", got)
	}
}
