package ui

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/easel/internal/canvas"
	"github.com/example/easel/internal/config"
	"github.com/example/easel/internal/external"
	"github.com/example/easel/internal/imageio"
	"github.com/example/easel/internal/pixbuf"
	"github.com/example/easel/internal/tools"
	"github.com/example/easel/internal/worker"
)

func newController(t *testing.T) *Controller {
	t.Helper()
	s, err := canvas.New(canvas.Options{ViewportWidth: 20, ViewportHeight: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	c := NewController(s)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	return c
}

func press(r rune, mods key.Modifiers) key.Event {
	return key.Event{Rune: r, Modifiers: mods, Direction: key.DirPress}
}

func tick(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.Tick(); err != nil {
		t.Fatal(err)
	}
}

func TestToolShortcuts(t *testing.T) {
	c := newController(t)
	tests := []struct {
		ev   key.Event
		want tools.Kind
	}{
		{press('l', 0), tools.Line},
		{press('R', key.ModShift), tools.RectangleFill},
		{press('r', 0), tools.Rectangle},
		{press('C', key.ModShift), tools.CircleFill},
		{press('e', 0), tools.Eraser},
		{press('b', 0), tools.Brush},
	}
	for _, tt := range tests {
		if quit := c.HandleKey(tt.ev); quit {
			t.Fatalf("%q quit", tt.ev.Rune)
		}
		if c.Session.Tool.Kind != tt.want {
			t.Errorf("after %q tool = %v, want %v", tt.ev.Rune, c.Session.Tool.Kind, tt.want)
		}
	}
}

func TestReleaseIsIgnored(t *testing.T) {
	c := newController(t)
	c.HandleKey(key.Event{Rune: 'l', Direction: key.DirRelease})
	if c.Session.Tool.Kind != tools.Brush {
		t.Fatalf("tool = %v", c.Session.Tool.Kind)
	}
}

func TestSizeAndPalette(t *testing.T) {
	c := newController(t)
	c.HandleKey(press('[', 0))
	if c.Session.Tool.Size != 1 {
		t.Fatalf("size below minimum: %d", c.Session.Tool.Size)
	}
	c.HandleKey(press(']', 0))
	c.HandleKey(press(']', 0))
	if c.Session.Tool.Size != 3 {
		t.Fatalf("size = %d, want 3", c.Session.Tool.Size)
	}
	c.HandleMouse(mouse.Event{Button: mouse.ButtonWheelDown, Direction: mouse.DirStep})
	if c.Session.Tool.Size != 2 {
		t.Fatalf("wheel size = %d, want 2", c.Session.Tool.Size)
	}
	c.HandleKey(press('3', 0))
	if c.Session.Tool.Color != tools.PaletteAt(2).Color {
		t.Fatalf("color = %v", c.Session.Tool.Color)
	}
}

func TestQuit(t *testing.T) {
	c := newController(t)
	if !c.HandleKey(press('q', 0)) {
		t.Error("q did not quit")
	}
	if !c.HandleKey(key.Event{Rune: -1, Code: key.CodeEscape, Direction: key.DirPress}) {
		t.Error("escape did not quit")
	}
}

func TestMouseStroke(t *testing.T) {
	c := newController(t)
	c.HandleMouse(mouse.Event{X: 2, Y: 3, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	tick(t, c)
	c.HandleMouse(mouse.Event{X: 8, Y: 3})
	tick(t, c)
	c.HandleMouse(mouse.Event{X: 8, Y: 3, Button: mouse.ButtonLeft, Direction: mouse.DirRelease})
	tick(t, c)
	black := color.RGBA{0, 0, 0, 255}
	for x := 2; x <= 8; x++ {
		if got := c.Session.Active.At(x, 3); got != black {
			t.Fatalf("pixel %d,3 = %v", x, got)
		}
	}
}

func TestArrowNudgesLoadedImage(t *testing.T) {
	c := newController(t)
	if err := c.Session.LoadImage(pixbuf.MustNew(5, 5)); err != nil {
		t.Fatal(err)
	}
	c.HandleKey(key.Event{Rune: -1, Code: key.CodeRightArrow, Direction: key.DirPress})
	c.HandleKey(key.Event{Rune: -1, Code: key.CodeDownArrow, Direction: key.DirPress})
	tick(t, c)
	if got := c.Session.Placement.Offset(); got != image.Pt(NudgeStep, NudgeStep) {
		t.Fatalf("offset = %v", got)
	}
}

func TestSaveShortcut(t *testing.T) {
	c := newController(t)
	c.HandleKey(press('s', key.ModControl))
	if !strings.Contains(c.Status(), "save: no output file") {
		t.Fatalf("status %q", c.Status())
	}
	if c.Session.Tool.Kind != tools.Brush {
		t.Fatal("ctrl+s changed the tool")
	}

	c.SavePath = filepath.Join(t.TempDir(), "out.png")
	c.HandleKey(press('s', key.ModControl))
	img, err := imageio.Load(c.SavePath)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width() != 20 || img.Height() != 20 {
		t.Fatalf("saved %dx%d", img.Width(), img.Height())
	}
}

func TestClipboardShortcuts(t *testing.T) {
	c := newController(t)
	var copied *pixbuf.Buffer
	c.Copy = func(b *pixbuf.Buffer) error {
		copied = b.Clone()
		return nil
	}
	c.Paste = func() (*pixbuf.Buffer, error) {
		return pixbuf.Filled(6, 4, color.RGBA{0, 0, 255, 255})
	}
	c.HandleKey(press('c', key.ModControl))
	if copied == nil || copied.Width() != 20 {
		t.Fatalf("copied %v", copied)
	}
	c.HandleKey(press('v', key.ModControl))
	if !c.Session.Loaded() || c.Session.Active.Width() != 6 {
		t.Fatalf("paste did not load: %dx%d", c.Session.Active.Width(), c.Session.Active.Height())
	}
	if !strings.Contains(c.Status(), "pasted 6x4") {
		t.Fatalf("status %q", c.Status())
	}

	// Copy takes the image Save would write, not the framed composite.
	tick(t, c)
	c.HandleKey(press('c', key.ModControl))
	if !copied.Equal(c.Session.Active) {
		t.Fatalf("copied %dx%d, want the 6x4 active image", copied.Width(), copied.Height())
	}

	c.Paste = func() (*pixbuf.Buffer, error) { return nil, errors.New("empty") }
	c.HandleKey(press('v', key.ModControl))
	if c.Session.Active.Width() != 6 {
		t.Fatal("failed paste replaced the canvas")
	}
}

func TestFilterShortcut(t *testing.T) {
	c := newController(t)
	c.Session.Active.Set(1, 1, color.RGBA{255, 0, 0, 255})
	c.HandleKey(press('g', 0))
	got := c.Session.Active.At(1, 1)
	if got.R != got.G || got.G != got.B {
		t.Fatalf("pixel not gray: %v", got)
	}
}

func TestStatusMessageExpires(t *testing.T) {
	c := newController(t)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	c.say("hello")
	if !strings.Contains(c.Status(), "hello") {
		t.Fatalf("status %q", c.Status())
	}
	now = now.Add(messageTTL + time.Second)
	if strings.Contains(c.Status(), "hello") {
		t.Fatalf("message did not expire: %q", c.Status())
	}
	if !strings.HasPrefix(c.Status(), "brush 1px #000000") {
		t.Fatalf("status %q", c.Status())
	}
}

func TestApplyConfig(t *testing.T) {
	c := newController(t)
	cfg := config.New()
	cfg.Editor.Workbench = color.RGBA{10, 20, 30, 255}
	cfg.Filters.BlurKernel = 5
	c.ApplyConfig(cfg)
	if c.Session.Options().Workbench != cfg.Editor.Workbench {
		t.Errorf("workbench = %v", c.Session.Options().Workbench)
	}
	if c.Session.Filters().BlurKernel != 5 {
		t.Errorf("blur kernel = %d", c.Session.Filters().BlurKernel)
	}
}

func TestDrawStatus(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 40))
	DrawStatus(img, "brush")
	if got := img.RGBAAt(199, 39); got != statusBackground {
		t.Errorf("background = %v", got)
	}
	if got := img.RGBAAt(5, 20); got != statusRule {
		t.Errorf("rule = %v", got)
	}
	if got := img.RGBAAt(5, 5); got != (color.RGBA{}) {
		t.Errorf("painted above the bar: %v", got)
	}
	dark := false
	for y := 21; y < 40; y++ {
		for x := 0; x < 60; x++ {
			if img.RGBAAt(x, y).R < 100 {
				dark = true
			}
		}
	}
	if !dark {
		t.Error("no text drawn")
	}
}

func TestUpscaleRunsOnPool(t *testing.T) {
	pool := worker.NewPool(1)
	t.Cleanup(pool.Close)
	s, err := canvas.New(canvas.Options{ViewportWidth: 8, ViewportHeight: 6, Pool: pool})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	c := NewController(s)

	c.HandleKey(press('U', key.ModShift))
	if !strings.Contains(c.Status(), "no upscaler") {
		t.Fatalf("status %q", c.Status())
	}

	c.Upscaler = external.ResampleUpscaler{}
	c.HandleKey(press('U', key.ModShift))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.WaitTask(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Active.Width() != 16 || s.Active.Height() != 12 {
		t.Fatalf("upscaled to %dx%d", s.Active.Width(), s.Active.Height())
	}
}
