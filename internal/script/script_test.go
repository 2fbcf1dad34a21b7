package script

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/easel/internal/canvas"
	"github.com/example/easel/internal/imageio"
)

func newRunner(t *testing.T, cfg Config) (*Runner, *canvas.Session) {
	t.Helper()
	s, err := canvas.New(canvas.Options{ViewportWidth: 20, ViewportHeight: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	r, err := New(s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Close)
	return r, s
}

func TestBrushStroke(t *testing.T) {
	r, s := newRunner(t, DefaultConfig())
	err := r.RunString("brush", `
		easel.tool("brush")
		easel.color("#ff0000")
		easel.size(1)
		easel.press(2, 3)
		easel.move(8, 3)
		easel.release()
	`)
	if err != nil {
		t.Fatal(err)
	}
	red := color.RGBA{255, 0, 0, 255}
	for x := 2; x <= 8; x++ {
		if got := s.Active.At(x, 3); got != red {
			t.Fatalf("pixel %d,3 = %v", x, got)
		}
	}
	if got := s.Active.At(2, 5); got == red {
		t.Fatal("stroke leaked off its row")
	}
}

func TestDragCommitsRectangle(t *testing.T) {
	r, s := newRunner(t, DefaultConfig())
	err := r.RunString("rect", `
		easel.tool("rect-fill")
		easel.color("#0000ff")
		easel.drag(12, 10, 4, 2)
	`)
	if err != nil {
		t.Fatal(err)
	}
	blue := color.RGBA{0, 0, 255, 255}
	if got := s.Active.At(4, 2); got != blue {
		t.Fatalf("corner = %v", got)
	}
	if got := s.Active.At(11, 9); got != blue {
		t.Fatalf("far corner = %v", got)
	}
	if got := s.Active.At(12, 10); got == blue {
		t.Fatal("rectangle includes its release point")
	}
}

func TestFilterAndQuery(t *testing.T) {
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.Stdout = &out
	r, _ := newRunner(t, cfg)
	err := r.RunString("filter", `
		local w, h = easel.dimensions()
		assert(w == 20 and h == 20, "dimensions")
		easel.color("#ff0000")
		easel.press(0, 0)
		easel.release()
		easel.filter("grayscale")
		print(easel.pixel(0, 0))
		assert(easel.pixel(-1, 0) == nil, "outside pixel")
	`)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "#555555ff" {
		t.Fatalf("printed %q", got)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	r, _ := newRunner(t, DefaultConfig())
	code := fmt.Sprintf(`
		easel.tool("square-fill")
		easel.size(4)
		easel.color("red")
		easel.press(10, 10)
		easel.release()
		easel.save(%q)
	`, path)
	if err := r.RunString("save", code); err != nil {
		t.Fatal(err)
	}
	b, err := imageio.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := b.At(10, 10); got != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("saved pixel = %v", got)
	}

	r2, s2 := newRunner(t, DefaultConfig())
	if err := r2.RunString("load", fmt.Sprintf(`easel.load(%q)`, path)); err != nil {
		t.Fatal(err)
	}
	if !s2.Loaded() || !s2.Active.Equal(b) {
		t.Fatal("load did not install the saved image")
	}
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macro.lua")
	if err := os.WriteFile(path, []byte(`easel.frame(3)`), 0o644); err != nil {
		t.Fatal(err)
	}
	r, s := newRunner(t, DefaultConfig())
	if err := r.RunFile(path); err != nil {
		t.Fatal(err)
	}
	if s.Frames() != 3 {
		t.Fatalf("frames = %d", s.Frames())
	}
}

func TestInvalidArguments(t *testing.T) {
	r, s := newRunner(t, DefaultConfig())
	for _, code := range []string{
		`easel.tool("spray")`,
		`easel.size(0)`,
		`easel.size(101)`,
		`easel.color("not-a-colour")`,
		`easel.press("thumb")`,
		`easel.filter("emboss")`,
		`easel.filter("blur:4")`,
		`easel.load("/does/not/exist.png")`,
		`this is not lua`,
	} {
		if err := r.RunString("bad", code); err == nil {
			t.Errorf("%s: expected error", code)
		}
	}
	if s.Tool.Size != 1 {
		t.Fatalf("size changed to %d by rejected calls", s.Tool.Size)
	}
}

func TestCPULimit(t *testing.T) {
	r, _ := newRunner(t, Config{CPULimit: 1000, MemoryLimit: 1 << 20})
	err := r.RunString("spin", `while true do end`)
	if err == nil {
		t.Fatal("runaway script finished")
	}
	if !errors.Is(err, ErrLimitExceeded) && !strings.Contains(err.Error(), "limit") {
		t.Fatalf("err = %v", err)
	}
}

func TestNilSession(t *testing.T) {
	if _, err := New(nil, DefaultConfig()); err == nil {
		t.Fatal("nil session accepted")
	}
}
