// Package ui hosts an editing session in a desktop window. Window events are
// turned into per-frame session input; keyboard shortcuts pick tools, colours
// and filters.
package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/golang/glog"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/easel/internal/canvas"
	"github.com/example/easel/internal/config"
	"github.com/example/easel/internal/external"
	"github.com/example/easel/internal/pixbuf"
	"github.com/example/easel/internal/tools"
)

// NudgeStep is how far an arrow key moves the background.
const NudgeStep = 10

// messageTTL is how long a status message stays visible.
const messageTTL = 3 * time.Second

// Controller applies window input to a session. It is driven by a single
// goroutine, the window's event loop.
type Controller struct {
	Session *canvas.Session
	// SavePath is where ctrl+s writes; empty disables saving.
	SavePath string
	// Copy and Paste move images through the system clipboard.
	Copy  func(*pixbuf.Buffer) error
	Paste func() (*pixbuf.Buffer, error)
	// Upscaler, when set, doubles the canvas on shift+u through the
	// session's worker pool.
	Upscaler external.Upscaler

	tracker      canvas.Tracker
	actions      map[string]func() error
	keys         map[KeyShortcut]string
	message      string
	messageUntil time.Time
	now          func() time.Time
}

// NewController binds a session and registers the default shortcuts.
func NewController(s *canvas.Session) *Controller {
	c := &Controller{Session: s, now: time.Now}
	c.configure()
	return c
}

func (c *Controller) register(name string, keys KeyboardShortcuts, fn func() error) {
	c.actions[name] = fn
	for _, sc := range keys.KeyboardShortcuts() {
		c.keys[sc] = name
	}
}

func (c *Controller) configure() {
	c.actions = map[string]func() error{}
	c.keys = map[KeyShortcut]string{}

	tool := func(k tools.Kind) func() error {
		return func() error {
			c.Session.Tool.Kind = k
			return nil
		}
	}
	c.register("brush", shortcutList{runeKey('b')}, tool(tools.Brush))
	c.register("eraser", shortcutList{runeKey('e')}, tool(tools.Eraser))
	c.register("circle", shortcutList{runeKey('c')}, tool(tools.Circle))
	c.register("circle-fill", shortcutList{shiftKey('c')}, tool(tools.CircleFill))
	c.register("square", shortcutList{runeKey('s')}, tool(tools.Square))
	c.register("square-fill", shortcutList{shiftKey('s')}, tool(tools.SquareFill))
	c.register("line", shortcutList{runeKey('l')}, tool(tools.Line))
	c.register("ellipse", shortcutList{runeKey('o')}, tool(tools.Ellipse))
	c.register("ellipse-fill", shortcutList{shiftKey('o')}, tool(tools.EllipseFill))
	c.register("rect", shortcutList{runeKey('r')}, tool(tools.Rectangle))
	c.register("rect-fill", shortcutList{shiftKey('r')}, tool(tools.RectangleFill))

	c.register("smaller", shortcutList{runeKey('['), runeKey('-')}, func() error {
		c.Session.Tool.ClampSize(c.Session.Tool.Size - 1)
		return nil
	})
	c.register("larger", shortcutList{runeKey(']'), runeKey('='), shiftKey('+')}, func() error {
		c.Session.Tool.ClampSize(c.Session.Tool.Size + 1)
		return nil
	})
	for i := 0; i < 10; i++ {
		idx := i
		r := rune('1' + i)
		if i == 9 {
			r = '0'
		}
		c.register(fmt.Sprintf("color-%d", idx), shortcutList{runeKey(r)}, func() error {
			c.Session.Tool.Color = tools.PaletteAt(idx).Color
			return nil
		})
	}

	filter := func(name string) func() error {
		return func() error {
			if err := c.Session.ApplyFilterByName(name); err != nil {
				return err
			}
			c.say("applied " + name)
			return nil
		}
	}
	c.register("grayscale", shortcutList{runeKey('g')}, filter("grayscale"))
	c.register("blur", shortcutList{runeKey('k')}, filter("blur"))
	c.register("negative", shortcutList{runeKey('n')}, filter("negative"))
	c.register("gaussian", shortcutList{runeKey('u')}, filter("gaussian"))
	c.register("sharpen", shortcutList{runeKey('h')}, filter("sharpen"))

	nudge := func(dx, dy int) func() error {
		return func() error {
			c.tracker.Nudge(dx, dy)
			return nil
		}
	}
	c.register("left", shortcutList{codeKey(key.CodeLeftArrow)}, nudge(-NudgeStep, 0))
	c.register("right", shortcutList{codeKey(key.CodeRightArrow)}, nudge(NudgeStep, 0))
	c.register("up", shortcutList{codeKey(key.CodeUpArrow)}, nudge(0, -NudgeStep))
	c.register("down", shortcutList{codeKey(key.CodeDownArrow)}, nudge(0, NudgeStep))

	c.register("save", shortcutList{ctrlKey('s')}, c.save)
	c.register("copy", shortcutList{ctrlKey('c')}, c.copy)
	c.register("paste", shortcutList{ctrlKey('v')}, c.paste)
	c.register("upscale", shortcutList{shiftKey('u')}, c.upscale)
}

func (c *Controller) upscale() error {
	if c.Upscaler == nil {
		return errors.New("no upscaler configured")
	}
	img := c.Session.Snapshot()
	up := c.Upscaler
	id, err := c.Session.Submit("upscale", func(ctx context.Context) (*pixbuf.Buffer, error) {
		defer img.Release()
		return up.Upscale(ctx, img, 2, 0)
	})
	if err != nil {
		img.Release()
		return err
	}
	c.say(fmt.Sprintf("upscaling (task %d)", id))
	return nil
}

func (c *Controller) save() error {
	if c.SavePath == "" {
		return errors.New("no output file; start with -output")
	}
	if err := c.Session.Save(c.SavePath); err != nil {
		return err
	}
	c.say("saved " + c.SavePath)
	return nil
}

func (c *Controller) copy() error {
	if c.Copy == nil {
		return errors.New("clipboard unavailable")
	}
	if err := c.Copy(c.Session.Active); err != nil {
		return err
	}
	c.say("copied to clipboard")
	return nil
}

func (c *Controller) paste() error {
	if c.Paste == nil {
		return errors.New("clipboard unavailable")
	}
	b, err := c.Paste()
	if err != nil {
		return err
	}
	if err := c.Session.LoadImage(b); err != nil {
		return err
	}
	c.say(fmt.Sprintf("pasted %dx%d", b.Width(), b.Height()))
	return nil
}

func (c *Controller) say(msg string) {
	c.message = msg
	c.messageUntil = c.now().Add(messageTTL)
}

// HandleKey runs the shortcut bound to e. It reports whether the window
// should close.
func (c *Controller) HandleKey(e key.Event) (quit bool) {
	if e.Direction != key.DirPress {
		return false
	}
	if e.Code == key.CodeEscape || (e.Rune == 'q' && e.Modifiers == 0) {
		return true
	}
	name, ok := c.keys[shortcutFor(e)]
	if !ok {
		return false
	}
	glog.V(2).Infof("shortcut %s", name)
	if err := c.actions[name](); err != nil {
		glog.Errorf("%s: %v", name, err)
		c.say(fmt.Sprintf("%s: %v", name, err))
	}
	return false
}

// HandleMouse records pointer movement and button edges for the next frame.
// The wheel changes the tool size.
func (c *Controller) HandleMouse(e mouse.Event) {
	c.tracker.Move(image.Pt(int(e.X), int(e.Y)))
	if e.Direction == mouse.DirStep {
		switch e.Button {
		case mouse.ButtonWheelUp:
			c.Session.Tool.ClampSize(c.Session.Tool.Size + 1)
		case mouse.ButtonWheelDown:
			c.Session.Tool.ClampSize(c.Session.Tool.Size - 1)
		}
		return
	}
	var b canvas.Button
	switch e.Button {
	case mouse.ButtonLeft:
		b = canvas.Left
	case mouse.ButtonRight:
		b = canvas.Right
	case mouse.ButtonMiddle:
		b = canvas.Middle
	default:
		return
	}
	switch e.Direction {
	case mouse.DirPress:
		c.tracker.Press(b)
	case mouse.DirRelease:
		c.tracker.Release(b)
	}
}

// Tick runs one session frame with the input gathered since the last one.
func (c *Controller) Tick() error {
	c.Session.SetInput(c.tracker.Sample())
	return c.Session.Frame()
}

// ApplyConfig takes the reloadable parts of cfg: colours, the filter engine
// and the save encoder. The tool the user picked is left alone.
func (c *Controller) ApplyConfig(cfg *config.Config) {
	c.Session.SetWorkbench(cfg.Editor.Workbench)
	c.Session.SetEraser(cfg.Editor.Eraser)
	c.Session.SetFilterEngine(cfg.FilterEngine())
	c.Session.SetSaveOptions(cfg.SaveOptions())
	c.say("configuration reloaded")
}

// Status is the text shown under the canvas.
func (c *Controller) Status() string {
	s := c.Session
	parts := []string{
		fmt.Sprintf("%s %dpx %s", s.Tool.Kind, s.Tool.Size, tools.FormatColor(s.Tool.Color)),
		fmt.Sprintf("%dx%d", s.Active.Width(), s.Active.Height()),
	}
	if s.Loaded() {
		parts = append(parts, fmt.Sprintf("at %d,%d", s.Placement.OffsetX, s.Placement.OffsetY))
	}
	if c.message != "" && c.now().Before(c.messageUntil) {
		parts = append(parts, c.message)
	}
	return strings.Join(parts, "  |  ")
}
