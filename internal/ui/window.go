package ui

import (
	"image"
	"image/draw"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/easel/internal/canvas"
	"github.com/example/easel/internal/config"
	"github.com/example/easel/internal/pixbuf"
)

// tickEvent asks the event loop to run one frame.
type tickEvent struct{}

// reloadEvent carries a configuration picked up by the file watcher.
type reloadEvent struct{ cfg *config.Config }

// App runs a controller inside a shiny window.
type App struct {
	Controller *Controller
	Title      string

	mu      sync.Mutex
	window  screen.Window
	pending atomic.Bool
	done    chan struct{}
}

// NewApp wraps c in a window application.
func NewApp(c *Controller) *App {
	return &App{Controller: c, Title: "Easel", done: make(chan struct{})}
}

// Run executes the UI loop using shiny's driver. It returns when the window
// closes.
func (a *App) Run() { driver.Main(a.Main) }

// Reload hands cfg to the event loop. It is safe to call from any goroutine;
// calls before the window opens are dropped.
func (a *App) Reload(cfg *config.Config) {
	a.mu.Lock()
	w := a.window
	a.mu.Unlock()
	if w != nil {
		w.Send(reloadEvent{cfg})
	}
}

func (a *App) Main(s screen.Screen) {
	sess := a.Controller.Session
	opts := sess.Options()
	w, err := s.NewWindow(&screen.NewWindowOptions{
		Width:  opts.ViewportWidth,
		Height: opts.ViewportHeight + StatusHeight,
		Title:  a.Title,
	})
	if err != nil {
		glog.Errorf("new window: %v", err)
		return
	}
	defer w.Release()
	a.mu.Lock()
	a.window = w
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.window = nil
		a.mu.Unlock()
		close(a.done)
	}()

	sess.SetPresenter(&windowPresenter{screen: s, window: w, status: a.Controller.Status})
	go a.tick(w)

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return
			}
		case size.Event:
			vh := e.HeightPx - StatusHeight
			if e.WidthPx <= 0 || vh <= 0 {
				continue
			}
			if err := sess.ResizeViewport(e.WidthPx, vh); err != nil {
				glog.Errorf("resize: %v", err)
			}
		case mouse.Event:
			a.Controller.HandleMouse(e)
		case key.Event:
			if a.Controller.HandleKey(e) {
				return
			}
		case reloadEvent:
			a.Controller.ApplyConfig(e.cfg)
		case paint.Event:
			a.frame()
		case tickEvent:
			a.pending.Store(false)
			a.frame()
		case error:
			glog.Errorf("window: %v", e)
		}
	}
}

func (a *App) frame() {
	if err := a.Controller.Tick(); err != nil {
		glog.Errorf("frame: %v", err)
	}
}

// tick paces frames. A tick is only queued once the previous one has been
// consumed so a slow frame never builds a backlog.
func (a *App) tick(w screen.Window) {
	t := time.NewTicker(canvas.FrameInterval)
	defer t.Stop()
	for {
		select {
		case <-a.done:
			return
		case <-t.C:
			if a.pending.CompareAndSwap(false, true) {
				w.Send(tickEvent{})
			}
		}
	}
}

// windowPresenter uploads the session output with the status bar beneath it.
type windowPresenter struct {
	screen screen.Screen
	window screen.Window
	status func() string
}

func (p *windowPresenter) Present(out *pixbuf.Buffer) error {
	size := image.Pt(out.Width(), out.Height()+StatusHeight)
	b, err := p.screen.NewBuffer(size)
	if err != nil {
		return err
	}
	defer b.Release()
	dst := b.RGBA()
	draw.Draw(dst, out.Bounds(), out.RGBA(), image.Point{}, draw.Src)
	DrawStatus(dst, p.status())
	p.window.Upload(image.Point{}, b, b.Bounds())
	p.window.Publish()
	return nil
}
