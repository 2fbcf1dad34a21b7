// Package canvas owns an editing session: the stack of pixel buffers, the
// tool selection, the background placement and the per-frame pipeline that
// turns input into a composited image.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/golang/glog"

	"github.com/example/easel/internal/filter"
	"github.com/example/easel/internal/geom"
	"github.com/example/easel/internal/imageio"
	"github.com/example/easel/internal/pixbuf"
	"github.com/example/easel/internal/raster"
	"github.com/example/easel/internal/tools"
	"github.com/example/easel/internal/worker"
)

// FrameInterval paces the interactive loop at roughly 60 frames a second.
const FrameInterval = time.Second / 60

const (
	DefaultViewportWidth  = 1024
	DefaultViewportHeight = 768
)

// ErrNoImage is returned by operations that need an active buffer.
var ErrNoImage = errors.New("canvas: no active image")

// Presenter receives the composited output at the end of every frame.
type Presenter interface {
	Present(out *pixbuf.Buffer) error
}

// EventKind classifies session events.
type EventKind string

const (
	EventLoad   EventKind = "load"
	EventSave   EventKind = "save"
	EventFilter EventKind = "filter"
	EventTask   EventKind = "task"
)

// Event describes something the session finished doing.
type Event struct {
	Kind   EventKind
	Detail string
	Err    error
	// Image is the buffer a successful task installed. It belongs to the
	// session and is only valid during the callback.
	Image *pixbuf.Buffer
}

// Options configure a new Session.
type Options struct {
	ViewportWidth, ViewportHeight int
	Workbench                     color.RGBA
	Eraser                        color.RGBA
	Tool                          tools.State
	Filters                       *filter.Engine
	Presenter                     Presenter
	Pool                          *worker.Pool
	Save                          imageio.Options
	// OnEvent, when set, is called from the frame loop goroutine.
	OnEvent func(Event)
}

// Stack is the set of buffers a session draws through.
type Stack struct {
	// Workbench is the viewport-sized neutral background.
	Workbench *pixbuf.Buffer
	// Active receives drawing and filter output. It is canvas-sized.
	Active *pixbuf.Buffer
	// Filter stages filter output before it replaces Active.
	Filter *pixbuf.Buffer
	// Output is the composite handed to the presenter.
	Output *pixbuf.Buffer
}

// Release drops every buffer in the stack.
func (st *Stack) Release() {
	st.Workbench.Release()
	st.Active.Release()
	st.Filter.Release()
	st.Output.Release()
}

// Session is a single editing session. It is not safe for concurrent use;
// the frame loop owns it.
type Session struct {
	Stack
	Tool      tools.State
	Placement geom.Placement
	Stroke    raster.Stroke

	opts       Options
	loaded     bool
	pan        geom.Pan
	rasterizer *raster.Rasterizer
	input      Input
	stages     []Stage
	frames     uint64
}

// New builds a session with a white viewport-sized canvas and no image.
func New(opts Options) (*Session, error) {
	if opts.ViewportWidth == 0 {
		opts.ViewportWidth = DefaultViewportWidth
	}
	if opts.ViewportHeight == 0 {
		opts.ViewportHeight = DefaultViewportHeight
	}
	if opts.Workbench == (color.RGBA{}) {
		opts.Workbench = WorkbenchGray
	}
	if opts.Eraser == (color.RGBA{}) {
		opts.Eraser = raster.DefaultEraser
	}
	if opts.Tool == (tools.State{}) {
		opts.Tool = tools.Default()
	}
	if err := opts.Tool.Validate(); err != nil {
		return nil, err
	}
	if opts.Filters == nil {
		opts.Filters = filter.NewEngine()
	}
	w, h := opts.ViewportWidth, opts.ViewportHeight
	wb, err := pixbuf.Filled(w, h, opts.Workbench)
	if err != nil {
		return nil, fmt.Errorf("workbench: %w", err)
	}
	active, _ := pixbuf.Filled(w, h, color.RGBA{255, 255, 255, 255})
	s := &Session{
		Stack: Stack{
			Workbench: wb,
			Active:    active,
			Filter:    pixbuf.MustNew(w, h),
			Output:    pixbuf.MustNew(w, h),
		},
		Tool:       opts.Tool,
		opts:       opts,
		rasterizer: raster.New(opts.Eraser),
	}
	s.stages = DefaultStages()
	return s, nil
}

// Options returns the options the session was built with.
func (s *Session) Options() Options { return s.opts }

// Loaded reports whether an image has been loaded.
func (s *Session) Loaded() bool { return s.loaded }

// Frames reports how many frames have run.
func (s *Session) Frames() uint64 { return s.frames }

// SetPresenter replaces the presenter.
func (s *Session) SetPresenter(p Presenter) { s.opts.Presenter = p }

// SetEraser changes the eraser color.
func (s *Session) SetEraser(c color.RGBA) { s.rasterizer.Eraser = c }

// SetWorkbench changes the neutral fill color.
func (s *Session) SetWorkbench(c color.RGBA) { s.opts.Workbench = c }

// SetFilterEngine swaps the filter name resolver.
func (s *Session) SetFilterEngine(e *filter.Engine) {
	if e != nil {
		s.opts.Filters = e
	}
}

// SetSaveOptions changes how Save encodes.
func (s *Session) SetSaveOptions(o imageio.Options) { s.opts.Save = o }

// Filters returns the filter name resolver.
func (s *Session) Filters() *filter.Engine { return s.opts.Filters }

// SetInput sets the input the next frame consumes.
func (s *Session) SetInput(in Input) { s.input = in }

// ResizeViewport reallocates the viewport-sized buffers.
func (s *Session) ResizeViewport(w, h int) error {
	if w == s.Workbench.Width() && h == s.Workbench.Height() {
		return nil
	}
	if err := s.Workbench.Resize(w, h); err != nil {
		return err
	}
	if err := s.Output.Resize(w, h); err != nil {
		return err
	}
	s.opts.ViewportWidth, s.opts.ViewportHeight = w, h
	return nil
}

// LoadImage installs img as the new canvas. The previous buffers are released
// first; img becomes the active surface and the placement resets to the
// origin at img's native size.
func (s *Session) LoadImage(img *pixbuf.Buffer) error {
	if img.Empty() {
		return fmt.Errorf("load: %w", filter.ErrEmptyBuffer)
	}
	w, h := img.Width(), img.Height()
	staging, err := pixbuf.New(w, h)
	if err != nil {
		return err
	}
	vw, vh := s.Workbench.Width(), s.Workbench.Height()
	if s.Active == img {
		s.Active = nil
	}
	s.Stack.Release()
	s.Stack = Stack{
		Workbench: pixbuf.MustNew(vw, vh),
		Active:    img,
		Filter:    staging,
		Output:    pixbuf.MustNew(vw, vh),
	}
	s.Placement = geom.NewPlacement(w, h)
	s.pan.End()
	s.Stroke.Clear()
	s.loaded = true
	return nil
}

// LoadFile decodes path and installs it. On failure the session is untouched.
func (s *Session) LoadFile(path string) error {
	img, err := imageio.Load(path)
	if err != nil {
		s.emit(Event{Kind: EventLoad, Detail: path, Err: err})
		return err
	}
	if err := s.LoadImage(img); err != nil {
		return err
	}
	s.emit(Event{Kind: EventLoad, Detail: path})
	return nil
}

// Save writes the active canvas to path.
func (s *Session) Save(path string) error {
	if s.Active.Empty() {
		return ErrNoImage
	}
	err := imageio.Save(path, s.Active.RGBA(), s.opts.Save)
	s.emit(Event{Kind: EventSave, Detail: path, Err: err})
	return err
}

// ApplyFilter runs f from the active buffer into the staging buffer, then
// promotes the staging buffer and retires the old active one.
func (s *Session) ApplyFilter(f filter.Filter) error {
	if f == nil {
		return fmt.Errorf("canvas: nil filter: %w", filter.ErrInvalidParameter)
	}
	src := s.Active
	if src.Empty() {
		return fmt.Errorf("%s: %w", f.Name(), filter.ErrEmptyBuffer)
	}
	if !s.Filter.SameSize(src) {
		s.Filter.Release()
		s.Filter = pixbuf.MustNew(src.Width(), src.Height())
	}
	if err := filter.Run(filter.Request{Filter: f, Source: src, Destination: s.Filter}); err != nil {
		s.emit(Event{Kind: EventFilter, Detail: f.Name(), Err: err})
		return err
	}
	s.Active = s.Filter
	src.Release()
	s.Filter = pixbuf.MustNew(s.Active.Width(), s.Active.Height())
	glog.Infof("applied %s", f.Name())
	s.emit(Event{Kind: EventFilter, Detail: f.Name()})
	return nil
}

// ApplyFilterByName resolves name through the session's filter engine.
func (s *Session) ApplyFilterByName(name string) error {
	f, err := s.opts.Filters.Lookup(name)
	if err != nil {
		return err
	}
	return s.ApplyFilter(f)
}

// Snapshot returns a copy of the active canvas.
func (s *Session) Snapshot() *pixbuf.Buffer { return s.Active.Clone() }

// Submit hands fn to the worker pool. Its result replaces the canvas when a
// later frame polls it in.
func (s *Session) Submit(kind string, fn worker.Func) (uint64, error) {
	if s.opts.Pool == nil {
		return 0, errors.New("canvas: no worker pool")
	}
	return s.opts.Pool.Submit(kind, fn)
}

// Cancel drops a submitted task.
func (s *Session) Cancel(id uint64) {
	if s.opts.Pool != nil {
		s.opts.Pool.Cancel(id)
	}
}

// WaitTask blocks until the next task result is installed. It is for
// headless callers without a frame loop.
func (s *Session) WaitTask(ctx context.Context) error {
	if s.opts.Pool == nil {
		return errors.New("canvas: no worker pool")
	}
	r, err := s.opts.Pool.Wait(ctx)
	if err != nil {
		return err
	}
	return s.install(r)
}

func (s *Session) install(r worker.Result) error {
	if r.Err != nil {
		glog.Errorf("%s task #%d: %v", r.Kind, r.ID, r.Err)
		s.emit(Event{Kind: EventTask, Detail: r.Kind, Err: r.Err})
		return fmt.Errorf("%s: %w", r.Kind, r.Err)
	}
	if err := s.LoadImage(r.Buffer); err != nil {
		return err
	}
	glog.Infof("%s task #%d installed (%dx%d)", r.Kind, r.ID, r.Buffer.Width(), r.Buffer.Height())
	s.emit(Event{Kind: EventTask, Detail: r.Kind, Image: r.Buffer})
	return nil
}

func (s *Session) emit(e Event) {
	if s.opts.OnEvent != nil {
		s.opts.OnEvent(e)
	}
}

// Close releases every buffer. The worker pool belongs to the caller.
func (s *Session) Close() {
	s.Stack.Release()
}
