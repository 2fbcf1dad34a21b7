package canvas

import (
	"fmt"
	"image"

	"github.com/golang/glog"

	"github.com/example/easel/internal/geom"
)

// Stage is one step of the frame pipeline.
type Stage struct {
	Name string
	Run  func(*Session) error
}

// DefaultStages is the fixed frame order: install finished tasks, clear the
// workbench, apply input, composite, present.
func DefaultStages() []Stage {
	return []Stage{
		{"poll-tasks", pollTasks},
		{"clear-workbench", clearWorkbench},
		{"apply-input", applyInput},
		{"composite", composite},
		{"present", present},
	}
}

// Stages returns the session's pipeline.
func (s *Session) Stages() []Stage { return s.stages }

// Frame runs every stage once, in order, against the input set by SetInput.
// The input is consumed: a frame with no new SetInput sees an idle pointer
// at the last position.
func (s *Session) Frame() error {
	s.frames++
	for _, st := range s.stages {
		if err := st.Run(s); err != nil {
			return fmt.Errorf("frame %d %s: %w", s.frames, st.Name, err)
		}
	}
	s.input = Input{Pointer: s.input.Pointer}
	return nil
}

func pollTasks(s *Session) error {
	if s.opts.Pool == nil {
		return nil
	}
	for _, r := range s.opts.Pool.Poll() {
		// A failed task is reported, not fatal to the frame.
		_ = s.install(r)
	}
	return nil
}

func clearWorkbench(s *Session) error {
	s.Workbench.Fill(s.opts.Workbench)
	return nil
}

// CanvasPoint maps a screen position into the active buffer.
func (s *Session) CanvasPoint(screen image.Point) image.Point {
	return geom.ScreenToCanvas(screen, s.Placement)
}

func applyInput(s *Session) error {
	in := s.input
	if s.loaded {
		if in.Nudge.X != 0 || in.Nudge.Y != 0 {
			s.Placement.Nudge(in.Nudge.X, in.Nudge.Y)
		}
		switch in.Buttons[Middle] {
		case Down:
			s.pan.Begin(in.Pointer, s.Placement)
		case Repeat:
			s.pan.Drag(in.Pointer, &s.Placement)
		case Up:
			s.pan.End()
		}
	}
	p := geom.ScreenToCanvas(in.Pointer, s.Placement)
	if phase, ok := in.Buttons[Left].phase(); ok {
		if glog.V(2) {
			glog.Infof("frame %d: %v %v at %v", s.frames, s.Tool.Kind, phase, p)
		}
		s.rasterizer.Apply(s.Active, s.Tool, &s.Stroke, phase, p)
	}
	if in.Buttons[Right].Held() {
		s.rasterizer.Erase(s.Active, s.Tool.Size, p)
	}
	return nil
}

func composite(s *Session) error {
	var pl *geom.Placement
	if s.loaded {
		pl = &s.Placement
	}
	Composite(s.Output, s.Workbench, s.Active, pl)
	if s.Stroke.Active() && s.Tool.Kind.TwoPhase() {
		off := s.Placement.Offset()
		if pl != nil && (pl.Width != s.Active.Width() || pl.Height != s.Active.Height()) {
			return nil
		}
		s.rasterizer.Preview(s.Output, s.Tool, &s.Stroke, off)
	}
	return nil
}

func present(s *Session) error {
	if s.opts.Presenter == nil {
		return nil
	}
	return s.opts.Presenter.Present(s.Output)
}
