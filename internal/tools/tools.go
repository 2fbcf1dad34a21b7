// Package tools holds the editor's tool selection: which tool is active, how
// large it draws and in which color.
package tools

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
)

// ErrInvalidParameter is returned for a tool size or kernel size outside the
// permitted range.
var ErrInvalidParameter = errors.New("invalid parameter")

const (
	MinSize = 1
	MaxSize = 100
)

// Kind enumerates the drawing tools.
type Kind int

const (
	Brush Kind = iota
	Eraser
	Circle
	CircleFill
	Square
	SquareFill
	Line
	Ellipse
	EllipseFill
	Rectangle
	RectangleFill
)

var kindNames = []string{
	Brush:         "brush",
	Eraser:        "eraser",
	Circle:        "circle",
	CircleFill:    "circle-fill",
	Square:        "square",
	SquareFill:    "square-fill",
	Line:          "line",
	Ellipse:       "ellipse",
	EllipseFill:   "ellipse-fill",
	Rectangle:     "rect",
	RectangleFill: "rect-fill",
}

// Kinds returns every tool in menu order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind accepts the names printed by String, case-insensitively, plus a
// few aliases ("rubber", "pencil", "rectangle").
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "rubber":
		return Eraser, nil
	case "pencil", "pen":
		return Brush, nil
	case "rectangle":
		return Rectangle, nil
	case "rectangle-fill":
		return RectangleFill, nil
	}
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", s)
}

// TwoPhase reports whether the tool anchors on press and commits on release.
func (k Kind) TwoPhase() bool {
	switch k {
	case Line, Ellipse, EllipseFill, Rectangle, RectangleFill:
		return true
	}
	return false
}

// Stamp reports whether the tool paints a shape at the live pointer on every
// held frame.
func (k Kind) Stamp() bool {
	switch k {
	case Eraser, Circle, CircleFill, Square, SquareFill:
		return true
	}
	return false
}

// State is the active tool selection. It is owned by the editor session and
// read by the rasterizer every frame.
type State struct {
	Kind  Kind
	Size  int
	Color color.RGBA
}

// Default is the selection a fresh session starts with.
func Default() State {
	return State{Kind: Brush, Size: MinSize, Color: color.RGBA{0, 0, 0, 255}}
}

// SetSize changes the tool size, rejecting values outside MinSize..MaxSize.
func (s *State) SetSize(size int) error {
	if size < MinSize || size > MaxSize {
		return fmt.Errorf("tool size %d outside %d..%d: %w", size, MinSize, MaxSize, ErrInvalidParameter)
	}
	s.Size = size
	return nil
}

// ClampSize sets the size after clamping it into range, as a slider would.
func (s *State) ClampSize(size int) {
	s.Size = Clamp(size)
}

// Clamp limits size to MinSize..MaxSize.
func Clamp(size int) int {
	if size < MinSize {
		return MinSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// Validate reports whether the selection can be rasterized.
func (s State) Validate() error {
	if s.Kind < 0 || int(s.Kind) >= len(kindNames) {
		return fmt.Errorf("tool %v: %w", s.Kind, ErrInvalidParameter)
	}
	if s.Size < MinSize || s.Size > MaxSize {
		return fmt.Errorf("tool size %d: %w", s.Size, ErrInvalidParameter)
	}
	return nil
}
