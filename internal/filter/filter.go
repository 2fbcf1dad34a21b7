// Package filter implements the whole-image filters. A filter reads a source
// buffer and writes a destination buffer of the same size; the caller then
// promotes the destination to be the new active surface.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/example/easel/internal/pixbuf"
	"github.com/example/easel/internal/tools"
)

var (
	// ErrDimensionMismatch is returned when source and destination differ in size.
	ErrDimensionMismatch = errors.New("filter: source and destination dimensions differ")
	// ErrEmptyBuffer is returned when the source has zero area.
	ErrEmptyBuffer = errors.New("filter: empty buffer")
	// ErrInvalidParameter is shared with tool validation.
	ErrInvalidParameter = tools.ErrInvalidParameter
)

// Filter transforms src into dst. Run checks sizes before calling Apply, so
// implementations may assume dst and src are the same non-empty size.
type Filter interface {
	Name() string
	Apply(dst, src *pixbuf.Buffer) error
}

// validator is implemented by filters with parameters that can be out of range.
type validator interface {
	Validate() error
}

// Request names a filter and the buffers it reads and writes.
type Request struct {
	Filter      Filter
	Source      *pixbuf.Buffer
	Destination *pixbuf.Buffer
}

// Run checks the request and applies the filter. Nothing is written to the
// destination unless every check passes.
func Run(req Request) error {
	if req.Filter == nil {
		return fmt.Errorf("filter: no filter: %w", ErrInvalidParameter)
	}
	if req.Source.Empty() {
		return fmt.Errorf("%s: %w", req.Filter.Name(), ErrEmptyBuffer)
	}
	if !req.Source.SameSize(req.Destination) {
		return fmt.Errorf("%s: %dx%d into %dx%d: %w", req.Filter.Name(),
			req.Source.Width(), req.Source.Height(),
			req.Destination.Width(), req.Destination.Height(), ErrDimensionMismatch)
	}
	if v, ok := req.Filter.(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", req.Filter.Name(), err)
		}
	}
	if glog.V(1) {
		glog.Infof("filter %s on %dx%d", req.Filter.Name(), req.Source.Width(), req.Source.Height())
	}
	return req.Filter.Apply(req.Destination, req.Source)
}

// Engine resolves filter names using the configured defaults.
type Engine struct {
	// BlurKernel is the box blur size used when a name carries no size.
	BlurKernel int
	// Legacy makes "blur" resolve to LegacyBlur.
	Legacy bool
}

// DefaultBlurKernel matches the size the blur menu entry has always used.
const DefaultBlurKernel = 3

// NewEngine returns an engine with the default blur kernel.
func NewEngine() *Engine {
	return &Engine{BlurKernel: DefaultBlurKernel}
}

// Names lists the names Lookup understands.
func Names() []string {
	return []string{"grayscale", "blur", "negative", "gaussian", "sharpen", "legacy-blur"}
}

// Lookup resolves a name such as "grayscale", "blur" or "blur:5" into a Filter.
func (e *Engine) Lookup(spec string) (Filter, error) {
	name, arg, hasArg := strings.Cut(strings.ToLower(strings.TrimSpace(spec)), ":")
	kernel := e.BlurKernel
	if kernel == 0 {
		kernel = DefaultBlurKernel
	}
	badArg := func() error {
		return fmt.Errorf("filter %q: bad argument %q: %w", name, arg, ErrInvalidParameter)
	}
	var num float64
	switch name {
	case "blur", "box-blur", "legacy-blur":
		if hasArg {
			v, err := strconv.Atoi(arg)
			if err != nil {
				return nil, badArg()
			}
			kernel = v
		}
	default:
		if hasArg {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return nil, badArg()
			}
			num = v
		}
	}
	switch name {
	case "grayscale", "greyscale", "gray", "grey":
		return Grayscale{}, nil
	case "blur", "box-blur":
		if e.Legacy {
			return LegacyBlur{Size: kernel}, nil
		}
		return BoxBlur{Size: kernel}, nil
	case "legacy-blur":
		return LegacyBlur{Size: kernel}, nil
	case "negative", "invert":
		return Negative{}, nil
	case "gaussian":
		if !hasArg {
			num = 1.5
		}
		return GaussianBlur{Sigma: float32(num)}, nil
	case "sharpen":
		if !hasArg {
			num = 1
		}
		return Sharpen{Sigma: float32(num), Amount: 1}, nil
	}
	return nil, fmt.Errorf("unknown filter %q", spec)
}
