package filter

import (
	"fmt"

	"github.com/example/easel/internal/pixbuf"
)

// Grayscale replaces R, G and B with their truncated mean, keeping alpha.
type Grayscale struct{}

func (Grayscale) Name() string { return "grayscale" }

func (Grayscale) Apply(dst, src *pixbuf.Buffer) error {
	s, d := src.RGBA().Pix, dst.RGBA().Pix
	for i := 0; i+3 < len(s); i += 4 {
		g := uint8((int(s[i]) + int(s[i+1]) + int(s[i+2])) / 3)
		d[i], d[i+1], d[i+2], d[i+3] = g, g, g, s[i+3]
	}
	return nil
}

// LegacyBlur reproduces the historical blur menu entry: a kernel of the given
// size is validated, but the output is the grayscale image. It exists only
// for bit-exact parity with files produced by older builds.
type LegacyBlur struct {
	Size int
}

func (f LegacyBlur) Name() string { return fmt.Sprintf("legacy-blur:%d", f.Size) }

func (f LegacyBlur) Validate() error { return validKernel(f.Size) }

func (f LegacyBlur) Apply(dst, src *pixbuf.Buffer) error {
	return Grayscale{}.Apply(dst, src)
}
