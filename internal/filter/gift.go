package filter

import (
	"fmt"

	"github.com/disintegration/gift"

	"github.com/example/easel/internal/pixbuf"
)

// Negative inverts R, G and B.
type Negative struct{}

func (Negative) Name() string { return "negative" }

func (Negative) Apply(dst, src *pixbuf.Buffer) error {
	return drawGift(dst, src, gift.Invert())
}

// GaussianBlur blurs with a gaussian of the given standard deviation.
type GaussianBlur struct {
	Sigma float32
}

func (f GaussianBlur) Name() string { return fmt.Sprintf("gaussian:%g", f.Sigma) }

func (f GaussianBlur) Validate() error {
	if f.Sigma <= 0 || f.Sigma > 50 {
		return fmt.Errorf("sigma %g outside (0, 50]: %w", f.Sigma, ErrInvalidParameter)
	}
	return nil
}

func (f GaussianBlur) Apply(dst, src *pixbuf.Buffer) error {
	return drawGift(dst, src, gift.GaussianBlur(f.Sigma))
}

// Sharpen is an unsharp mask.
type Sharpen struct {
	Sigma, Amount, Threshold float32
}

func (f Sharpen) Name() string { return fmt.Sprintf("sharpen:%g", f.Sigma) }

func (f Sharpen) Validate() error {
	if f.Sigma <= 0 || f.Amount < 0 {
		return fmt.Errorf("sharpen sigma %g amount %g: %w", f.Sigma, f.Amount, ErrInvalidParameter)
	}
	return nil
}

func (f Sharpen) Apply(dst, src *pixbuf.Buffer) error {
	return drawGift(dst, src, gift.UnsharpMask(f.Sigma, f.Amount, f.Threshold))
}

func drawGift(dst, src *pixbuf.Buffer, filters ...gift.Filter) error {
	g := gift.New(filters...)
	if b := g.Bounds(src.Bounds()); b.Dx() != dst.Width() || b.Dy() != dst.Height() {
		return fmt.Errorf("gift output %v: %w", b, ErrDimensionMismatch)
	}
	g.Draw(dst.RGBA(), src.RGBA())
	return nil
}
