package external

import (
	"context"
	"fmt"

	"github.com/disintegration/gift"

	"github.com/example/easel/internal/pixbuf"
)

// ResampleUpscaler enlarges with a Lanczos filter. It is the fallback when no
// super-resolution command is configured.
type ResampleUpscaler struct{}

func (ResampleUpscaler) Upscale(ctx context.Context, img *pixbuf.Buffer, factor, tile int) (*pixbuf.Buffer, error) {
	if factor < 1 {
		return nil, fmt.Errorf("upscale factor %d must be positive", factor)
	}
	if img.Empty() {
		return nil, fmt.Errorf("upscale: empty image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g := gift.New(gift.Resize(img.Width()*factor, img.Height()*factor, gift.LanczosResampling))
	b := g.Bounds(img.Bounds())
	out, err := pixbuf.New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	g.Draw(out.RGBA(), img.RGBA())
	return out, nil
}
