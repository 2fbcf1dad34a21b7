package canvas

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/example/easel/internal/geom"
	"github.com/example/easel/internal/pixbuf"
)

// WorkbenchGray is the neutral fill behind the canvas.
var WorkbenchGray = color.RGBA{175, 175, 175, 255}

// Composite copies workbench into out and places active on top. With no
// placement the active buffer is drawn at the origin at its own size;
// otherwise it fills the placement rectangle, scaled when the sizes differ.
// Drawing is a straight overwrite.
func Composite(out, workbench, active *pixbuf.Buffer, pl *geom.Placement) {
	if out.Released() {
		return
	}
	dst := out.RGBA()
	if workbench.SameSize(out) {
		copy(dst.Pix, workbench.RGBA().Pix)
	} else {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(WorkbenchGray), image.Point{}, draw.Src)
		if !workbench.Released() {
			draw.Draw(dst, workbench.Bounds(), workbench.RGBA(), image.Point{}, draw.Src)
		}
	}
	if active.Empty() {
		return
	}
	src := active.RGBA()
	if pl == nil {
		draw.Draw(dst, src.Bounds(), src, image.Point{}, draw.Src)
		return
	}
	r := pl.Rect()
	if r.Dx() == src.Rect.Dx() && r.Dy() == src.Rect.Dy() {
		draw.Draw(dst, r, src, image.Point{}, draw.Src)
		return
	}
	if r.Empty() {
		return
	}
	xdraw.ApproxBiLinear.Scale(dst, r, src, src.Bounds(), xdraw.Src, nil)
}
