package ui

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// StatusHeight is the height of the bar drawn under the canvas.
const StatusHeight = 20

var (
	statusBackground = color.RGBA{230, 230, 230, 255}
	statusRule       = color.RGBA{160, 160, 160, 255}
)

// DrawStatus paints text into the bottom StatusHeight rows of dst.
func DrawStatus(dst draw.Image, text string) {
	b := dst.Bounds()
	bar := image.Rect(b.Min.X, b.Max.Y-StatusHeight, b.Max.X, b.Max.Y).Intersect(b)
	if bar.Empty() {
		return
	}
	draw.Draw(dst, bar, &image.Uniform{statusBackground}, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(bar.Min.X, bar.Min.Y, bar.Max.X, bar.Min.Y+1), &image.Uniform{statusRule}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()
	d := &font.Drawer{Dst: dst, Src: image.Black, Face: face,
		Dot: fixed.P(bar.Min.X+6, bar.Min.Y+(StatusHeight-face.Height)/2+ascent)}
	d.DrawString(text)
}
