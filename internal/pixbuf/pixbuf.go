// Package pixbuf holds the off-screen pixel surfaces every other part of the
// editor draws into or reads from.
package pixbuf

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// Format identifies the channel layout of a Buffer.
type Format int

const (
	// RGBA8 stores four 8-bit channels per texel in image.RGBA order.
	RGBA8 Format = iota
)

func (f Format) String() string {
	switch f {
	case RGBA8:
		return "RGBA8"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ErrInvalidSize is returned when a buffer is requested with negative dimensions.
var ErrInvalidSize = errors.New("pixbuf: invalid size")

// Buffer is a width*height grid of texels. The backing store is an
// *image.RGBA anchored at the origin so it can be handed to image/draw and
// codecs without conversion.
type Buffer struct {
	Format Format
	img    *image.RGBA
}

// New allocates a zeroed (transparent black) buffer.
func New(width, height int) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &Buffer{Format: RGBA8, img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

// MustNew is New for sizes known to be valid.
func MustNew(width, height int) *Buffer {
	b, err := New(width, height)
	if err != nil {
		panic(err)
	}
	return b
}

// Filled allocates a buffer and fills it with col.
func Filled(width, height int, col color.RGBA) (*Buffer, error) {
	b, err := New(width, height)
	if err != nil {
		return nil, err
	}
	b.Fill(col)
	return b, nil
}

// FromImage copies src into a new zero-origin buffer.
func FromImage(src image.Image) *Buffer {
	r := src.Bounds()
	b := MustNew(r.Dx(), r.Dy())
	draw.Draw(b.img, b.img.Bounds(), src, r.Min, draw.Src)
	return b
}

// Width in texels. Zero once released.
func (b *Buffer) Width() int {
	if b == nil || b.img == nil {
		return 0
	}
	return b.img.Rect.Dx()
}

// Height in texels. Zero once released.
func (b *Buffer) Height() int {
	if b == nil || b.img == nil {
		return 0
	}
	return b.img.Rect.Dy()
}

// Len returns the number of texels, always Width()*Height().
func (b *Buffer) Len() int {
	if b == nil || b.img == nil {
		return 0
	}
	return len(b.img.Pix) / 4
}

// Bounds returns the buffer rectangle, anchored at (0,0).
func (b *Buffer) Bounds() image.Rectangle {
	if b == nil || b.img == nil {
		return image.Rectangle{}
	}
	return b.img.Rect
}

// Empty reports whether the buffer has zero area.
func (b *Buffer) Empty() bool { return b.Len() == 0 }

// Released reports whether Release has been called.
func (b *Buffer) Released() bool { return b == nil || b.img == nil }

// SameSize reports whether b and o have identical dimensions.
func (b *Buffer) SameSize(o *Buffer) bool {
	return b.Width() == o.Width() && b.Height() == o.Height()
}

// RGBA exposes the backing image. Callers must not retain it past Release.
func (b *Buffer) RGBA() *image.RGBA {
	if b == nil {
		return nil
	}
	return b.img
}

// At returns the texel at (x, y), or transparent black outside the bounds.
func (b *Buffer) At(x, y int) color.RGBA {
	if b.Released() || !image.Pt(x, y).In(b.img.Rect) {
		return color.RGBA{}
	}
	return b.img.RGBAAt(x, y)
}

// Set writes a texel. Writes outside the bounds are dropped.
func (b *Buffer) Set(x, y int, c color.RGBA) {
	if b.Released() || !image.Pt(x, y).In(b.img.Rect) {
		return
	}
	i := b.img.PixOffset(x, y)
	p := b.img.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

// Fill sets every texel to c.
func (b *Buffer) Fill(c color.RGBA) {
	if b.Released() {
		return
	}
	pix := b.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// FillRect fills r, clipped to the buffer bounds.
func (b *Buffer) FillRect(r image.Rectangle, c color.RGBA) {
	if b.Released() {
		return
	}
	r = r.Canon().Intersect(b.img.Rect)
	if r.Empty() {
		return
	}
	draw.Draw(b.img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// Clone returns an independent copy.
func (b *Buffer) Clone() *Buffer {
	if b.Released() {
		return &Buffer{Format: b.Format}
	}
	out := &Buffer{Format: b.Format, img: image.NewRGBA(b.img.Rect)}
	copy(out.img.Pix, b.img.Pix)
	return out
}

// CopyFrom overwrites b with the contents of src. Both must be the same size.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if !b.SameSize(src) {
		return fmt.Errorf("pixbuf: copy %dx%d into %dx%d", src.Width(), src.Height(), b.Width(), b.Height())
	}
	if b.Released() || src.Released() {
		return nil
	}
	copy(b.img.Pix, src.img.Pix)
	return nil
}

// Resize reallocates the store at the new size. Contents are discarded; there
// is no partial resize.
func (b *Buffer) Resize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	b.img = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// Release drops the pixel store. The buffer reports zero area afterwards.
func (b *Buffer) Release() {
	if b == nil {
		return
	}
	b.img = nil
}

// Equal reports whether two buffers have identical size and texels.
func (b *Buffer) Equal(o *Buffer) bool {
	if !b.SameSize(o) {
		return false
	}
	if b.Released() || o.Released() {
		return b.Released() == o.Released()
	}
	if len(b.img.Pix) != len(o.img.Pix) {
		return false
	}
	for i := range b.img.Pix {
		if b.img.Pix[i] != o.img.Pix[i] {
			return false
		}
	}
	return true
}
