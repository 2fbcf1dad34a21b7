// Package clipboard moves canvas images to and from the system clipboard as
// PNG data.
package clipboard

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"

	"github.com/example/easel/internal/pixbuf"
)

var (
	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
	// ErrNoImage is returned when the clipboard holds no PNG data.
	ErrNoImage = errors.New("clipboard does not contain image data")
)

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodePNG(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	return png.Decode(bytes.NewReader(data))
}

// Copy publishes b.
func Copy(b *pixbuf.Buffer) error {
	if b.Empty() {
		return errors.New("clipboard: nothing to copy")
	}
	return WriteImage(b.RGBA())
}

// Paste reads the clipboard image into a new buffer.
func Paste() (*pixbuf.Buffer, error) {
	img, err := ReadImage()
	if err != nil {
		return nil, err
	}
	return pixbuf.FromImage(img), nil
}
