// Package imageio loads images into pixel buffers and writes buffers back to
// disk, choosing the codec from the file extension.
package imageio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/image/bmp"

	"github.com/example/easel/internal/pixbuf"
)

// ErrUnsupportedFormat is returned when a save path has an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// IOError reports a file that could not be opened, read or written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

// DecodeError reports image data that is corrupt or in an unknown format.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.Path, e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// Format is an encodable file type.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	BMP  Format = "bmp"
)

// DefaultJPEGQuality is used when Options.JPEGQuality is zero.
const DefaultJPEGQuality = 100

// Options tune encoding.
type Options struct {
	JPEGQuality int
}

// FormatFor maps a path's extension to a Format.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".bmp":
		return BMP, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

// Load decodes the image at path into a new buffer. PNG, JPEG, BMP and GIF
// are recognised by content, not extension.
func Load(path string) (*pixbuf.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	b, err := Decode(bufio.NewReader(f))
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	glog.Infof("loaded %s (%dx%d)", path, b.Width(), b.Height())
	return b, nil
}

// Decode reads any registered image format from r.
func Decode(r io.Reader) (*pixbuf.Buffer, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, &DecodeError{Path: "<stream>", Err: err}
	}
	return pixbuf.FromImage(img), nil
}

// Save encodes img to path in the format named by its extension. The file is
// written in full to a temporary sibling and renamed into place so a failed
// save never truncates an existing image.
func Save(path string, img image.Image, opts Options) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, format, img, opts); err != nil {
		return &IOError{Op: "encode", Path: path, Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &IOError{Op: "rename", Path: path, Err: err}
	}
	glog.Infof("saved %s (%s)", path, format)
	return nil
}

// Encode writes img to w.
func Encode(w io.Writer, format Format, img image.Image, opts Options) error {
	switch format {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		q := opts.JPEGQuality
		if q <= 0 {
			q = DefaultJPEGQuality
		}
		if q > 100 {
			q = 100
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	case BMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
}

// PNGBytes encodes img as PNG in memory.
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
