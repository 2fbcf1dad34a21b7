//go:build !(linux || freebsd || openbsd || netbsd || dragonfly) || !cgo

package clipboard

import (
	"errors"
	"image"
)

var errUnsupported = errors.New("clipboard image operations need cgo on a desktop platform")

func WriteImage(image.Image) error {
	return errUnsupported
}

func ReadImage() (image.Image, error) {
	return nil, errUnsupported
}
