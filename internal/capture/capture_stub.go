//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import (
	"errors"
	"image"
)

var errUnsupported = errors.New("screen capture is not supported on this platform")

func portalScreenshot(Options) (*image.RGBA, error) { return nil, errUnsupported }

func rootScreenshot() (*image.RGBA, error) { return nil, errUnsupported }

func fetchMonitors() ([]MonitorInfo, error) { return nil, errUnsupported }
