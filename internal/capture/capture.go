// Package capture grabs the desktop as a new canvas image. The XDG desktop
// portal is tried first; on X11 sessions the root window is read directly
// when the portal is unavailable.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/example/easel/internal/pixbuf"
)

// Options tune a screenshot.
type Options struct {
	// Interactive lets the portal ask the user for a region.
	Interactive   bool
	IncludeCursor bool
	// Monitor crops the result to one monitor; see FindMonitor.
	Monitor string
	// Region crops the result to a rectangle in global screen coordinates.
	Region image.Rectangle
}

// MonitorInfo describes an individual monitor in the display layout.
type MonitorInfo struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	Primary bool
}

var errNoMonitors = errors.New("no monitors available")

// backend functions are replaced in tests.
var (
	portalShot   = portalScreenshot
	rootShot     = rootScreenshot
	listMonitors = fetchMonitors
)

// ListMonitors reports the connected monitors.
func ListMonitors() ([]MonitorInfo, error) {
	return listMonitors()
}

// Screen captures the desktop and applies the crop in opts.
func Screen(opts Options) (*pixbuf.Buffer, error) {
	img, err := portalShot(opts)
	if err != nil {
		if opts.Interactive {
			return nil, err
		}
		glog.V(1).Infof("portal screenshot failed, reading X11 root: %v", err)
		var xerr error
		img, xerr = rootShot()
		if xerr != nil {
			return nil, fmt.Errorf("screenshot: %v; X11 fallback: %w", err, xerr)
		}
	}
	if opts.Monitor != "" {
		monitors, err := ListMonitors()
		if err != nil {
			return nil, err
		}
		mon, err := FindMonitor(monitors, opts.Monitor)
		if err != nil {
			return nil, err
		}
		if img, err = cropToRect(img, mon.Rect); err != nil {
			return nil, err
		}
	}
	if !opts.Region.Empty() {
		if img, err = cropToRect(img, opts.Region); err != nil {
			return nil, err
		}
	}
	return pixbuf.FromImage(img), nil
}

// FindMonitor resolves a selector: "primary", an index ("1" or "#1"), or a
// substring of the output name.
func FindMonitor(monitors []MonitorInfo, selector string) (MonitorInfo, error) {
	if len(monitors) == 0 {
		return MonitorInfo{}, errNoMonitors
	}
	lower := strings.ToLower(strings.TrimSpace(selector))
	if lower == "" {
		return monitors[0], nil
	}
	if lower == "primary" {
		for _, mon := range monitors {
			if mon.Primary {
				return mon, nil
			}
		}
		return monitors[0], nil
	}
	if idx, err := strconv.Atoi(strings.TrimPrefix(lower, "#")); err == nil {
		if idx < 0 || idx >= len(monitors) {
			return MonitorInfo{}, fmt.Errorf("monitor index %d out of range", idx)
		}
		return monitors[idx], nil
	}
	for _, mon := range monitors {
		if strings.Contains(strings.ToLower(mon.Name), lower) {
			return mon, nil
		}
	}
	return MonitorInfo{}, fmt.Errorf("monitor %q not found", selector)
}

func cropToRect(src *image.RGBA, rect image.Rectangle) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("requested region outside captured image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}
