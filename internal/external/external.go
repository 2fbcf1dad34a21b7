// Package external defines the collaborators the editor hands whole images
// to: super-resolution, style transfer, anomaly detection and HDR merging.
// The editor only sends a buffer out and takes a buffer back; how the work is
// done is up to the implementation.
package external

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/easel/internal/pixbuf"
)

// ErrNotConfigured is returned by a Command with no template.
var ErrNotConfigured = errors.New("external: command not configured")

// Upscaler enlarges an image by an integer factor. Tile is a hint for
// implementations that process the image in square tiles; zero means whole.
type Upscaler interface {
	Upscale(ctx context.Context, img *pixbuf.Buffer, factor, tile int) (*pixbuf.Buffer, error)
}

// StyleParams tune style transfer.
type StyleParams struct {
	// Ultra-resolution mode processes the content in padded patches.
	UseURST   bool
	Resize    int
	Width     int
	Height    int
	ThumbSize int
	PatchSize int
	Padding   int
	StyleSize int
	// Alpha blends content (0) and stylised (1) features.
	Alpha float32
}

// DefaultStyleParams mirrors the values the desktop build shipped with.
func DefaultStyleParams() StyleParams {
	return StyleParams{
		Resize:    0,
		ThumbSize: 1024,
		PatchSize: 1000,
		Padding:   32,
		StyleSize: 1024,
		Alpha:     1,
	}
}

// StyleTransferer repaints content in the style of another image.
type StyleTransferer interface {
	Transfer(ctx context.Context, content, style *pixbuf.Buffer, params StyleParams) (*pixbuf.Buffer, error)
}

// AnomalyDetector returns a per-pixel anomaly map for img.
type AnomalyDetector interface {
	Detect(ctx context.Context, img *pixbuf.Buffer) (*pixbuf.Buffer, error)
}

// Tonemap selects the operator that compresses merged radiance into 8 bits.
type Tonemap int

const (
	Drago Tonemap = iota
	Reinhard
	Mantiuk
)

func (t Tonemap) String() string {
	switch t {
	case Drago:
		return "drago"
	case Reinhard:
		return "reinhard"
	case Mantiuk:
		return "mantiuk"
	}
	return fmt.Sprintf("Tonemap(%d)", int(t))
}

// ParseTonemap accepts the names printed by String.
func ParseTonemap(s string) (Tonemap, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drago":
		return Drago, nil
	case "reinhard":
		return Reinhard, nil
	case "mantiuk":
		return Mantiuk, nil
	}
	return 0, fmt.Errorf("unknown tonemap %q", s)
}

// HDRMerger merges bracketed exposures into one displayable image.
type HDRMerger interface {
	Merge(ctx context.Context, paths []string, times []float32, tm Tonemap) (*pixbuf.Buffer, error)
}
