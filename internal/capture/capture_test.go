package capture

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/jezek/xgb/xproto"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func swapBackend(t *testing.T, portal func(Options) (*image.RGBA, error), root func() (*image.RGBA, error), monitors func() ([]MonitorInfo, error)) {
	t.Helper()
	prevPortal, prevRoot, prevMonitors := portalShot, rootShot, listMonitors
	t.Cleanup(func() { portalShot, rootShot, listMonitors = prevPortal, prevRoot, prevMonitors })
	portalShot, rootShot, listMonitors = portal, root, monitors
}

func TestScreenFallsBackToX11(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	swapBackend(t,
		func(Options) (*image.RGBA, error) { return nil, errors.New("no portal") },
		func() (*image.RGBA, error) { return solid(8, 6, red), nil },
		nil,
	)
	b, err := Screen(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if b.Width() != 8 || b.Height() != 6 || b.At(3, 3) != red {
		t.Fatalf("got %dx%d %v", b.Width(), b.Height(), b.At(3, 3))
	}
}

func TestInteractiveDoesNotFallBack(t *testing.T) {
	portalErr := errors.New("cancelled")
	swapBackend(t,
		func(Options) (*image.RGBA, error) { return nil, portalErr },
		func() (*image.RGBA, error) { t.Fatal("root read during interactive capture"); return nil, nil },
		nil,
	)
	if _, err := Screen(Options{Interactive: true}); !errors.Is(err, portalErr) {
		t.Fatalf("err = %v", err)
	}
}

func TestScreenCropsToMonitorAndRegion(t *testing.T) {
	shot := solid(200, 100, color.RGBA{0, 0, 0, 255})
	shot.Set(150, 40, color.RGBA{0, 255, 0, 255})
	swapBackend(t,
		func(Options) (*image.RGBA, error) { return shot, nil },
		nil,
		func() ([]MonitorInfo, error) {
			return []MonitorInfo{
				{Index: 0, Name: "DP-1", Rect: image.Rect(0, 0, 100, 100)},
				{Index: 1, Name: "HDMI-1", Rect: image.Rect(100, 0, 200, 100), Primary: true},
			}, nil
		},
	)
	b, err := Screen(Options{Monitor: "primary", Region: image.Rect(40, 30, 60, 50)})
	if err != nil {
		t.Fatal(err)
	}
	if b.Width() != 20 || b.Height() != 20 {
		t.Fatalf("size %dx%d", b.Width(), b.Height())
	}
	if got := b.At(10, 10); got != (color.RGBA{0, 255, 0, 255}) {
		t.Fatalf("marker at %v", got)
	}
}

func TestFindMonitor(t *testing.T) {
	monitors := []MonitorInfo{
		{Index: 0, Name: "eDP-1"},
		{Index: 1, Name: "HDMI-A-0", Primary: true},
	}
	cases := []struct {
		sel     string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"primary", 1, false},
		{"1", 1, false},
		{"#0", 0, false},
		{"hdmi", 1, false},
		{"2", 0, true},
		{"vga", 0, true},
	}
	for _, tc := range cases {
		got, err := FindMonitor(monitors, tc.sel)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.sel)
			}
			continue
		}
		if err != nil || got.Index != tc.want {
			t.Errorf("%q: got %d, %v", tc.sel, got.Index, err)
		}
	}
	if _, err := FindMonitor(nil, ""); !errors.Is(err, errNoMonitors) {
		t.Errorf("empty list: %v", err)
	}
}

func TestCropOutside(t *testing.T) {
	if _, err := cropToRect(solid(4, 4, color.RGBA{}), image.Rect(10, 10, 20, 20)); err == nil {
		t.Fatal("crop outside image succeeded")
	}
}

func TestXImageToRGBA(t *testing.T) {
	formats := []xproto.Format{{Depth: 24, BitsPerPixel: 32, ScanlinePad: 32}}
	// 2x1 BGRX pixels.
	data := []byte{0x30, 0x20, 0x10, 0x00, 0x03, 0x02, 0x01, 0x00}
	img, err := xImageToRGBA(formats, 24, data, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0x10, 0x20, 0x30, 0xFF}) {
		t.Errorf("pixel 0 = %v", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{0x01, 0x02, 0x03, 0xFF}) {
		t.Errorf("pixel 1 = %v", got)
	}
	if _, err := xImageToRGBA(formats, 16, data, 2, 1); err == nil {
		t.Error("unknown depth accepted")
	}
	if _, err := xImageToRGBA(formats, 24, data[:6], 2, 1); err == nil {
		t.Error("short data accepted")
	}
}
