package imageio

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/easel/internal/pixbuf"
)

func sample() *pixbuf.Buffer {
	b := pixbuf.MustNew(6, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			b.Set(x, y, color.RGBA{uint8(x * 40), uint8(y * 60), 90, 255})
		}
	}
	return b
}

func TestSaveLoadLossless(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.bmp", "C.PNG"} {
		path := filepath.Join(dir, name)
		src := sample()
		if err := Save(path, src.RGBA(), Options{}); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load %s: %v", name, err)
		}
		if !got.Equal(src) {
			t.Fatalf("%s round trip changed pixels", name)
		}
	}
}

func TestSaveJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jpg")
	if err := Save(path, sample().RGBA(), Options{JPEGQuality: 90}); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Width() != 6 || got.Height() != 4 {
		t.Fatalf("jpeg size %dx%d", got.Width(), got.Height())
	}
}

func TestSaveUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tiff")
	if err := Save(path, sample().RGBA(), Options{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("file written for unsupported format")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.png"))
	var ioe *IOError
	if !errors.As(err, &ioe) {
		t.Fatalf("err = %v, want *IOError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("IOError does not unwrap to ErrNotExist: %v", err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(path, []byte("definitely not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
	if de.Path != path {
		t.Fatalf("DecodeError path = %q", de.Path)
	}
}

func TestSaveFailureKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.png")
	if err := Save(path, sample().RGBA(), Options{}); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(path)
	if err := Save(filepath.Join(dir, "missing", "x.png"), sample().RGBA(), Options{}); err == nil {
		t.Fatal("save into missing directory succeeded")
	}
	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Fatal("existing file changed")
	}
}
