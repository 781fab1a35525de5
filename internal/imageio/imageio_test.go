package imageio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestOpen_DropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for i := range src.Pix {
		src.Pix[i] = 0x40
	}
	p := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, p, src)

	img, err := Open(p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("bounds=%v", img.Bounds())
	}
	c := img.NRGBAAt(1, 1)
	if c.A != 0xff || c.R != 0x40 {
		t.Fatalf("pixel=%+v", c)
	}
}

func TestOpen_BMP(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{R: 200, A: 255})
	p := filepath.Join(t.TempDir(), "a.bmp")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := bmp.Encode(f, src); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()
	img, err := Open(p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if img.NRGBAAt(0, 0).R != 200 {
		t.Fatalf("pixel=%+v", img.NRGBAAt(0, 0))
	}
}

func TestOpen_NotAnImage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fake.jpg")
	if err := os.WriteFile(p, []byte("definitely not a jpeg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(p); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestSaveJPEG(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.jpg")
	if err := SaveJPEG(image.NewNRGBA(image.Rect(0, 0, 8, 8)), p); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := Open(p); err != nil {
		t.Fatalf("reopen: %v", err)
	}
}
