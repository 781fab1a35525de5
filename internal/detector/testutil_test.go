package detector

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"inspector/internal/storage"
)

// fakeBackend is an in-memory detector used for tests.
type fakeBackend struct {
	boxes  []Box
	err    error
	delay  time.Duration
	calls  atomic.Int32
	closed bool
	names  map[int]string
	active atomic.Int32
	maxPar atomic.Int32
}

func (f *fakeBackend) Detect(ctx context.Context, img image.Image) ([]Box, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		cur := f.maxPar.Load()
		if n <= cur || f.maxPar.CompareAndSwap(cur, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]Box(nil), f.boxes...), nil
}

func (f *fakeBackend) Close() error { f.closed = true; return nil }

func (f *fakeBackend) ClassNames() map[int]string { return f.names }

// writeJPEG writes a solid w×h JPEG and returns its path.
func writeJPEG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 120, B: 200, A: 255})
		}
	}
	p := filepath.Join(dir, "in.jpg")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return p
}

func testConfig(t *testing.T) Config {
	t.Helper()
	root := t.TempDir()
	paths := storage.New(filepath.Join(root, "uploads"), filepath.Join(root, "results"))
	if err := paths.Ensure(); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	return Config{ModelPath: "model/best.onnx", Backend: BackendONNXRuntime, Storage: paths, Logger: zerolog.Nop()}
}
