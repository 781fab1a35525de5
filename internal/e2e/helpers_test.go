package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"inspector/internal/detector"
	"inspector/internal/httpapi"
	"inspector/internal/storage"
)

// scriptedBackend returns the same boxes for every image and records how many
// calls overlapped.
type scriptedBackend struct {
	boxes  []detector.Box
	delay  time.Duration
	calls  atomic.Int32
	active atomic.Int32
	maxPar atomic.Int32
}

func (b *scriptedBackend) Detect(ctx context.Context, img image.Image) ([]detector.Box, error) {
	b.calls.Add(1)
	n := b.active.Add(1)
	defer b.active.Add(-1)
	for {
		cur := b.maxPar.Load()
		if n <= cur || b.maxPar.CompareAndSwap(cur, n) {
			break
		}
	}
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return append([]detector.Box(nil), b.boxes...), nil
}

// newServer wires a real detector.Handle around backend behind the real router.
// A nil backend yields a handle in degraded mode.
func newServer(t *testing.T, backend detector.Backend) (*httptest.Server, storage.Paths) {
	t.Helper()
	root := t.TempDir()
	paths := storage.New(filepath.Join(root, "uploads"), filepath.Join(root, "results"))
	if err := paths.Ensure(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	cfg := detector.Config{
		ModelPath:     "model/best.onnx",
		Backend:       detector.BackendONNXRuntime,
		InputSize:     640,
		ConfThreshold: 0.25,
		IOUThreshold:  0.45,
		Storage:       paths,
	}
	var h *detector.Handle
	if backend == nil {
		h = detector.Unloaded(cfg, detector.ErrModelFileMissing(cfg.ModelPath))
	} else {
		h = detector.New(backend, detector.BackendONNXRuntime, map[int]string{0: "scratch", 1: "dent"}, cfg)
	}
	srv := httptest.NewServer(httpapi.NewMux(h, paths))
	t.Cleanup(func() {
		srv.Close()
		_ = h.Close()
	})
	return srv, paths
}

func solidJPEG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpUpload(t *testing.T, url, filename string, data []byte) (*http.Response, []byte) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(data)
	_ = mw.Close()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url+"/upload", &body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	out, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, out
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("json: %v body=%s", err, body)
	}
	return v
}
