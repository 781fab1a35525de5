package detector

import (
	"context"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"inspector/pkg/types"
)

func TestInfer_NoDetectionsWritesNoResult(t *testing.T) {
	cfg := testConfig(t)
	fb := &fakeBackend{}
	h := New(fb, BackendONNXRuntime, COCOClassNames(), cfg)
	img := writeJPEG(t, t.TempDir(), 10, 10)

	res, err := h.Infer(context.Background(), img)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if res.Count != 0 || len(res.Detections) != 0 || res.ResultPath != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	entries, _ := os.ReadDir(cfg.Storage.Results)
	if len(entries) != 0 {
		t.Fatalf("results dir should be empty, has %d files", len(entries))
	}
}

func TestInfer_MapsAndAnnotates(t *testing.T) {
	cfg := testConfig(t)
	fb := &fakeBackend{boxes: []Box{
		{X1: 30, Y1: 40, X2: 10, Y2: 5, Score: 0.4, ClassID: 1},  // reversed corners
		{X1: -5, Y1: 2, X2: 500, Y2: 20, Score: 1.3, ClassID: 7}, // out of range
		{X1: 1, Y1: 1, X2: 2, Y2: 2, Score: float32(math.NaN()), ClassID: 0},
	}}
	h := New(fb, BackendONNXRuntime, map[int]string{0: "person", 1: "helmet"}, cfg)
	img := writeJPEG(t, t.TempDir(), 64, 48)

	res, err := h.Infer(context.Background(), img)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	want := []types.Detection{
		{BBox: [4]float64{0, 2, 64, 20}, Confidence: 1, ClassID: 7, ClassName: "class_7"},
		{BBox: [4]float64{10, 5, 30, 40}, Confidence: float64(float32(0.4)), ClassID: 1, ClassName: "helmet"},
		{BBox: [4]float64{1, 1, 2, 2}, Confidence: 0, ClassID: 0, ClassName: "person"},
	}
	if diff := cmp.Diff(want, res.Detections); diff != "" {
		t.Fatalf("detections mismatch (-want +got):\n%s", diff)
	}
	if res.Count != len(res.Detections) {
		t.Fatalf("count=%d len=%d", res.Count, len(res.Detections))
	}
	for _, d := range res.Detections {
		if d.Confidence < 0 || d.Confidence > 1 || d.BBox[0] > d.BBox[2] || d.BBox[1] > d.BBox[3] {
			t.Fatalf("invariant violated: %+v", d)
		}
	}
	if res.ResultPath == "" {
		t.Fatalf("expected result image")
	}
	if filepath.Dir(res.ResultPath) != cfg.Storage.Results || !strings.HasPrefix(filepath.Base(res.ResultPath), "result_") {
		t.Fatalf("unexpected result path %q", res.ResultPath)
	}
	if _, err := os.Stat(res.ResultPath); err != nil {
		t.Fatalf("result image missing: %v", err)
	}
}

func TestInfer_BackendError(t *testing.T) {
	h := New(&fakeBackend{err: errors.New("cuda exploded")}, BackendONNXRuntime, nil, testConfig(t))
	_, err := h.Infer(context.Background(), writeJPEG(t, t.TempDir(), 8, 8))
	if err == nil || !strings.Contains(err.Error(), "cuda exploded") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestInfer_UndecodableImage(t *testing.T) {
	fb := &fakeBackend{}
	h := New(fb, BackendONNXRuntime, nil, testConfig(t))
	p := filepath.Join(t.TempDir(), "x.png")
	_ = os.WriteFile(p, []byte("nope"), 0o644)
	if _, err := h.Infer(context.Background(), p); err == nil {
		t.Fatalf("expected decode error")
	}
	if fb.calls.Load() != 0 {
		t.Fatalf("backend should not be called for undecodable input")
	}
}

func TestInfer_Timeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.InferTimeout = 10 * time.Millisecond
	h := New(&fakeBackend{delay: 200 * time.Millisecond}, BackendONNXRuntime, nil, cfg)
	_, err := h.Infer(context.Background(), writeJPEG(t, t.TempDir(), 8, 8))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestInfer_SerializesBackend(t *testing.T) {
	fb := &fakeBackend{delay: 5 * time.Millisecond}
	h := New(fb, BackendONNXRuntime, nil, testConfig(t))
	img := writeJPEG(t, t.TempDir(), 8, 8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.Infer(context.Background(), img); err != nil {
				t.Errorf("infer: %v", err)
			}
		}()
	}
	wg.Wait()
	if fb.maxPar.Load() != 1 {
		t.Fatalf("backend ran %d calls concurrently", fb.maxPar.Load())
	}
	if fb.calls.Load() != 8 {
		t.Fatalf("calls=%d", fb.calls.Load())
	}
}

func TestUnloaded(t *testing.T) {
	cause := ErrModelFileMissing("model/best.onnx")
	h := Unloaded(testConfig(t), cause)
	if h.Ready() {
		t.Fatalf("unloaded handle reports ready")
	}
	if !errors.Is(h.LoadError(), cause) {
		t.Fatalf("load error=%v", h.LoadError())
	}
	if _, err := h.Infer(context.Background(), "whatever.jpg"); !IsModelNotLoaded(err) {
		t.Fatalf("expected not loaded, got %v", err)
	}
	if _, err := h.InferImage(context.Background(), image.NewNRGBA(image.Rect(0, 0, 4, 4))); !IsModelNotLoaded(err) {
		t.Fatalf("expected not loaded, got %v", err)
	}
	if _, err := h.Info(); !IsModelNotLoaded(err) {
		t.Fatalf("expected not loaded, got %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestInfo(t *testing.T) {
	cfg := testConfig(t)
	h := New(&fakeBackend{}, BackendOpenCV, map[int]string{0: "stamp"}, cfg)
	info, err := h.Info()
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	want := types.ModelInfoResponse{ModelLoaded: true, ModelPath: "model/best.onnx", Classes: map[int]string{0: "stamp"}, ModelType: "opencv"}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	// returned table is a copy
	info.Classes[0] = "changed"
	again, _ := h.Info()
	if again.Classes[0] != "stamp" {
		t.Fatalf("class table mutated through Info")
	}
}

func TestClose(t *testing.T) {
	fb := &fakeBackend{}
	h := New(fb, BackendONNXRuntime, nil, testConfig(t))
	if err := h.Close(); err != nil || !fb.closed {
		t.Fatalf("close err=%v closed=%v", err, fb.closed)
	}
}

func TestLoad_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.ModelPath = filepath.Join(t.TempDir(), "missing.onnx")
	if _, err := Load(cfg); !IsModelFileMissing(err) {
		t.Fatalf("expected missing model error, got %v", err)
	}

	weights := filepath.Join(t.TempDir(), "best.onnx")
	if err := os.WriteFile(weights, []byte("not really onnx"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg.ModelPath = weights
	cfg.Backend = "tensorflow"
	if _, err := Load(cfg); err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}

	cfg.Backend = BackendOpenCV
	cfg.ClassesPath = filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := Load(cfg); err == nil {
		t.Fatalf("expected classes file error")
	}
}

func TestLoad_StubBackendUnavailable(t *testing.T) {
	if BackendBuilt(BackendONNXRuntime) {
		t.Skip("onnxruntime compiled in")
	}
	cfg := testConfig(t)
	weights := filepath.Join(t.TempDir(), "best.onnx")
	_ = os.WriteFile(weights, []byte("x"), 0o644)
	cfg.ModelPath = weights
	if _, err := Load(cfg); !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
}

func TestInferImage_UsesDecodedImage(t *testing.T) {
	cfg := testConfig(t)
	fb := &fakeBackend{boxes: []Box{{X1: 2, Y1: 2, X2: 10, Y2: 8, Score: 0.9, ClassID: 0}}}
	h := New(fb, BackendONNXRuntime, map[int]string{0: "scratch"}, cfg)

	res, err := h.InferImage(context.Background(), image.NewNRGBA(image.Rect(0, 0, 16, 12)))
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	want := []types.Detection{{BBox: [4]float64{2, 2, 10, 8}, Confidence: float64(float32(0.9)), ClassID: 0, ClassName: "scratch"}}
	if diff := cmp.Diff(want, res.Detections); diff != "" {
		t.Fatalf("detections mismatch (-want +got):\n%s", diff)
	}
	if res.ResultPath == "" {
		t.Fatalf("expected a result image")
	}
	if _, err := os.Stat(res.ResultPath); err != nil {
		t.Fatalf("result image: %v", err)
	}
}
