package detector

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inspector/internal/common/fsutil"
	"inspector/internal/imageio"
	"inspector/internal/render"
	"inspector/internal/storage"
	"inspector/pkg/types"
)

// Config describes how to load the model handle.
type Config struct {
	ModelPath     string
	ClassesPath   string
	Backend       string
	LibraryPath   string
	InputSize     int
	ConfThreshold float64
	IOUThreshold  float64
	// InferTimeout bounds a single backend call; zero waits indefinitely.
	InferTimeout time.Duration
	Storage      storage.Paths
	Logger       zerolog.Logger
}

// Handle is the loaded model. It is built once at startup, shared read-only by
// all requests, and closed at exit. Backend calls are serialized.
type Handle struct {
	mu      sync.Mutex
	backend Backend
	name    string
	classes map[int]string
	cfg     Config
	loadErr error
	now     func() time.Time
	log     zerolog.Logger
}

// Load opens the weights at cfg.ModelPath with the configured backend and
// resolves the class table (file, then model metadata, then COCO).
func Load(cfg Config) (*Handle, error) {
	if !fsutil.PathExists(cfg.ModelPath) {
		return nil, ErrModelFileMissing(cfg.ModelPath)
	}
	var classes map[int]string
	if cfg.ClassesPath != "" {
		c, err := LoadClassNames(cfg.ClassesPath)
		if err != nil {
			return nil, err
		}
		classes = c
	}
	name := CanonicalBackend(cfg.Backend)
	b, err := NewBackend(cfg.Backend, BackendConfig{
		ModelPath:     cfg.ModelPath,
		InputSize:     cfg.InputSize,
		ConfThreshold: float32(cfg.ConfThreshold),
		IOUThreshold:  float32(cfg.IOUThreshold),
		LibraryPath:   cfg.LibraryPath,
	})
	if err != nil {
		if IsDependencyUnavailable(err) {
			return nil, err
		}
		return nil, fmt.Errorf("load %s: %w", cfg.ModelPath, err)
	}
	if classes == nil {
		if cn, ok := b.(ClassNamer); ok {
			classes = cn.ClassNames()
		}
	}
	if len(classes) == 0 {
		classes = COCOClassNames()
	}
	h := New(b, name, classes, cfg)
	h.log.Info().Str("model", cfg.ModelPath).Str("backend", name).Int("classes", len(classes)).Msg("model loaded")
	return h, nil
}

// New wraps an already constructed backend.
func New(b Backend, name string, classes map[int]string, cfg Config) *Handle {
	return &Handle{
		backend: b,
		name:    name,
		classes: classes,
		cfg:     cfg,
		now:     time.Now,
		log:     cfg.Logger,
	}
}

// Unloaded returns a handle that reports ErrModelNotLoaded from every call.
// It backs the degraded mode used when loading failed at startup.
func Unloaded(cfg Config, cause error) *Handle {
	return &Handle{cfg: cfg, loadErr: cause, now: time.Now, log: cfg.Logger}
}

// Ready reports whether a backend is loaded.
func (h *Handle) Ready() bool { return h != nil && h.backend != nil }

// LoadError returns the error that left the handle unloaded, if any.
func (h *Handle) LoadError() error { return h.loadErr }

// Info describes the loaded model.
func (h *Handle) Info() (types.ModelInfoResponse, error) {
	if !h.Ready() {
		return types.ModelInfoResponse{}, ErrModelNotLoaded
	}
	classes := make(map[int]string, len(h.classes))
	for k, v := range h.classes {
		classes[k] = v
	}
	return types.ModelInfoResponse{
		ModelLoaded: true,
		ModelPath:   h.cfg.ModelPath,
		Classes:     classes,
		ModelType:   h.name,
	}, nil
}

// Infer runs the detector once on the image at imagePath. When anything is
// detected an annotated copy is written to the results directory.
func (h *Handle) Infer(ctx context.Context, imagePath string) (*types.DetectionResult, error) {
	if !h.Ready() {
		inferencesTotal.WithLabelValues("not_loaded").Inc()
		return nil, ErrModelNotLoaded
	}
	img, err := imageio.Open(imagePath)
	if err != nil {
		inferencesTotal.WithLabelValues("decode_error").Inc()
		return nil, err
	}
	return h.InferImage(ctx, img)
}

// InferImage runs the detector once on an already decoded RGB image.
func (h *Handle) InferImage(ctx context.Context, img *image.NRGBA) (*types.DetectionResult, error) {
	if !h.Ready() {
		inferencesTotal.WithLabelValues("not_loaded").Inc()
		return nil, ErrModelNotLoaded
	}

	start := time.Now()
	boxes, err := h.detect(ctx, img)
	inferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		inferencesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	dets := make([]types.Detection, 0, len(boxes))
	for _, bx := range boxes {
		dets = append(dets, h.toDetection(bx, img.Bounds()))
	}
	sort.SliceStable(dets, func(i, j int) bool { return dets[i].Confidence > dets[j].Confidence })

	res := &types.DetectionResult{Detections: dets, Count: len(dets)}
	if len(dets) > 0 {
		out := h.cfg.Storage.NewResultPath(h.now())
		if err := imageio.SaveJPEG(render.Annotate(img, dets), out); err != nil {
			inferencesTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("write result image: %w", err)
		}
		res.ResultPath = out
	}
	for _, d := range dets {
		detectionsTotal.WithLabelValues(d.ClassName).Inc()
	}
	inferencesTotal.WithLabelValues("ok").Inc()
	h.log.Debug().Str("result", res.ResultPath).Int("detections", len(dets)).Dur("dur", time.Since(start)).Msg("inference done")
	return res, nil
}

// Close releases the backend.
func (h *Handle) Close() error {
	if h == nil || h.backend == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// detect calls the backend under the handle's mutex, bounded by InferTimeout.
func (h *Handle) detect(ctx context.Context, img image.Image) ([]Box, error) {
	if h.cfg.InferTimeout <= 0 {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.backend.Detect(ctx, img)
	}
	ctx, cancel := context.WithTimeout(ctx, h.cfg.InferTimeout)
	defer cancel()
	type result struct {
		boxes []Box
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		b, err := h.backend.Detect(ctx, img)
		ch <- result{b, err}
	}()
	select {
	case r := <-ch:
		return r.boxes, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("inference: %w", ctx.Err())
	}
}

// toDetection normalizes a raw box: corners ordered, clamped to the image,
// confidence clamped to [0,1], class name resolved.
func (h *Handle) toDetection(bx Box, bounds image.Rectangle) types.Detection {
	w, hgt := float64(bounds.Dx()), float64(bounds.Dy())
	x1, x2 := math.Min(bx.X1, bx.X2), math.Max(bx.X1, bx.X2)
	y1, y2 := math.Min(bx.Y1, bx.Y2), math.Max(bx.Y1, bx.Y2)
	conf := float64(bx.Score)
	if math.IsNaN(conf) {
		conf = 0
	}
	return types.Detection{
		BBox:       [4]float64{clamp(x1, 0, w), clamp(y1, 0, hgt), clamp(x2, 0, w), clamp(y2, 0, hgt)},
		Confidence: clamp(conf, 0, 1),
		ClassID:    bx.ClassID,
		ClassName:  resolveClassName(h.classes, bx.ClassID),
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
