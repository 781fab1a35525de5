//go:build opencv

package detector

import (
	"context"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

var opencvBuilt = true

// classOffset shifts boxes of different classes apart so that a single
// class-agnostic NMSBoxes call behaves class-wise.
const classOffset = 4096

// opencvBackend runs a YOLOv8 ONNX export through the OpenCV DNN module.
type opencvBackend struct {
	net  gocv.Net
	size int
	conf float32
	iou  float32
}

// NewOpenCVBackend reads the ONNX model at bc.ModelPath.
func NewOpenCVBackend(bc BackendConfig) (Backend, error) {
	net := gocv.ReadNetFromONNX(bc.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("opencv could not read %s", bc.ModelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("set backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("set target: %w", err)
	}
	return &opencvBackend{net: net, size: bc.InputSize, conf: bc.ConfThreshold, iou: bc.IOUThreshold}, nil
}

func (b *opencvBackend) Detect(ctx context.Context, img image.Image) ([]Box, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	canvas, lb := letterboxImage(img, b.size)
	mat, err := gocv.ImageToMatRGB(canvas)
	if err != nil {
		return nil, fmt.Errorf("image to mat: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(b.size, b.size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()
	b.net.SetInput(blob, "")
	out := b.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	cands := DecodeYOLOv8(data, dims[1], dims[2], b.conf)
	if len(cands) == 0 {
		return nil, nil
	}

	rects := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		off := c.ClassID * classOffset
		rects[i] = image.Rect(
			int(math.Round(c.X1))+off, int(math.Round(c.Y1))+off,
			int(math.Round(c.X2))+off, int(math.Round(c.Y2))+off,
		)
		scores[i] = c.Score
	}
	keep := gocv.NMSBoxes(rects, scores, b.conf, b.iou)
	boxes := make([]Box, 0, len(keep))
	for _, i := range keep {
		boxes = append(boxes, lb.toSource(cands[i]))
	}
	return boxes, nil
}

func (b *opencvBackend) Close() error { return b.net.Close() }
