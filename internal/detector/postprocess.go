package detector

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

// letterboxFill is the padding color used by YOLO exports.
var letterboxFill = color.NRGBA{R: 114, G: 114, B: 114, A: 255}

// letterbox records how a source image was fitted into the square network input.
type letterbox struct {
	scale      float64
	padX, padY float64
	srcW, srcH int
}

// letterboxImage resizes img to fit a size×size canvas, keeping aspect ratio.
func letterboxImage(img image.Image, size int) (*image.NRGBA, letterbox) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	padX := (size - nw) / 2
	padY := (size - nh) / 2

	canvas := imaging.New(size, size, letterboxFill)
	resized := imaging.Resize(img, nw, nh, imaging.Linear)
	canvas = imaging.Paste(canvas, resized, image.Pt(padX, padY))
	return canvas, letterbox{scale: scale, padX: float64(padX), padY: float64(padY), srcW: w, srcH: h}
}

// toSource maps a box from network input space back to source pixels.
func (l letterbox) toSource(bx Box) Box {
	bx.X1 = (bx.X1 - l.padX) / l.scale
	bx.X2 = (bx.X2 - l.padX) / l.scale
	bx.Y1 = (bx.Y1 - l.padY) / l.scale
	bx.Y2 = (bx.Y2 - l.padY) / l.scale
	return bx
}

// toCHW converts an NRGBA image into a planar RGB float tensor scaled to [0,1].
func toCHW(img *image.NRGBA) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	out := make([]float32, 3*plane)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			i := y*w + x
			p := row[x*4:]
			out[i] = float32(p[0]) / 255
			out[plane+i] = float32(p[1]) / 255
			out[2*plane+i] = float32(p[2]) / 255
		}
	}
	return out
}

// anchorsFor returns the number of YOLOv8 prediction slots for a square input.
func anchorsFor(size int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		g := size / stride
		n += g * g
	}
	return n
}

// DecodeYOLOv8 reads a [4+nc, anchors] output tensor (cx, cy, w, h followed by
// per-class scores) and returns boxes whose best class score reaches conf.
// Coordinates stay in network input space.
func DecodeYOLOv8(data []float32, attrs, anchors int, conf float32) []Box {
	nc := attrs - 4
	if nc <= 0 || anchors <= 0 || len(data) < attrs*anchors {
		return nil
	}
	var boxes []Box
	for i := 0; i < anchors; i++ {
		best, score := -1, float32(0)
		for c := 0; c < nc; c++ {
			if s := data[(4+c)*anchors+i]; s > score {
				best, score = c, s
			}
		}
		if best < 0 || score < conf {
			continue
		}
		cx, cy := float64(data[i]), float64(data[anchors+i])
		w, h := float64(data[2*anchors+i]), float64(data[3*anchors+i])
		boxes = append(boxes, Box{
			X1: cx - w/2, Y1: cy - h/2,
			X2: cx + w/2, Y2: cy + h/2,
			Score: score, ClassID: best,
		})
	}
	return boxes
}

// IoU returns the intersection over union of two boxes.
func IoU(a, b Box) float64 {
	ix1, iy1 := math.Max(a.X1, b.X1), math.Max(a.Y1, b.Y1)
	ix2, iy2 := math.Min(a.X2, b.X2), math.Min(a.Y2, b.Y2)
	inter := math.Max(0, ix2-ix1) * math.Max(0, iy2-iy1)
	union := (a.X2-a.X1)*(a.Y2-a.Y1) + (b.X2-b.X1)*(b.Y2-b.Y1) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// NMS performs class-wise non-maximum suppression, keeping the highest scoring
// box of every overlapping group. The result is sorted by score, descending.
func NMS(boxes []Box, iouThreshold float64) []Box {
	sorted := append([]Box(nil), boxes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	suppressed := make([]bool, len(sorted))
	var keep []Box
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		keep = append(keep, sorted[i])
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] || sorted[j].ClassID != sorted[i].ClassID {
				continue
			}
			if IoU(sorted[i], sorted[j]) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return keep
}
