//go:build onnx

package detector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var onnxBuilt = true

// ortInit guards the process-wide onnxruntime environment.
var ortInit sync.Once
var ortInitErr error

func initORT(libPath string) error {
	ortInit.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// onnxBackend runs a YOLOv8 ONNX export through onnxruntime.
type onnxBackend struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	size    int
	attrs   int
	anchors int
	conf    float32
	iou     float32
	names   map[int]string
}

// NewONNXBackend loads the model at bc.ModelPath into an onnxruntime session.
func NewONNXBackend(bc BackendConfig) (Backend, error) {
	if err := initORT(bc.LibraryPath); err != nil {
		return nil, ErrDependencyUnavailable("onnxruntime: " + err.Error())
	}
	inputs, outputs, err := ort.GetInputOutputInfo(bc.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("read model inputs: %w", err)
	}
	if len(inputs) != 1 || len(outputs) < 1 {
		return nil, fmt.Errorf("expected 1 input and at least 1 output, got %d and %d", len(inputs), len(outputs))
	}

	size := bc.InputSize
	if dims := inputs[0].Dimensions; len(dims) == 4 && dims[2] > 0 && dims[2] == dims[3] {
		size = int(dims[2])
	}
	outDims := outputs[0].Dimensions
	if len(outDims) != 3 || outDims[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v", outDims)
	}
	attrs := int(outDims[1])
	anchors := int(outDims[2])
	if anchors <= 0 {
		anchors = anchorsFor(size)
	}

	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(size), int64(size)), make([]float32, 3*size*size))
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(attrs), int64(anchors)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer opts.Destroy()

	session, err := ort.NewAdvancedSession(bc.ModelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.Value{input}, []ort.Value{output}, opts)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &onnxBackend{
		session: session,
		input:   input,
		output:  output,
		size:    size,
		attrs:   attrs,
		anchors: anchors,
		conf:    bc.ConfThreshold,
		iou:     bc.IOUThreshold,
		names:   readMetadataNames(bc.ModelPath),
	}, nil
}

// readMetadataNames returns the "names" table Ultralytics embeds in exports, or nil.
func readMetadataNames(path string) map[int]string {
	meta, err := ort.GetModelMetadata(path)
	if err != nil {
		return nil
	}
	defer meta.Destroy()
	v, ok, err := meta.LookupCustomMetadataMap("names")
	if err != nil || !ok {
		return nil
	}
	names, err := ParseClassNames([]byte(v))
	if err != nil {
		return nil
	}
	return names
}

func (b *onnxBackend) Detect(ctx context.Context, img image.Image) ([]Box, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	canvas, lb := letterboxImage(img, b.size)
	copy(b.input.GetData(), toCHW(canvas))
	if err := b.session.Run(); err != nil {
		return nil, fmt.Errorf("onnxruntime run: %w", err)
	}
	boxes := NMS(DecodeYOLOv8(b.output.GetData(), b.attrs, b.anchors, b.conf), float64(b.iou))
	for i := range boxes {
		boxes[i] = lb.toSource(boxes[i])
	}
	return boxes, nil
}

func (b *onnxBackend) ClassNames() map[int]string { return b.names }

func (b *onnxBackend) Close() error {
	return errors.Join(b.session.Destroy(), b.input.Destroy(), b.output.Destroy())
}
