// Package detector is the model adapter: it loads a pretrained detector once,
// runs single-image inference through it, and translates the runtime's output
// into types.Detection values. It is structured into small files by concern:
//
//   - handle.go: Handle (the process-wide model handle), Load, Infer, Info.
//   - backend.go: the Backend interface and backend selection by name.
//   - postprocess.go: letterboxing, YOLOv8 output decoding, class-wise NMS.
//   - classes.go: class-name tables (YAML file, model metadata, COCO default).
//   - errors.go: error types and helpers (IsModelNotLoaded, ...).
//   - sanity.go: read-only checks for weights and runtime availability.
//   - metrics.go: Prometheus collectors for inference.
//
// Build tags and runtimes:
//
//   - ONNX Runtime: github.com/yalue/onnxruntime_go, enabled with `-tags=onnx`.
//     Files: backend_onnx.go; backend_onnx_stub.go otherwise.
//   - OpenCV DNN: gocv.io/x/gocv, enabled with `-tags=opencv`.
//     Files: backend_opencv.go; backend_opencv_stub.go otherwise.
//
// Without either tag every backend constructor fails with a dependency
// unavailable error, so default builds stay CGO-free.
package detector
