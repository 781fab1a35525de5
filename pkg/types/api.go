package types

// DetectionResponse is returned by POST /upload on success.
type DetectionResponse struct {
	// Always true on success.
	Success bool `json:"success" example:"true"`
	// Stored filename of the original upload.
	// example: 20240101_120000_cat.jpg
	Filename string `json:"filename" example:"20240101_120000_cat.jpg"`
	// Detected objects, highest confidence first.
	Detections []Detection `json:"detections"`
	// Number of entries in detections.
	// example: 2
	NumDetections int `json:"num_detections" example:"2"`
	// URL of the stored original.
	// example: /uploads/20240101_120000_cat.jpg
	OriginalImage string `json:"original_image" example:"/uploads/20240101_120000_cat.jpg"`
	// URL of the annotated image. Omitted when nothing was detected.
	// example: /results/result_20240101_120000_1a2b3c4d.jpg
	ResultImage string `json:"result_image,omitempty" example:"/results/result_20240101_120000_1a2b3c4d.jpg"`
}

// DetectURLRequest is the body accepted by POST /detect_url.
type DetectURLRequest struct {
	// Remote image location.
	// example: http://example.com/a.jpg
	URL string `json:"url" example:"http://example.com/a.jpg"`
}

// ModelInfoResponse is returned by GET /model_info.
type ModelInfoResponse struct {
	ModelLoaded bool `json:"model_loaded" example:"true"`
	// Configured weights path.
	// example: model/best.onnx
	ModelPath string `json:"model_path" example:"model/best.onnx"`
	// Class id to name table.
	Classes map[int]string `json:"classes"`
	// Name of the backend serving inference.
	// example: onnxruntime
	ModelType string `json:"model_type" example:"onnxruntime"`
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	// Error message.
	// example: unsupported file format
	Error string `json:"error" example:"unsupported file format"`
}
