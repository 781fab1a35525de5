package types

// Detection is one predicted object instance.
type Detection struct {
	// Bounding box as [x1, y1, x2, y2] in source-image pixels, x1<=x2 and y1<=y2.
	// example: [12.5,40,220.25,310]
	BBox [4]float64 `json:"bbox"`
	// Confidence score in [0,1].
	// example: 0.87
	Confidence float64 `json:"confidence" example:"0.87"`
	// Class index as reported by the model.
	// example: 0
	ClassID int `json:"class_id" example:"0"`
	// Human-readable class label; class_<id> when the model has no name for it.
	// example: person
	ClassName string `json:"class_name" example:"person"`
}

// DetectionResult is the outcome of a single inference call.
type DetectionResult struct {
	Detections []Detection
	Count      int
	// ResultPath is the annotated image on disk. Empty when nothing was detected.
	ResultPath string
}

// UploadedImage is an original image persisted to the uploads directory.
type UploadedImage struct {
	StoredName string
	Path       string
}
