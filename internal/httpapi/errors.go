package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"inspector/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// Messages shared by handlers and tests.
const (
	msgNoFile          = "no file uploaded"
	msgNoSelection     = "no file selected"
	msgUnsupported     = "unsupported file format"
	msgPreprocess      = "image preprocessing failed"
	msgDetectPrefix    = "detection failed: "
	msgNeedURL         = "please provide an image url"
	msgURLUnsupported  = "URL detection feature is under development"
	msgNotFound        = "not found"
	msgMethodNotAllow  = "method not allowed"
	msgInternal        = "internal server error"
	msgSaveUploadFails = "failed to save upload"
)

// tooLargeMessage reports the configured upload cap in whole megabytes.
func tooLargeMessage() string {
	return fmt.Sprintf("file too large, maximum upload size is %dMB", maxBodyBytes>>20)
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg})
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logf(LevelError, "encode response: %v", err)
	}
}

// statusFor maps a service error to an HTTP status, honoring HTTPError.
func statusFor(err error) int {
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// isBodyTooLarge reports whether err came from http.MaxBytesReader.
func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
