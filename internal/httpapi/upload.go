package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"inspector/internal/imageio"
	"inspector/internal/storage"
	"inspector/pkg/types"
)

// handleUpload stores an uploaded image and runs detection on it.
//
//	@Summary	Detect objects in an uploaded image
//	@Tags		detect
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"image (png, jpg, jpeg, gif, bmp, tiff)"
//	@Success	200		{object}	types.DetectionResponse
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	413		{object}	types.ErrorResponse
//	@Failure	500		{object}	types.ErrorResponse
//	@Router		/upload [post]
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxBodyBytes {
		rejectUpload("too_large")
		writeJSONError(w, http.StatusRequestEntityTooLarge, tooLargeMessage())
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			rejectUpload("too_large")
			writeJSONError(w, http.StatusRequestEntityTooLarge, tooLargeMessage())
			return
		}
		rejectUpload("no_file")
		writeJSONError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		// Browsers send an empty filename when nothing was chosen, which
		// mime/multipart files under Value rather than File.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			rejectUpload("no_selection")
			writeJSONError(w, http.StatusBadRequest, msgNoSelection)
			return
		}
		rejectUpload("no_file")
		writeJSONError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	fh := headers[0]
	if fh.Filename == "" {
		rejectUpload("no_selection")
		writeJSONError(w, http.StatusBadRequest, msgNoSelection)
		return
	}
	if !storage.AllowedFile(fh.Filename) {
		rejectUpload("extension")
		writeJSONError(w, http.StatusBadRequest, msgUnsupported)
		return
	}

	src, err := fh.Open()
	if err != nil {
		logf(LevelError, "open multipart file: %v", err)
		writeJSONError(w, http.StatusInternalServerError, msgSaveUploadFails)
		return
	}
	uploaded, err := s.paths.SaveUpload(fh.Filename, src, s.now())
	src.Close()
	if err != nil {
		logf(LevelError, "save upload %q: %v", fh.Filename, err)
		writeJSONError(w, http.StatusInternalServerError, msgSaveUploadFails)
		return
	}

	img, err := imageio.Open(uploaded.Path)
	if err != nil {
		logf(LevelInfo, "preprocess %s: %v", uploaded.StoredName, err)
		rejectUpload("decode")
		writeJSONError(w, http.StatusBadRequest, msgPreprocess)
		return
	}

	// Join server base context with request context so shutdown cancels work too.
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	start := time.Now()
	result, err := s.svc.InferImage(ctx, img)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		logf(LevelError, "detect %s request_id=%s: %v", uploaded.StoredName, middleware.GetReqID(r.Context()), err)
		writeJSONError(w, statusFor(err), msgDetectPrefix+err.Error())
		return
	}
	logf(LevelDebug, "detect %s: %d objects in %s", uploaded.StoredName, result.Count, time.Since(start))

	writeJSON(w, http.StatusOK, detectionResponse(uploaded, result))
}

func detectionResponse(up types.UploadedImage, res *types.DetectionResult) types.DetectionResponse {
	dets := res.Detections
	if dets == nil {
		dets = []types.Detection{}
	}
	resp := types.DetectionResponse{
		Success:       true,
		Filename:      up.StoredName,
		Detections:    dets,
		NumDetections: len(dets),
		OriginalImage: "/uploads/" + url.PathEscape(up.StoredName),
	}
	if len(dets) > 0 && res.ResultPath != "" {
		resp.ResultImage = "/results/" + url.PathEscape(filepath.Base(res.ResultPath))
	}
	return resp
}

// handleDetectURL accepts a remote image location. Fetching is not
// implemented yet.
//
//	@Summary	Detect objects in a remote image
//	@Tags		detect
//	@Accept		json
//	@Produce	json
//	@Param		body	body		types.DetectURLRequest	true	"image location"
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	501		{object}	types.ErrorResponse
//	@Router		/detect_url [post]
func (s *server) handleDetectURL(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	var req types.DetectURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeJSONError(w, http.StatusBadRequest, msgNeedURL)
		return
	}
	writeJSONError(w, http.StatusNotImplemented, msgURLUnsupported)
}

// serveStored serves a file by name from dir.
func (s *server) serveStored(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := url.PathUnescape(chi.URLParam(r, "name"))
		if err != nil {
			writeJSONError(w, http.StatusNotFound, msgNotFound)
			return
		}
		full, err := storage.Resolve(dir, name)
		if err != nil {
			writeJSONError(w, http.StatusNotFound, msgNotFound)
			return
		}
		f, err := os.Open(full)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logf(LevelError, "open %s: %v", full, err)
			}
			writeJSONError(w, http.StatusNotFound, msgNotFound)
			return
		}
		defer f.Close()
		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			writeJSONError(w, http.StatusNotFound, msgNotFound)
			return
		}
		http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
	}
}
