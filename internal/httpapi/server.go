// Package httpapi exposes the detector over HTTP: the upload page, the
// upload and model info endpoints, stored image serving, and the
// operational endpoints (health, readiness, metrics).
package httpapi

import (
	"context"
	"image"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inspector/internal/storage"
	"inspector/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	// InferImage runs detection on a decoded upload and writes the
	// annotated result when anything is found.
	InferImage(ctx context.Context, img *image.NRGBA) (*types.DetectionResult, error)
	// Info describes the loaded model, or fails when none is loaded.
	Info() (types.ModelInfoResponse, error)
	Ready() bool
}

// server carries the per-mux dependencies shared by handlers.
type server struct {
	svc   Service
	paths storage.Paths
	now   func() time.Time
}

// NewMux builds the router. Uploads and results are read from and written to
// the directories in paths.
func NewMux(svc Service, paths storage.Paths) http.Handler {
	s := &server{svc: svc, paths: paths, now: time.Now}

	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(MetricsMiddleware)
	r.Use(accessLog)
	r.Use(jsonRecoverer)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Compression for JSON and HTML; stored images are already compressed.
	r.Use(middleware.Compress(5, "application/json", "text/html"))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, msgMethodNotAllow)
	})

	r.Get("/", s.handleIndex)
	r.Get("/en", s.handlePage(TemplateEN))
	r.Get("/zh", s.handlePage(TemplateZH))

	r.Post("/upload", s.handleUpload)
	r.Post("/detect_url", s.handleDetectURL)
	r.Get("/model_info", s.handleModelInfo)

	r.Get("/uploads/{name}", s.serveStored(paths.Uploads))
	r.Get("/results/{name}", s.serveStored(paths.Results))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// jsonRecoverer turns a handler panic into a JSON 500.
func jsonRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logf(LevelError, "panic serving %s %s: %v", r.Method, r.URL.Path, rec)
			writeJSONError(w, http.StatusInternalServerError, msgInternal)
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *server) pageData() pageData {
	return pageData{MaxUploadMB: maxBodyBytes >> 20, Extensions: storage.AllowedExtensions}
}

// handleIndex serves the page matching the caller's Accept-Language.
//
//	@Summary	Upload page
//	@Tags		pages
//	@Produce	html
//	@Param		Accept-Language	header	string	false	"preferred languages"
//	@Success	200
//	@Router		/ [get]
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	renderPage(w, pages, SelectTemplate(r.Header.Get("Accept-Language")), s.pageData())
}

func (s *server) handlePage(id TemplateID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, pages, id, s.pageData())
	}
}

// handleModelInfo reports the loaded model.
//
//	@Summary	Model information
//	@Tags		model
//	@Produce	json
//	@Success	200	{object}	types.ModelInfoResponse
//	@Failure	500	{object}	types.ErrorResponse
//	@Router		/model_info [get]
func (s *server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.Info()
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	if info.Classes == nil {
		info.Classes = map[int]string{}
	}
	writeJSON(w, http.StatusOK, info)
}
