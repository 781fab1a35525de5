package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"inspector/internal/config"
	"inspector/internal/detector"
	"inspector/internal/httpapi"
	"inspector/internal/preflight"
	"inspector/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// runServe loads the model, starts the HTTP server and blocks until ctx is
// canceled or the listener fails.
func runServe(ctx context.Context, cfg config.Config, out io.Writer) error {
	logger := newLogger(cfg.LogLevel, os.Stderr)

	paths := storage.New(cfg.UploadsDir, cfg.ResultsDir)
	if err := paths.Ensure(); err != nil {
		return fmt.Errorf("create storage directories: %w", err)
	}

	dcfg := detectorConfig(cfg, paths, logger)
	handle, err := detector.Load(dcfg)
	if err != nil {
		if !cfg.AllowDegraded {
			return fmt.Errorf("load model: %w", err)
		}
		logger.Warn().Err(err).Msg("model not loaded, serving in degraded mode")
		handle = detector.Unloaded(dcfg, err)
	}
	defer func() {
		if err := handle.Close(); err != nil {
			logger.Error().Err(err).Msg("close model")
		}
	}()

	baseCtx, cancelBase := context.WithCancel(ctx)
	defer cancelBase()
	configureHTTP(cfg, logger, baseCtx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(handle, paths),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("uploads", paths.Uploads).Str("results", paths.Results).Msg("inspector listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	preflight.PrintAccessInfo(out, cfg.Addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown (Ctrl+C / SIGTERM)
	logger.Info().Msg("shutting down")
	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

// configureHTTP pushes the HTTP-layer settings into httpapi.
func configureHTTP(cfg config.Config, logger zerolog.Logger, base context.Context) {
	httpapi.SetLogger(logger)
	httpapi.SetRequestLogLevel(cfg.LogLevel)
	httpapi.SetMaxBodyBytes(cfg.MaxUploadBytes)
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders)
	httpapi.SetBaseContext(base)
}

func detectorConfig(cfg config.Config, paths storage.Paths, logger zerolog.Logger) detector.Config {
	return detector.Config{
		ModelPath:     cfg.ModelPath,
		ClassesPath:   cfg.ClassesPath,
		Backend:       cfg.Backend,
		LibraryPath:   cfg.ONNXRuntimeLib,
		InputSize:     cfg.InputSize,
		ConfThreshold: cfg.ConfThreshold,
		IOUThreshold:  cfg.IOUThreshold,
		InferTimeout:  time.Duration(cfg.InferTimeoutSeconds) * time.Second,
		Storage:       paths,
		Logger:        logger.With().Str("component", "detector").Logger(),
	}
}

// newLogger writes human-readable output to a terminal and JSON otherwise.
func newLogger(level string, w io.Writer) zerolog.Logger {
	lvl := parseLogLevel(level)
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func parseLogLevel(s string) zerolog.Level {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "", "info":
		return zerolog.InfoLevel
	case "off":
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
