package httpapi

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

var defaultLogLevel = LevelInfo

// SetRequestLogLevel sets the access log level used when a request carries
// no override. Unknown names map to info.
func SetRequestLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logf writes a process-level message at lvl.
func logf(lvl LogLevel, format string, args ...any) {
	if defaultLogLevel < lvl {
		return
	}
	if zlog == nil {
		log.Printf(format, args...)
		return
	}
	msg := fmt.Sprintf(format, args...)
	switch lvl {
	case LevelError:
		zlog.Error().Msg(msg)
	case LevelDebug:
		zlog.Debug().Msg(msg)
	default:
		zlog.Info().Msg(msg)
	}
}

// accessLog emits one line per request once the handler returns. Server
// errors are logged at error level, everything else at info.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lvl := requestLogLevel(r)
		if lvl == LevelOff {
			next.ServeHTTP(w, r)
			return
		}
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sr, r)
		dur := time.Since(start)
		if sr.status < http.StatusInternalServerError && lvl < LevelInfo {
			return
		}
		rid := middleware.GetReqID(r.Context())
		if zlog != nil {
			ev := zlog.Info()
			if sr.status >= http.StatusInternalServerError {
				ev = zlog.Error()
			}
			ev = ev.Str("method", r.Method).Str("path", r.URL.Path).Int("status", sr.status).Dur("dur", dur)
			if rid != "" {
				ev = ev.Str("request_id", rid)
			}
			if lvl >= LevelDebug {
				ev = ev.Str("remote", r.RemoteAddr).Int64("bytes_in", r.ContentLength)
			}
			ev.Msg("request")
			return
		}
		log.Printf("request method=%s path=%s status=%d dur=%s request_id=%s", r.Method, r.URL.Path, sr.status, dur, rid)
	})
}
