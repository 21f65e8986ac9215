// Package middleware provides HTTP middleware for the row-store server.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/rowstore/internal/logging"
)

// Logger logs one structured entry per request after it completes.
//
// Log fields:
//   - method, path, sheet (the ?sheet= parameter, when present)
//   - status and bytes written
//   - duration_ms
//   - ip (RemoteAddr after TrustedRealIP) and user_agent
//
// Exec failures are reported with status 200, so the status field alone does
// not separate success from failure; the handler logs engine errors itself.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"bytes", ww.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", clientIP(r.RemoteAddr),
			"user_agent", r.UserAgent(),
		}
		if sheet := r.URL.Query().Get("sheet"); sheet != "" {
			args = append(args, "sheet", sheet)
		}
		logging.FromContext(r.Context()).Info("request", args...)
	})
}

// responseWriter captures the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap exposes the underlying ResponseWriter to http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
