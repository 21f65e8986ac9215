package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/JonMunkholm/rowstore/internal/logging"
)

// Recoverer turns a panic into a logged 200 JSON error envelope, so callers
// that only inspect the body still see a failure.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logging.FromContext(r.Context()).Error("panic recovered",
				"path", r.URL.Path,
				"method", r.Method,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			WriteJSONError(w, http.StatusOK, "Internal error")
		}()

		next.ServeHTTP(w, r)
	})
}
