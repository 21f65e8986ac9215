package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/JonMunkholm/rowstore/internal/config"
	"github.com/JonMunkholm/rowstore/internal/logging"
)

// APIKeyAuth guards the admin routes. The key is read from X-API-Key or from
// an "Authorization: Bearer" header. With RequireAPIKey off every request
// passes; with it on and no keys configured every request is rejected.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	digests := make([][sha256.Size]byte, len(cfg.APIKeys))
	for i, k := range cfg.APIKeys {
		digests[i] = sha256.Sum256([]byte(k))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			key := presentedKey(r)
			if key == "" {
				logging.FromContext(r.Context()).Warn("auth: missing API key",
					"path", r.URL.Path, "method", r.Method, "ip", r.RemoteAddr)
				WriteJSONError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			if !matchKey(key, digests) {
				logging.FromContext(r.Context()).Warn("auth: invalid API key",
					"path", r.URL.Path, "method", r.Method, "ip", r.RemoteAddr)
				WriteJSONError(w, http.StatusForbidden, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func presentedKey(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// matchKey compares digests so every comparison takes the same time
// regardless of key length. All keys are checked.
func matchKey(key string, digests [][sha256.Size]byte) bool {
	d := sha256.Sum256([]byte(key))
	valid := 0
	for i := range digests {
		valid |= subtle.ConstantTimeCompare(d[:], digests[i][:])
	}
	return valid == 1
}
