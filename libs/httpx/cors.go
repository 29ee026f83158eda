package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy defines the CORS headers to emit for matching origins.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// WithCORS adds CORS headers for allowed origins and answers every OPTIONS
// request itself with 204. If AllowedOrigins is empty no headers are emitted
// but preflights are still terminated here.
func WithCORS(cfg CORSPolicy) Middleware {
	allowedOrigins := normalizeList(cfg.AllowedOrigins)
	allowedMethods := strings.Join(normalizeList(cfg.AllowedMethods), ", ")
	allowedHeaders := strings.Join(normalizeList(cfg.AllowedHeaders), ", ")
	maxAge := int(cfg.MaxAge.Seconds())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowOrigin, ok := matchOrigin(origin, allowedOrigins, cfg.AllowCredentials); ok {
				headers := w.Header()
				headers.Set("Access-Control-Allow-Origin", allowOrigin)
				if cfg.AllowCredentials {
					headers.Set("Access-Control-Allow-Credentials", "true")
				}
				if allowedMethods != "" {
					headers.Set("Access-Control-Allow-Methods", allowedMethods)
				}
				if allowedHeaders != "" {
					headers.Set("Access-Control-Allow-Headers", allowedHeaders)
				}
				if maxAge > 0 {
					headers.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
				}
				if allowOrigin != "*" {
					headers.Add("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// matchOrigin resolves the Access-Control-Allow-Origin value. A wildcard
// policy answers "*" even without an Origin header so plain fetches from
// server-side callers see the same headers browsers do.
func matchOrigin(origin string, allowed []string, allowCredentials bool) (string, bool) {
	for _, candidate := range allowed {
		if candidate == "*" {
			if allowCredentials && origin != "" {
				return origin, true
			}
			return "*", true
		}
		if origin != "" && strings.EqualFold(candidate, origin) {
			return origin, true
		}
	}
	return "", false
}
