package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fait-coop/scheduling/libs/auth"
	"github.com/fait-coop/scheduling/libs/httpx"
	"github.com/fait-coop/scheduling/libs/runtime"
	"github.com/fait-coop/scheduling/services/availability-service/internal/handlers"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var corsHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// newHandler mounts the probes and the availability endpoints behind the
// middleware stack. CORS runs first so preflights never hit auth or limits.
func newHandler(cfg appConfig, logger *slog.Logger, api *handlers.AvailabilityHandler, rateLimit httpx.Middleware, checks ...runtime.ReadyCheck) http.Handler {
	mux := runtime.NewBaseMuxWithReady(checks...)
	api.Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: corsHeaders,
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		probesBypass(rateLimit),
		probesBypass(auth.RequireBearer(auth.Verifier{
			Secret:   cfg.JWTSecret,
			Audience: cfg.JWTAudience,
			Leeway:   cfg.JWTLeeway,
		})),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	return otelhttp.NewHandler(handler, "availability")
}

// probesBypass keeps /healthz and /readyz reachable for orchestrators.
func probesBypass(m httpx.Middleware) httpx.Middleware {
	if m == nil {
		return nil
	}
	return func(next http.Handler) http.Handler {
		wrapped := m(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
				next.ServeHTTP(w, r)
				return
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}

func newRateLimit(cfg appConfig, rdb *redis.Client, logger *slog.Logger) httpx.Middleware {
	if rdb != nil {
		rl := httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "avail:rl")
		logger.Info("rate limiting enabled (redis)", "per_minute", cfg.RateLimitPerMinute)
		return rl.Middleware(logger, cfg.RateLimitFailOpen)
	}
	logger.Info("rate limiting enabled (in-memory)", "per_minute", cfg.RateLimitPerMinute)
	return httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute).Middleware()
}
