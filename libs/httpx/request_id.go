package httpx

import (
	"context"
	"net/http"

	"github.com/fait-coop/scheduling/libs/requestid"
)

func RequestIDFromContext(ctx context.Context) string {
	return requestid.FromContext(ctx)
}

// WithRequestID adopts the caller's X-Request-Id when it is sane and echoes
// the effective id back on the response.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestid.Ensure(r.Header.Get(requestid.Header))
		w.Header().Set(requestid.Header, id)
		next.ServeHTTP(w, r.WithContext(requestid.NewContext(r.Context(), id)))
	})
}
