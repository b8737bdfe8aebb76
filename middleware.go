package lumber

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request identifier on responses and is
// honored on incoming requests when present.
const RequestIDHeader = "X-Request-ID"

// statusRecorder captures the response status for the completion entry.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += int64(n)
	return n, err
}

// Middleware wraps an http.Handler so that every request runs with a
// request-scoped logging context. Each request gets a unit-of-work id
// (taken from X-Request-ID when the client sent one), request attributes
// in the context chain, and a completion entry with status and duration.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := WithUnitOfWork(r.Context(), requestID)
			ctx = WithAttrs(ctx, map[string]any{
				"http": map[string]any{
					"method": r.Method,
					"path":   r.URL.Path,
					"remote": r.RemoteAddr,
				},
			})

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r.WithContext(ctx))

			logger.InfoWithCtx(ctx, "request completed",
				Int("http.status", recorder.status),
				Int64("http.bytes", recorder.bytes),
				String("http.duration", time.Since(start).Round(time.Microsecond).String()),
			)
		})
	}
}
