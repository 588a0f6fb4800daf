package httpapi

import (
	"net/http"
	"time"

	"github.com/r3e-network/cas-dispatch/internal/logging"
	"github.com/r3e-network/cas-dispatch/internal/metrics"
	"golang.org/x/time/rate"
)

// requestLogging stamps every request with a trace id and logs its
// method, path, status, and duration once it completes.
func requestLogging(log *logging.Logger, endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := logging.WithNewTrace(r.Context())
			r = r.WithContext(ctx)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			metrics.RequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
			log.WithTrace(ctx).WithFields(map[string]any{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": elapsed.String(),
			}).Info("handled request")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// recoverPanic converts a panic inside a handler into a 500 response
// instead of crashing the listener goroutine.
func recoverPanic(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithTrace(r.Context()).WithField("panic", rec).Error("handler panic recovered")
					writeJSON(w, http.StatusInternalServerError, errorBody{Code: "INTERNAL", Message: "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimit enforces a requests-per-second ceiling on /validate, the
// only endpoint with a configured rate in §6.
func rateLimit(rps float64) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, errorBody{Code: "RATE_LIMITED", Message: "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
