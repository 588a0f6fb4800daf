package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/r3e-network/cas-dispatch/internal/logging"
)

// NewRouter wires the public endpoints onto a gorilla/mux router, with
// request logging and panic recovery on every route and a rate limit
// on /validate.
func NewRouter(s *Server, log *logging.Logger, validateRPS float64) *mux.Router {
	r := mux.NewRouter()

	wrap := func(endpoint string, h http.HandlerFunc, extra ...func(http.Handler) http.Handler) http.Handler {
		var handler http.Handler = h
		for i := len(extra) - 1; i >= 0; i-- {
			handler = extra[i](handler)
		}
		handler = requestLogging(log, endpoint)(handler)
		handler = recoverPanic(log)(handler)
		return handler
	}

	r.Handle("/validate", wrap("validate", s.handleValidate, rateLimit(validateRPS))).Methods(http.MethodPost)
	r.Handle("/compute", wrap("compute", s.handleCompute)).Methods(http.MethodPost)
	r.Handle("/health", wrap("health", s.handleHealth)).Methods(http.MethodGet)
	r.Handle("/status", wrap("status", s.handleStatus)).Methods(http.MethodGet)
	r.Handle("/engines", wrap("engines", s.handleEngines)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
