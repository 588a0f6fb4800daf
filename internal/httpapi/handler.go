// Package httpapi is the wire adapter: it translates the service's
// public HTTP endpoints to dispatcher calls, enforces the
// request-shape contract, and renders the response shapes from §6.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/r3e-network/cas-dispatch/internal/dispatcher"
	"github.com/r3e-network/cas-dispatch/internal/engine"
	"github.com/r3e-network/cas-dispatch/internal/errs"
	"github.com/r3e-network/cas-dispatch/internal/logging"
	"github.com/r3e-network/cas-dispatch/internal/metrics"
)

// Server holds the dependencies the wire adapter needs to answer a request.
type Server struct {
	dispatcher *dispatcher.Dispatcher
	registry   *engine.Registry
	log        *logging.Logger
	startTime  time.Time
	serviceTag string
}

// NewServer builds the wire adapter.
func NewServer(d *dispatcher.Dispatcher, reg *engine.Registry, log *logging.Logger) *Server {
	return &Server{dispatcher: d, registry: reg, log: log, startTime: time.Now(), serviceTag: "cas-dispatch"}
}

type validateRequestBody struct {
	Latex     string   `json:"latex"`
	Engines   []string `json:"engines"`
	Consensus bool     `json:"consensus"`
}

type validateResultBody struct {
	Engine         string  `json:"engine"`
	Success        bool    `json:"success"`
	IsValid        *bool   `json:"is_valid"`
	Simplified     *string `json:"simplified"`
	OriginalParsed *string `json:"original_parsed"`
	Error          *string `json:"error"`
	TimeMS         int64   `json:"time_ms"`
}

type validateResponseBody struct {
	Results           []validateResultBody `json:"results"`
	Consensus         bool                 `json:"consensus"`
	LatexPreprocessed string               `json:"latex_preprocessed"`
	TimeMS            int64                `json:"time_ms"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var body validateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errs.InvalidJSON(err))
		return
	}
	if body.Latex == "" {
		writeError(w, errs.InvalidRequest("latex is required"))
		return
	}

	resp, err := s.dispatcher.Validate(r.Context(), dispatcher.ValidateRequest{
		Latex:     body.Latex,
		Engines:   body.Engines,
		Consensus: body.Consensus,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.ValidateRequests.WithLabelValues(boolLabel(body.Consensus)).Inc()

	results := make([]validateResultBody, len(resp.Results))
	for i, res := range resp.Results {
		results[i] = validateResultBody{
			Engine:         res.Engine,
			Success:        res.Success,
			IsValid:        res.IsValid,
			Simplified:     res.Simplified,
			OriginalParsed: res.OriginalParsed,
			Error:          res.Error,
			TimeMS:         res.TimeMS,
		}
	}

	writeJSON(w, http.StatusOK, validateResponseBody{
		Results:           results,
		Consensus:         resp.Consensus,
		LatexPreprocessed: resp.LatexPreprocessed,
		TimeMS:            resp.TimeMS,
	})
}

type computeRequestBody struct {
	Engine    string            `json:"engine"`
	TaskType  string            `json:"task_type"`
	Template  string            `json:"template"`
	Inputs    map[string]string `json:"inputs"`
	TimeoutS  float64           `json:"timeout_s"`
}

type computeResponseBody struct {
	Engine    string         `json:"engine"`
	Success   bool           `json:"success"`
	TimeMS    int64          `json:"time_ms"`
	Result    map[string]any `json:"result"`
	Stdout    string         `json:"stdout"`
	Stderr    string         `json:"stderr"`
	Error     *string        `json:"error"`
	ErrorCode string         `json:"error_code,omitempty"`
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var body computeRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errs.InvalidJSON(err))
		return
	}
	if body.Engine == "" {
		writeError(w, errs.InvalidRequest("engine is required"))
		return
	}
	if body.TaskType != "template" {
		writeError(w, errs.InvalidRequest(`task_type must be "template"`))
		return
	}
	if body.Template == "" {
		writeError(w, errs.InvalidRequest("template is required"))
		return
	}

	req := engine.ComputeRequest{
		Engine:   body.Engine,
		TaskType: body.TaskType,
		Template: body.Template,
		Inputs:   body.Inputs,
		TimeoutS: body.TimeoutS,
	}

	result, err := s.dispatcher.Compute(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.ComputeRequests.WithLabelValues(body.Engine, body.Template, boolLabel(result.Success)).Inc()
	if !result.Success {
		metrics.EngineErrors.WithLabelValues(body.Engine).Inc()
	}

	writeJSON(w, http.StatusOK, computeResponseBody{
		Engine:    result.Engine,
		Success:   result.Success,
		TimeMS:    result.TimeMS,
		Result:    result.Result,
		Stdout:    result.Stdout,
		Stderr:    result.Stderr,
		Error:     result.Error,
		ErrorCode: result.ErrorCode,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	all := s.registry.All()
	available := s.registry.Available()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"service":           s.serviceTag,
		"uptime_seconds":    time.Since(s.startTime).Seconds(),
		"engines_total":     len(all),
		"engines_available": len(available),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	engines := make(map[string]any, len(s.registry.Names()))
	for _, e := range s.registry.All() {
		engines[e.Name()] = map[string]any{
			"available": e.IsAvailable(),
			"version":   e.Version(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":        s.serviceTag,
		"uptime_seconds": time.Since(s.startTime).Seconds(),
		"default_engine": s.dispatcher.DefaultEngine(),
		"engines":        engines,
		"resources":      sampleHostResources(),
	})
}

type engineInfo struct {
	Name               string   `json:"name"`
	Available          bool     `json:"available"`
	Version            string   `json:"version"`
	Capabilities       []string `json:"capabilities"`
	Description        string   `json:"description"`
	AvailabilityReason string   `json:"availability_reason,omitempty"`
}

func (s *Server) handleEngines(w http.ResponseWriter, r *http.Request) {
	out := make([]engineInfo, 0, len(s.registry.Names()))
	for _, e := range s.registry.All() {
		caps := make([]string, 0, len(e.Capabilities()))
		for _, c := range e.Capabilities() {
			caps = append(caps, string(c))
		}
		out = append(out, engineInfo{
			Name:               e.Name(),
			Available:          e.IsAvailable(),
			Version:            e.Version(),
			Capabilities:       caps,
			Description:        e.Description(),
			AvailabilityReason: e.AvailabilityReason(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"engines": out})
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
