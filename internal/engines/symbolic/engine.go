// Package symbolic implements the in-process symbolic engine. It
// delegates to the symhelper subprocess (a goja-backed co-interpreter
// built from this module) rather than embedding the JS VM directly, so
// that one malformed expression can never crash the dispatcher process.
package symbolic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/r3e-network/cas-dispatch/internal/engine"
	"github.com/r3e-network/cas-dispatch/internal/executor"
	"github.com/r3e-network/cas-dispatch/internal/guard"
)

const engineName = "symbolic"

var capabilities = []engine.Capability{engine.CapValidate, engine.CapCompute}

var templates = map[string]engine.TemplateDescriptor{
	"evaluate":      {RequiredInputs: []string{"expression", "x"}, Description: "evaluate a polynomial at x"},
	"simplify":      {RequiredInputs: []string{"expression"}, Description: "combine like terms"},
	"solve":         {RequiredInputs: []string{"expression"}, Description: "find the roots of a linear or quadratic polynomial in x"},
	"factor":        {RequiredInputs: []string{"expression"}, Description: "factor a small-integer-root quadratic"},
	"differentiate": {RequiredInputs: []string{"expression"}, Description: "differentiate by the power rule"},
	"integrate":     {RequiredInputs: []string{"expression"}, Description: "integrate by the power rule"},
}

// Engine is the in-process symbolic engine.
type Engine struct {
	exec           *executor.Executor
	binaryPath     string
	defaultTimeout time.Duration

	availOnce sync.Once
	available bool
}

// New builds the symbolic engine. binaryPath is resolved via PATH if
// it contains no path separators.
func New(exec *executor.Executor, binaryPath string, defaultTimeout time.Duration) *Engine {
	return &Engine{exec: exec, binaryPath: binaryPath, defaultTimeout: defaultTimeout}
}

func (e *Engine) Name() string        { return engineName }
func (e *Engine) Description() string { return engine.DescribeTemplates(templates) }
func (e *Engine) Capabilities() []engine.Capability { return capabilities }
func (e *Engine) HasCapability(c engine.Capability) bool {
	return engine.HasCapability(capabilities, c)
}
func (e *Engine) Version() string           { return "symhelper-1.0" }
func (e *Engine) AvailabilityReason() string {
	if e.IsAvailable() {
		return ""
	}
	return fmt.Sprintf("binary %q not found on PATH", e.binaryPath)
}

// IsAvailable resolves the symhelper binary on PATH on the first call
// and caches the result, found or not, for the engine's lifetime.
func (e *Engine) IsAvailable() bool {
	e.availOnce.Do(func() {
		_, err := exec.LookPath(e.binaryPath)
		e.available = err == nil
	})
	return e.available
}

type payload struct {
	Mode   string            `json:"mode"`
	Latex  string            `json:"latex,omitempty"`
	Task   string            `json:"task,omitempty"`
	Inputs map[string]string `json:"inputs,omitempty"`
}

func (e *Engine) invoke(ctx context.Context, p payload, timeout time.Duration) (map[string]string, error) {
	encoded, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	b64 := base64.StdEncoding.EncodeToString(encoded)

	res := e.exec.Run(ctx, []string{e.binaryPath}, b64, timeout)
	if res.TimedOut {
		return nil, errTimeout
	}
	if res.NotFound {
		return nil, errUnavailable
	}
	return parseTags(res.Stdout), nil
}

var errTimeout = fmt.Errorf("symhelper timed out")
var errUnavailable = fmt.Errorf("symhelper binary unavailable")

func parseTags(stdout string) map[string]string {
	tags := make(map[string]string)
	for _, line := range strings.Split(stdout, "\n") {
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		key, value := line[:idx], line[idx+1:]
		switch key {
		case "SYM_RESULT", "SYM_VALID", "SYM_SIMPLIFIED", "SYM_PARSED", "SYM_ERROR":
			tags[key] = value
		}
	}
	return tags
}

// Validate implements engine.Engine.
func (e *Engine) Validate(ctx context.Context, preprocessed string) engine.ValidateResult {
	start := time.Now()
	if !e.IsAvailable() {
		msg := "symbolic engine unavailable"
		return engine.ValidateResult{Engine: engineName, Success: false, Error: &msg, TimeMS: elapsedMS(start)}
	}

	tags, err := e.invoke(ctx, payload{Mode: "validate", Latex: preprocessed}, e.defaultTimeout)
	if err != nil {
		msg := err.Error()
		return engine.ValidateResult{Engine: engineName, Success: false, Error: &msg, TimeMS: elapsedMS(start)}
	}
	if errMsg, ok := tags["SYM_ERROR"]; ok {
		return engine.ValidateResult{Engine: engineName, Success: false, Error: &errMsg, TimeMS: elapsedMS(start)}
	}

	result := engine.ValidateResult{Engine: engineName, Success: true, TimeMS: elapsedMS(start)}
	if v, ok := tags["SYM_VALID"]; ok {
		b := v == "true"
		result.IsValid = &b
	}
	if s, ok := tags["SYM_SIMPLIFIED"]; ok {
		result.Simplified = &s
	}
	if p, ok := tags["SYM_PARSED"]; ok {
		result.OriginalParsed = &p
	}
	return result
}

// Compute implements engine.Engine.
func (e *Engine) Compute(ctx context.Context, req engine.ComputeRequest) engine.ComputeResult {
	start := time.Now()

	if !e.IsAvailable() {
		msg := "symbolic engine unavailable"
		return engine.ComputeResult{Engine: engineName, Success: false, Error: &msg, ErrorCode: "ENGINE_UNAVAILABLE", TimeMS: elapsedMS(start)}
	}

	tmpl, ok := templates[req.Template]
	if !ok {
		msg := fmt.Sprintf("unknown template: %s", req.Template)
		return engine.ComputeResult{Engine: engineName, Success: false, Error: &msg, ErrorCode: "UNKNOWN_TEMPLATE", TimeMS: elapsedMS(start)}
	}
	for _, key := range tmpl.RequiredInputs {
		if _, present := req.Inputs[key]; !present {
			msg := fmt.Sprintf("missing required input: %s", key)
			return engine.ComputeResult{Engine: engineName, Success: false, Error: &msg, ErrorCode: "MISSING_INPUT", TimeMS: elapsedMS(start)}
		}
	}
	for key, value := range req.Inputs {
		if !guard.Symbolic.Validate(value) {
			msg := fmt.Sprintf("invalid input value for %q", key)
			return engine.ComputeResult{Engine: engineName, Success: false, Error: &msg, ErrorCode: "INVALID_INPUT", TimeMS: elapsedMS(start)}
		}
	}

	timeout := e.defaultTimeout
	if req.TimeoutS > 0 {
		if requested := time.Duration(req.TimeoutS * float64(time.Second)); requested < timeout {
			timeout = requested
		}
	}

	tags, err := e.invoke(ctx, payload{Mode: "compute", Task: req.Template, Inputs: req.Inputs}, timeout)
	if err == errTimeout {
		msg := "computation timed out"
		return engine.ComputeResult{Engine: engineName, Success: false, Error: &msg, ErrorCode: "TIMEOUT", TimeMS: elapsedMS(start)}
	}
	if err != nil {
		msg := err.Error()
		return engine.ComputeResult{Engine: engineName, Success: false, Error: &msg, ErrorCode: "ENGINE_ERROR", TimeMS: elapsedMS(start)}
	}
	if errMsg, ok := tags["SYM_ERROR"]; ok {
		return engine.ComputeResult{Engine: engineName, Success: false, Error: &errMsg, ErrorCode: "ENGINE_ERROR", TimeMS: elapsedMS(start)}
	}

	value := tags["SYM_RESULT"]
	return engine.ComputeResult{
		Engine:  engineName,
		Success: true,
		Result:  map[string]any{"value": value},
		TimeMS:  elapsedMS(start),
	}
}

// Templates exposes the engine's template table for wire-adapter introspection.
func Templates() map[string]engine.TemplateDescriptor { return templates }

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
