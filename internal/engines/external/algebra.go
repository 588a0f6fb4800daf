package external

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/r3e-network/cas-dispatch/internal/engine"
	"github.com/r3e-network/cas-dispatch/internal/executor"
	"github.com/r3e-network/cas-dispatch/internal/guard"
)

var algebraTemplates = map[string]engine.TemplateDescriptor{
	"group_order": {RequiredInputs: []string{"group_expr"}, Description: "order of a group"},
	"is_abelian":  {RequiredInputs: []string{"group_expr"}, Description: "whether a group is abelian"},
	"center_size": {RequiredInputs: []string{"group_expr"}, Description: "size of a group's center"},
}

var algebraCommands = map[string]string{
	"group_order": "Print(Size(%s));",
	"is_abelian":  "Print(IsAbelian(%s));",
	"center_size": "Print(Size(Center(%s)));",
}

// AlgebraEngine wraps an external GAP-like group-theory binary. Unlike
// calc, it is compute-only: the backing tool has no notion of LaTeX
// formula validation.
type AlgebraEngine struct {
	exec       *executor.Executor
	binaryPath string
	timeout    time.Duration

	availOnce sync.Once
	available bool
}

// NewAlgebra builds the algebra engine.
func NewAlgebra(e *executor.Executor, binaryPath string, timeout time.Duration) *AlgebraEngine {
	return &AlgebraEngine{exec: e, binaryPath: binaryPath, timeout: timeout}
}

var algebraCapabilities = []engine.Capability{engine.CapCompute}

func (a *AlgebraEngine) Name() string        { return "algebra" }
func (a *AlgebraEngine) Description() string { return engine.DescribeTemplates(algebraTemplates) }
func (a *AlgebraEngine) Capabilities() []engine.Capability { return algebraCapabilities }
func (a *AlgebraEngine) HasCapability(cap engine.Capability) bool {
	return engine.HasCapability(algebraCapabilities, cap)
}
func (a *AlgebraEngine) Version() string { return "algebra-compat-1.0" }
func (a *AlgebraEngine) AvailabilityReason() string {
	if a.IsAvailable() {
		return ""
	}
	return fmt.Sprintf("binary %q not found on PATH", a.binaryPath)
}

func (a *AlgebraEngine) IsAvailable() bool {
	a.availOnce.Do(func() {
		_, err := exec.LookPath(a.binaryPath)
		a.available = err == nil
	})
	return a.available
}

// Validate is not implemented: group-theory formulas have no LaTeX
// validation notion in this engine, matching the original's stub.
func (a *AlgebraEngine) Validate(ctx context.Context, preprocessed string) engine.ValidateResult {
	msg := "algebra engine does not support formula validation"
	return engine.ValidateResult{Engine: "algebra", Success: false, Error: &msg}
}

// Compute implements the shared template dispatch (spec §4.4.4).
func (a *AlgebraEngine) Compute(ctx context.Context, req engine.ComputeRequest) engine.ComputeResult {
	start := time.Now()

	if !a.IsAvailable() {
		msg := "algebra engine unavailable"
		return engine.ComputeResult{Engine: "algebra", Success: false, Error: &msg, ErrorCode: "ENGINE_UNAVAILABLE", TimeMS: elapsedMS(start)}
	}

	tmpl, ok := algebraTemplates[req.Template]
	if !ok {
		msg := fmt.Sprintf("unknown template: %s", req.Template)
		return engine.ComputeResult{Engine: "algebra", Success: false, Error: &msg, ErrorCode: "UNKNOWN_TEMPLATE", TimeMS: elapsedMS(start)}
	}
	for _, key := range tmpl.RequiredInputs {
		if _, present := req.Inputs[key]; !present {
			msg := fmt.Sprintf("missing required input: %s", key)
			return engine.ComputeResult{Engine: "algebra", Success: false, Error: &msg, ErrorCode: "MISSING_INPUT", TimeMS: elapsedMS(start)}
		}
	}
	for key, value := range req.Inputs {
		if !guard.Algebra.Validate(value) {
			msg := fmt.Sprintf("invalid input value for %q", key)
			return engine.ComputeResult{Engine: "algebra", Success: false, Error: &msg, ErrorCode: "INVALID_INPUT", TimeMS: elapsedMS(start)}
		}
	}

	timeout := a.timeout
	if req.TimeoutS > 0 {
		if requested := time.Duration(req.TimeoutS * float64(time.Second)); requested < timeout {
			timeout = requested
		}
	}

	code := fmt.Sprintf(algebraCommands[req.Template], req.Inputs["group_expr"])
	script := code + "\nQUIT;\n"

	res := a.exec.Run(ctx, []string{a.binaryPath, "-q", "-b"}, script, timeout)
	if res.TimedOut {
		msg := "algebra engine timed out"
		return engine.ComputeResult{Engine: "algebra", Success: false, Error: &msg, ErrorCode: "TIMEOUT", TimeMS: elapsedMS(start)}
	}
	if res.NotFound {
		msg := fmt.Sprintf("algebra binary not found: %s", a.binaryPath)
		return engine.ComputeResult{Engine: "algebra", Success: false, Error: &msg, ErrorCode: "ENGINE_UNAVAILABLE", TimeMS: elapsedMS(start)}
	}
	if res.ExitCode != 0 {
		msg := fmt.Sprintf("non-zero exit (%d): %s", res.ExitCode, strings.TrimSpace(res.Stderr))
		return engine.ComputeResult{Engine: "algebra", Success: false, Error: &msg, ErrorCode: "ENGINE_ERROR", TimeMS: elapsedMS(start)}
	}

	value := strings.TrimSpace(res.Stdout)
	if value == "" {
		msg := "algebra engine produced no output"
		return engine.ComputeResult{Engine: "algebra", Success: false, Error: &msg, ErrorCode: "ENGINE_ERROR", TimeMS: elapsedMS(start)}
	}

	return engine.ComputeResult{
		Engine:  "algebra",
		Success: true,
		Result:  map[string]any{"value": value},
		TimeMS:  elapsedMS(start),
	}
}

// Templates exposes algebra's template table for wire-adapter introspection.
func AlgebraTemplates() map[string]engine.TemplateDescriptor { return algebraTemplates }
