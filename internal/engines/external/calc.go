// Package external implements the external-binary CAS engines: calc
// (a Maxima-like symbolic calculator) and algebra (a GAP-like
// group-theory engine). Both drive their backing binary over standard
// input through the shared subprocess executor.
package external

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/r3e-network/cas-dispatch/internal/engine"
	"github.com/r3e-network/cas-dispatch/internal/engines/convert"
	"github.com/r3e-network/cas-dispatch/internal/executor"
	"github.com/r3e-network/cas-dispatch/internal/guard"
	"github.com/r3e-network/cas-dispatch/internal/preprocess"
)

var calcConvertTable = convert.Table{GreekSigil: "%", LogStyle: convert.LogNatural, LogName: "log"}

var equationRE = regexp.MustCompile(`(?:[^<>!:=]|^)=(?:[^=]|$)`)

var calcTemplates = map[string]engine.TemplateDescriptor{
	"simplify":      {RequiredInputs: []string{"expression"}, Description: "simplify via ratsimp"},
	"solve":         {RequiredInputs: []string{"expression", "variable"}, Description: "solve for a variable"},
	"differentiate": {RequiredInputs: []string{"expression", "variable"}, Description: "differentiate with respect to a variable"},
	"integrate":     {RequiredInputs: []string{"expression", "variable"}, Description: "integrate with respect to a variable"},
	"evaluate":      {RequiredInputs: []string{"expression"}, Description: "numerically evaluate an expression"},
}

// CalcEngine wraps an external Maxima-like calculator binary.
type CalcEngine struct {
	exec       *executor.Executor
	binaryPath string
	timeout    time.Duration

	availOnce sync.Once
	available bool
}

// NewCalc builds the calc engine.
func NewCalc(e *executor.Executor, binaryPath string, timeout time.Duration) *CalcEngine {
	return &CalcEngine{exec: e, binaryPath: binaryPath, timeout: timeout}
}

var calcCapabilities = []engine.Capability{engine.CapValidate, engine.CapCompute}

func (c *CalcEngine) Name() string        { return "calc" }
func (c *CalcEngine) Description() string { return engine.DescribeTemplates(calcTemplates) }
func (c *CalcEngine) Capabilities() []engine.Capability { return calcCapabilities }
func (c *CalcEngine) HasCapability(cap engine.Capability) bool {
	return engine.HasCapability(calcCapabilities, cap)
}
func (c *CalcEngine) Version() string { return "calc-compat-1.0" }
func (c *CalcEngine) AvailabilityReason() string {
	if c.IsAvailable() {
		return ""
	}
	return fmt.Sprintf("binary %q not found on PATH", c.binaryPath)
}

func (c *CalcEngine) IsAvailable() bool {
	c.availOnce.Do(func() {
		_, err := exec.LookPath(c.binaryPath)
		c.available = err == nil
	})
	return c.available
}

// Validate converts preprocessed LaTeX to the calculator's native
// syntax, detects whether it is an equation, and runs a simplification
// command through the backing binary.
func (c *CalcEngine) Validate(ctx context.Context, preprocessed string) engine.ValidateResult {
	start := time.Now()
	if !c.IsAvailable() {
		msg := "calc engine unavailable"
		return engine.ValidateResult{Engine: "calc", Success: false, Error: &msg, TimeMS: elapsedMS(start)}
	}

	native := calcConvertTable.Convert(preprocessed)
	if strings.TrimSpace(native) == "" {
		msg := "empty expression after conversion"
		return engine.ValidateResult{Engine: "calc", Success: false, Error: &msg, TimeMS: elapsedMS(start)}
	}

	isEquation := equationRE.MatchString(preprocessed)
	var command string
	if isEquation {
		parts := strings.SplitN(native, "=", 2)
		lhs, rhs := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		command = fmt.Sprintf("ratsimp(%s - (%s));", lhs, rhs)
	} else {
		command = fmt.Sprintf("ratsimp(%s);", native)
	}

	out, err := c.runBatch(ctx, command, c.timeout)
	if err != nil {
		msg := err.Error()
		return engine.ValidateResult{Engine: "calc", Success: false, Error: &msg, TimeMS: elapsedMS(start)}
	}

	result := engine.ValidateResult{Engine: "calc", Success: true, TimeMS: elapsedMS(start)}
	simplified := strings.TrimSpace(out)
	result.Simplified = &simplified
	result.OriginalParsed = &native
	if isEquation {
		valid := simplified == "0"
		result.IsValid = &valid
	} else {
		valid := true
		result.IsValid = &valid
	}
	return result
}

// Compute implements the shared template dispatch (spec §4.4.4).
func (c *CalcEngine) Compute(ctx context.Context, req engine.ComputeRequest) engine.ComputeResult {
	start := time.Now()

	if !c.IsAvailable() {
		msg := "calc engine unavailable"
		return engine.ComputeResult{Engine: "calc", Success: false, Error: &msg, ErrorCode: "ENGINE_UNAVAILABLE", TimeMS: elapsedMS(start)}
	}

	tmpl, ok := calcTemplates[req.Template]
	if !ok {
		msg := fmt.Sprintf("unknown template: %s", req.Template)
		return engine.ComputeResult{Engine: "calc", Success: false, Error: &msg, ErrorCode: "UNKNOWN_TEMPLATE", TimeMS: elapsedMS(start)}
	}
	for _, key := range tmpl.RequiredInputs {
		if _, present := req.Inputs[key]; !present {
			msg := fmt.Sprintf("missing required input: %s", key)
			return engine.ComputeResult{Engine: "calc", Success: false, Error: &msg, ErrorCode: "MISSING_INPUT", TimeMS: elapsedMS(start)}
		}
	}
	for key, value := range req.Inputs {
		if !guard.Calc.Validate(value) {
			msg := fmt.Sprintf("invalid input value for %q", key)
			return engine.ComputeResult{Engine: "calc", Success: false, Error: &msg, ErrorCode: "INVALID_INPUT", TimeMS: elapsedMS(start)}
		}
	}

	timeout := c.timeout
	if req.TimeoutS > 0 {
		if requested := time.Duration(req.TimeoutS * float64(time.Second)); requested < timeout {
			timeout = requested
		}
	}

	expr := calcConvertTable.Convert(preprocess.Preprocess(req.Inputs["expression"]))
	variable := req.Inputs["variable"]

	command := calcCommand(req.Template, expr, variable)
	out, err := c.runBatch(ctx, command, timeout)
	if err != nil {
		if err == errCalcTimeout {
			msg := "calc engine timed out"
			return engine.ComputeResult{Engine: "calc", Success: false, Error: &msg, ErrorCode: "TIMEOUT", TimeMS: elapsedMS(start)}
		}
		msg := err.Error()
		return engine.ComputeResult{Engine: "calc", Success: false, Error: &msg, ErrorCode: "ENGINE_ERROR", TimeMS: elapsedMS(start)}
	}

	return engine.ComputeResult{
		Engine:  "calc",
		Success: true,
		Result:  map[string]any{"value": strings.TrimSpace(out)},
		TimeMS:  elapsedMS(start),
	}
}

func calcCommand(template, expr, variable string) string {
	switch template {
	case "simplify":
		return fmt.Sprintf("ratsimp(%s);", expr)
	case "evaluate":
		return fmt.Sprintf("float(ev(%s, numer));", expr)
	case "solve":
		return fmt.Sprintf("solve(%s, %s);", expr, variable)
	case "differentiate":
		return fmt.Sprintf("diff(%s, %s);", expr, variable)
	case "integrate":
		return fmt.Sprintf("integrate(%s, %s);", expr, variable)
	default:
		return fmt.Sprintf("ratsimp(%s);", expr)
	}
}

var errCalcTimeout = fmt.Errorf("calc engine timed out")

// runBatch executes a single Maxima-style batch command and extracts
// its trailing `(%oN) value` output line.
func (c *CalcEngine) runBatch(ctx context.Context, command string, timeout time.Duration) (string, error) {
	res := c.exec.Run(ctx, []string{c.binaryPath, "--very-quiet"}, command, timeout)
	if res.TimedOut {
		return "", errCalcTimeout
	}
	if res.NotFound {
		return "", fmt.Errorf("calc binary not found: %s", c.binaryPath)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("non-zero exit (%d): %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return extractMaximaOutput(res.Stdout)
}

var outputLabelRE = regexp.MustCompile(`^\(%o\d+\)\s*(.*)$`)

func extractMaximaOutput(stdout string) (string, error) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "(%i") {
			continue
		}
		if m := outputLabelRE.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1]), nil
		}
		return line, nil
	}
	return "", fmt.Errorf("no parseable output")
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// Templates exposes calc's template table for wire-adapter introspection.
func CalcTemplates() map[string]engine.TemplateDescriptor { return calcTemplates }
