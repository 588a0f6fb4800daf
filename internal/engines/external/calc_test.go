package external

import (
	"context"
	"testing"
	"time"

	"github.com/r3e-network/cas-dispatch/internal/engine"
	"github.com/r3e-network/cas-dispatch/internal/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcEngine_IsAvailable_FalseForUnresolvableBinary(t *testing.T) {
	ex := executor.New(time.Second, 64*1024, 10)
	c := NewCalc(ex, "definitely-not-a-real-maxima-binary-xyz", time.Second)
	require.False(t, c.IsAvailable())
	assert.Contains(t, c.AvailabilityReason(), "not found")
}

func TestCalcEngine_Validate_UnavailableEngine(t *testing.T) {
	ex := executor.New(time.Second, 64*1024, 10)
	c := NewCalc(ex, "definitely-not-a-real-maxima-binary-xyz", time.Second)
	res := c.Validate(context.Background(), "x+1")
	assert.False(t, res.Success)
}

func TestCalcEngine_Compute_UnknownTemplate(t *testing.T) {
	ex := executor.New(time.Second, 64*1024, 10)
	c := NewCalc(ex, "echo", time.Second)

	req := engine.ComputeRequest{Engine: "calc", TaskType: "template", Template: "nonexistent"}
	res := c.Compute(context.Background(), req)
	assert.False(t, res.Success)
	assert.Equal(t, "UNKNOWN_TEMPLATE", res.ErrorCode)
}

func TestCalcEngine_Compute_MissingRequiredInput(t *testing.T) {
	ex := executor.New(time.Second, 64*1024, 10)
	c := NewCalc(ex, "echo", time.Second)

	req := engine.ComputeRequest{Engine: "calc", TaskType: "template", Template: "solve", Inputs: map[string]string{"expression": "x+1"}}
	res := c.Compute(context.Background(), req)
	assert.False(t, res.Success)
	assert.Equal(t, "MISSING_INPUT", res.ErrorCode)
}

func TestCalcEngine_Compute_BlockedInput(t *testing.T) {
	ex := executor.New(time.Second, 64*1024, 10)
	c := NewCalc(ex, "echo", time.Second)

	req := engine.ComputeRequest{
		Engine:   "calc",
		TaskType: "template",
		Template: "simplify",
		Inputs:   map[string]string{"expression": "system(\"rm -rf /\")"},
	}
	res := c.Compute(context.Background(), req)
	assert.False(t, res.Success)
	assert.Equal(t, "INVALID_INPUT", res.ErrorCode)
}

func TestExtractMaximaOutput_StripsOutputLabel(t *testing.T) {
	stdout := "(%i1) ratsimp(x+x);\n(%o1) 2*x\n"
	out, err := extractMaximaOutput(stdout)
	require.NoError(t, err)
	assert.Equal(t, "2*x", out)
}

func TestExtractMaximaOutput_NoParseableLines(t *testing.T) {
	_, err := extractMaximaOutput("(%i1) foo;\n")
	assert.Error(t, err)
}

func TestCalcCommand_Dispatch(t *testing.T) {
	assert.Equal(t, "solve(x+1, x);", calcCommand("solve", "x+1", "x"))
	assert.Equal(t, "diff(x^2, x);", calcCommand("differentiate", "x^2", "x"))
	assert.Equal(t, "integrate(x^2, x);", calcCommand("integrate", "x^2", "x"))
	assert.Equal(t, "ratsimp(x+1);", calcCommand("simplify", "x+1", ""))
	assert.Equal(t, "float(ev(x+1, numer));", calcCommand("evaluate", "x+1", ""))
}
