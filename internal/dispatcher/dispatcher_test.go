package dispatcher

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/r3e-network/cas-dispatch/internal/engine"
	"github.com/r3e-network/cas-dispatch/internal/errs"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine is a minimal test double implementing engine.Engine.
type fakeEngine struct {
	name      string
	caps      []engine.Capability
	available bool
	delay     time.Duration
	panicOn   bool
	validate  func(ctx context.Context, s string) engine.ValidateResult
	compute   func(ctx context.Context, r engine.ComputeRequest) engine.ComputeResult
}

func (f *fakeEngine) Name() string        { return f.name }
func (f *fakeEngine) Description() string { return "" }
func (f *fakeEngine) Capabilities() []engine.Capability { return f.caps }
func (f *fakeEngine) HasCapability(c engine.Capability) bool {
	return engine.HasCapability(f.caps, c)
}
func (f *fakeEngine) IsAvailable() bool           { return f.available }
func (f *fakeEngine) Version() string             { return "test-1.0" }
func (f *fakeEngine) AvailabilityReason() string  { return "" }

func (f *fakeEngine) Validate(ctx context.Context, s string) engine.ValidateResult {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panicOn {
		panic("simulated engine panic")
	}
	if f.validate != nil {
		return f.validate(ctx, s)
	}
	return engine.ValidateResult{Engine: f.name, Success: true}
}

func (f *fakeEngine) Compute(ctx context.Context, r engine.ComputeRequest) engine.ComputeResult {
	if f.compute != nil {
		return f.compute(ctx, r)
	}
	return engine.ComputeResult{Engine: f.name, Success: true}
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestSelectValidateEngines_ExplicitListUnknownEngine(t *testing.T) {
	reg := engine.NewRegistry()
	reg.Register(&fakeEngine{name: "a", caps: []engine.Capability{engine.CapValidate}, available: true})
	d := New(reg, "", testLogger())

	_, err := d.Validate(context.Background(), ValidateRequest{Latex: "x", Engines: []string{"nosuch"}})
	require.Error(t, err)
	se := errs.As(err)
	require.NotNil(t, se)
	assert.Equal(t, errs.CodeUnknownEngine, se.Code)
	assert.NotEmpty(t, se.Details["available"])
}

func TestValidate_NoEnginesSelected(t *testing.T) {
	reg := engine.NewRegistry()
	d := New(reg, "", testLogger())

	_, err := d.Validate(context.Background(), ValidateRequest{Latex: "x"})
	require.Error(t, err)
	se := errs.As(err)
	require.NotNil(t, se)
	assert.Equal(t, errs.CodeNoEngines, se.Code)
}

func TestValidate_ExplicitListPreservesOrder(t *testing.T) {
	reg := engine.NewRegistry()
	slow := &fakeEngine{name: "slow", caps: []engine.Capability{engine.CapValidate}, available: true, delay: 30 * time.Millisecond}
	fast := &fakeEngine{name: "fast", caps: []engine.Capability{engine.CapValidate}, available: true}
	reg.Register(slow)
	reg.Register(fast)
	d := New(reg, "", testLogger())

	resp, err := d.Validate(context.Background(), ValidateRequest{Latex: "x", Engines: []string{"slow", "fast"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "slow", resp.Results[0].Engine)
	assert.Equal(t, "fast", resp.Results[1].Engine)
}

func TestValidate_PanicIsolatedFromSibling(t *testing.T) {
	reg := engine.NewRegistry()
	bad := &fakeEngine{name: "bad", caps: []engine.Capability{engine.CapValidate}, available: true, panicOn: true}
	good := &fakeEngine{name: "good", caps: []engine.Capability{engine.CapValidate}, available: true}
	reg.Register(bad)
	reg.Register(good)
	d := New(reg, "", testLogger())

	resp, err := d.Validate(context.Background(), ValidateRequest{Latex: "x", Engines: []string{"bad", "good"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.False(t, resp.Results[0].Success)
	assert.True(t, resp.Results[1].Success)
}

func TestValidate_ConsensusSelectsAllAvailableValidateCapable(t *testing.T) {
	reg := engine.NewRegistry()
	reg.Register(&fakeEngine{name: "a", caps: []engine.Capability{engine.CapValidate}, available: true})
	reg.Register(&fakeEngine{name: "b", caps: []engine.Capability{engine.CapCompute}, available: true})
	reg.Register(&fakeEngine{name: "c", caps: []engine.Capability{engine.CapValidate}, available: false})
	d := New(reg, "", testLogger())

	resp, err := d.Validate(context.Background(), ValidateRequest{Latex: "x", Consensus: true})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "a", resp.Results[0].Engine)
}

func TestValidate_DefaultEngineOnly(t *testing.T) {
	reg := engine.NewRegistry()
	reg.Register(&fakeEngine{name: "calc", caps: []engine.Capability{engine.CapValidate}, available: true})
	d := New(reg, "", testLogger())
	require.Equal(t, "calc", d.DefaultEngine())

	resp, err := d.Validate(context.Background(), ValidateRequest{Latex: "x"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "calc", resp.Results[0].Engine)
}

func TestCompute_UnknownEngine(t *testing.T) {
	reg := engine.NewRegistry()
	d := New(reg, "", testLogger())

	_, err := d.Compute(context.Background(), engine.ComputeRequest{Engine: "nosuch", Template: "x"})
	require.Error(t, err)
	se := errs.As(err)
	require.NotNil(t, se)
	assert.Equal(t, errs.CodeUnknownEngine, se.Code)
}

func TestCompute_LacksCapability(t *testing.T) {
	reg := engine.NewRegistry()
	reg.Register(&fakeEngine{name: "validate_only", caps: []engine.Capability{engine.CapValidate}, available: true})
	d := New(reg, "", testLogger())

	_, err := d.Compute(context.Background(), engine.ComputeRequest{Engine: "validate_only", Template: "echo"})
	require.Error(t, err)
	se := errs.As(err)
	require.NotNil(t, se)
	assert.Equal(t, errs.CodeNotImplemented, se.Code)
}

func TestCompute_EngineUnavailable(t *testing.T) {
	reg := engine.NewRegistry()
	reg.Register(&fakeEngine{name: "e", caps: []engine.Capability{engine.CapCompute}, available: false})
	d := New(reg, "", testLogger())

	_, err := d.Compute(context.Background(), engine.ComputeRequest{Engine: "e", Template: "echo"})
	require.Error(t, err)
	se := errs.As(err)
	require.NotNil(t, se)
	assert.Equal(t, errs.CodeEngineUnavailable, se.Code)
}

func TestCompute_DelegatesToEngineVerbatim(t *testing.T) {
	reg := engine.NewRegistry()
	reg.Register(&fakeEngine{
		name: "e", caps: []engine.Capability{engine.CapCompute}, available: true,
		compute: func(ctx context.Context, r engine.ComputeRequest) engine.ComputeResult {
			return engine.ComputeResult{Engine: "e", Success: false, ErrorCode: "UNKNOWN_TEMPLATE"}
		},
	})
	d := New(reg, "", testLogger())

	res, err := d.Compute(context.Background(), engine.ComputeRequest{Engine: "e", Template: "nonexistent"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "UNKNOWN_TEMPLATE", res.ErrorCode)
}

func TestCompute_PanicIsolated(t *testing.T) {
	reg := engine.NewRegistry()
	reg.Register(&fakeEngine{
		name: "e", caps: []engine.Capability{engine.CapCompute}, available: true,
		compute: func(ctx context.Context, r engine.ComputeRequest) engine.ComputeResult {
			panic("boom")
		},
	})
	d := New(reg, "", testLogger())

	res, err := d.Compute(context.Background(), engine.ComputeRequest{Engine: "e", Template: "x"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "ENGINE_ERROR", res.ErrorCode)
}
