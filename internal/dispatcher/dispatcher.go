// Package dispatcher implements the scheduler at the center of the
// service: engine selection for validate, bounded-concurrency parallel
// validation with per-engine isolation and order-preserving
// aggregation, and single-engine compute routing.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/r3e-network/cas-dispatch/internal/engine"
	"github.com/r3e-network/cas-dispatch/internal/errs"
	"github.com/r3e-network/cas-dispatch/internal/preprocess"
	"github.com/sirupsen/logrus"
)

// preferredOrder is the tie-break used to pick a default validation
// engine when no explicit override is configured, grounded on the
// reference service's "prefer sage, then sympy" fallback.
var preferredOrder = []string{"calc", "symbolic"}

// Dispatcher owns the engine registry and routes validate/compute
// requests to it.
type Dispatcher struct {
	registry      *engine.Registry
	defaultEngine string
	log           *logrus.Entry

	poolSize int
	sem      chan struct{}
}

// New builds a dispatcher over an already-populated registry. The
// default engine is computed once here per the startup rule: explicit
// override if present and available, else the first of preferredOrder
// that is available and validate-capable, else empty.
func New(reg *engine.Registry, defaultOverride string, log *logrus.Entry) *Dispatcher {
	def := reg.DefaultEngine(defaultOverride, preferredOrder)
	poolSize := len(reg.Names())
	if poolSize < 2 {
		poolSize = 2
	}
	return &Dispatcher{
		registry:      reg,
		defaultEngine: def,
		log:           log,
		poolSize:      poolSize,
		sem:           make(chan struct{}, poolSize),
	}
}

// DefaultEngine returns the computed default validate engine, or "" if
// none qualified.
func (d *Dispatcher) DefaultEngine() string { return d.defaultEngine }

// ValidateRequest is the dispatcher-level shape of a /validate call.
type ValidateRequest struct {
	Latex     string
	Engines   []string
	Consensus bool
}

// ValidateResponse is the dispatcher-level shape of a /validate reply.
type ValidateResponse struct {
	Results            []engine.ValidateResult
	Consensus          bool
	LatexPreprocessed  string
	TimeMS             int64
}

// Validate resolves engine selection, preprocesses the expression
// once, fans validation out (in parallel when more than one engine is
// selected), and returns results in selection order.
func (d *Dispatcher) Validate(ctx context.Context, req ValidateRequest) (*ValidateResponse, error) {
	start := time.Now()

	selected, err := d.selectValidateEngines(req)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, errs.NoEngines()
	}

	preprocessed := preprocess.Preprocess(req.Latex)
	results := d.validateParallel(ctx, selected, preprocessed)

	elapsed := time.Since(start).Milliseconds()

	successes := 0
	for _, r := range results {
		if r.Success {
			successes++
		}
	}
	d.log.WithFields(logrus.Fields{
		"endpoint":  "validate",
		"latex":     truncatePrefix(req.Latex, 50),
		"engines":   len(results),
		"success":   successes,
		"time_ms":   elapsed,
		"consensus": req.Consensus,
	}).Info("request handled")

	return &ValidateResponse{
		Results:           results,
		Consensus:         req.Consensus,
		LatexPreprocessed: preprocessed,
		TimeMS:            elapsed,
	}, nil
}

// selectValidateEngines implements §4.5's selection rule: explicit
// list (after existence check) → consensus (all available,
// validate-capable engines) → the default engine alone.
func (d *Dispatcher) selectValidateEngines(req ValidateRequest) ([]string, error) {
	if req.Engines != nil {
		var available []string
		for _, name := range d.registry.Names() {
			available = append(available, name)
		}
		for _, name := range req.Engines {
			if _, ok := d.registry.Get(name); !ok {
				return nil, errs.UnknownEngine(name, available)
			}
		}
		return req.Engines, nil
	}

	if req.Consensus {
		var names []string
		for _, e := range d.registry.Available() {
			if e.HasCapability(engine.CapValidate) {
				names = append(names, e.Name())
			}
		}
		return names, nil
	}

	if d.defaultEngine == "" {
		return nil, nil
	}
	return []string{d.defaultEngine}, nil
}

// validateParallel runs validate across the selected engines,
// preserving selection order in the returned slice regardless of
// completion order, per §5's ordering guarantee.
func (d *Dispatcher) validateParallel(ctx context.Context, names []string, preprocessed string) []engine.ValidateResult {
	results := make([]engine.ValidateResult, len(names))

	if len(names) <= 1 {
		for i, name := range names {
			results[i] = d.validateOne(ctx, name, preprocessed)
		}
		return results
	}

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		d.sem <- struct{}{}
		go func(i int, name string) {
			defer wg.Done()
			defer func() { <-d.sem }()
			results[i] = d.validateOne(ctx, name, preprocessed)
		}(i, name)
	}
	wg.Wait()
	return results
}

// validateOne invokes a single engine's validate, converting a panic
// into a failed result so that one engine can never take down its
// siblings or the caller.
func (d *Dispatcher) validateOne(ctx context.Context, name string, preprocessed string) (result engine.ValidateResult) {
	e, ok := d.registry.Get(name)
	if !ok {
		msg := fmt.Sprintf("unknown engine: %s", name)
		return engine.ValidateResult{Engine: name, Success: false, Error: &msg}
	}

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%v", r)
			result = engine.ValidateResult{Engine: name, Success: false, Error: &msg}
		}
	}()

	return e.Validate(ctx, preprocessed)
}

// Compute routes a single compute request to exactly one engine,
// checking existence, capability, and availability in that order.
func (d *Dispatcher) Compute(ctx context.Context, req engine.ComputeRequest) (engine.ComputeResult, error) {
	start := time.Now()

	e, ok := d.registry.Get(req.Engine)
	if !ok {
		var available []string
		available = append(available, d.registry.Names()...)
		return engine.ComputeResult{}, errs.UnknownEngine(req.Engine, available)
	}
	if !e.HasCapability(engine.CapCompute) {
		return engine.ComputeResult{}, errs.NotImplemented(fmt.Sprintf("engine %q does not support compute", req.Engine))
	}
	if !e.IsAvailable() {
		return engine.ComputeResult{}, errs.EngineUnavailable(req.Engine)
	}

	result := d.computeOne(ctx, e, req)

	elapsed := time.Since(start).Milliseconds()
	d.log.WithFields(logrus.Fields{
		"endpoint": "compute",
		"engine":   req.Engine,
		"template": req.Template,
		"success":  result.Success,
		"time_ms":  elapsed,
	}).Info("request handled")

	return result, nil
}

// computeOne isolates a single engine's compute call against a panic,
// matching the isolation discipline applied to validate.
func (d *Dispatcher) computeOne(ctx context.Context, e engine.Engine, req engine.ComputeRequest) (result engine.ComputeResult) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%v", r)
			result = engine.ComputeResult{Engine: req.Engine, Success: false, Error: &msg, ErrorCode: "ENGINE_ERROR"}
		}
	}()
	return e.Compute(ctx, req)
}

func truncatePrefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
