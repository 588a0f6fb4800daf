// Package oracle implements the optional remote compute engine: a
// WolframAlpha-style HTTP oracle used only when an API key is
// configured. It never participates in validation consensus.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/r3e-network/cas-dispatch/internal/engine"
	"github.com/tidwall/gjson"
)

// apiURL is a var, not a const, so tests can point it at a local
// httptest.Server instead of the real WolframAlpha endpoint.
var apiURL = "https://api.wolframalpha.com/v2/query"

var templates = map[string]engine.TemplateDescriptor{
	"evaluate": {RequiredInputs: []string{"expression"}, Description: "evaluate a mathematical expression"},
	"solve":    {RequiredInputs: []string{"equation"}, Description: "solve an equation"},
	"simplify": {RequiredInputs: []string{"expression"}, Description: "simplify a mathematical expression"},
}

func buildQuery(template string, inputs map[string]string) string {
	switch template {
	case "evaluate":
		return inputs["expression"]
	case "solve":
		return fmt.Sprintf("solve %s", inputs["equation"])
	case "simplify":
		return fmt.Sprintf("simplify %s", inputs["expression"])
	default:
		return ""
	}
}

// pods preferred for the primary result, checked in order.
var preferredPods = []string{"Result", "DecimalApproximation", "Solution"}

var capabilities = []engine.Capability{engine.CapCompute, engine.CapRemote}

// Engine is the WolframAlpha-style remote oracle.
type Engine struct {
	appID      string
	timeout    time.Duration
	httpClient *http.Client
}

// New builds the oracle engine. It is available only when appID is
// non-empty.
func New(appID string, timeout time.Duration) *Engine {
	return &Engine{appID: appID, timeout: timeout, httpClient: &http.Client{Timeout: timeout}}
}

func (e *Engine) Name() string        { return "oracle" }
func (e *Engine) Description() string { return engine.DescribeTemplates(templates) }
func (e *Engine) Capabilities() []engine.Capability { return capabilities }
func (e *Engine) HasCapability(c engine.Capability) bool {
	return engine.HasCapability(capabilities, c)
}
func (e *Engine) Version() string    { return "v2-api" }
func (e *Engine) IsAvailable() bool  { return e.appID != "" }
func (e *Engine) AvailabilityReason() string {
	if e.IsAvailable() {
		return ""
	}
	return "missing oracle API key"
}

// Validate is not implemented: the oracle never participates in the
// validation consensus.
func (e *Engine) Validate(ctx context.Context, preprocessed string) engine.ValidateResult {
	msg := "oracle is not part of the validation consensus"
	return engine.ValidateResult{Engine: "oracle", Success: false, Error: &msg}
}

// Compute implements the shared template dispatch (spec §4.4.4),
// issuing a GET against the WolframAlpha Full Results API.
func (e *Engine) Compute(ctx context.Context, req engine.ComputeRequest) engine.ComputeResult {
	start := time.Now()

	if !e.IsAvailable() {
		msg := "oracle API key not configured"
		return engine.ComputeResult{Engine: "oracle", Success: false, Error: &msg, ErrorCode: "ENGINE_UNAVAILABLE", TimeMS: elapsedMS(start)}
	}

	tmpl, ok := templates[req.Template]
	if !ok {
		msg := fmt.Sprintf("unknown template: %s", req.Template)
		return engine.ComputeResult{Engine: "oracle", Success: false, Error: &msg, ErrorCode: "UNKNOWN_TEMPLATE", TimeMS: elapsedMS(start)}
	}
	for _, key := range tmpl.RequiredInputs {
		if _, present := req.Inputs[key]; !present {
			msg := fmt.Sprintf("missing required input: %s", key)
			return engine.ComputeResult{Engine: "oracle", Success: false, Error: &msg, ErrorCode: "MISSING_INPUT", TimeMS: elapsedMS(start)}
		}
	}

	query := buildQuery(req.Template, req.Inputs)

	timeout := e.timeout
	if req.TimeoutS > 0 {
		if requested := time.Duration(req.TimeoutS * float64(time.Second)); requested < timeout {
			timeout = requested
		}
	}

	return e.callAPI(ctx, query, timeout, start)
}

func (e *Engine) callAPI(ctx context.Context, query string, timeout time.Duration, start time.Time) engine.ComputeResult {
	params := url.Values{}
	params.Set("input", query)
	params.Set("appid", e.appID)
	params.Set("format", "plaintext")
	params.Set("output", "json")

	reqURL := apiURL + "?" + params.Encode()

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		msg := err.Error()
		return engine.ComputeResult{Engine: "oracle", Success: false, Error: &msg, ErrorCode: "REMOTE_ERROR", TimeMS: elapsedMS(start)}
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		elapsed := elapsedMS(start)
		if errors.Is(err, context.DeadlineExceeded) {
			msg := fmt.Sprintf("oracle timed out after %s", timeout)
			return engine.ComputeResult{Engine: "oracle", Success: false, Error: &msg, ErrorCode: "TIMEOUT", TimeMS: elapsed}
		}
		msg := fmt.Sprintf("network error: %s", err.Error())
		return engine.ComputeResult{Engine: "oracle", Success: false, Error: &msg, ErrorCode: "NETWORK_ERROR", TimeMS: elapsed}
	}
	defer resp.Body.Close()

	elapsed := elapsedMS(start)

	if resp.StatusCode == http.StatusForbidden {
		msg := "oracle API: invalid or expired AppID"
		return engine.ComputeResult{Engine: "oracle", Success: false, Error: &msg, ErrorCode: "AUTH_ERROR", TimeMS: elapsed}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("oracle API HTTP %d", resp.StatusCode)
		return engine.ComputeResult{Engine: "oracle", Success: false, Error: &msg, ErrorCode: "REMOTE_ERROR", TimeMS: elapsed}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		msg := fmt.Sprintf("reading oracle response: %s", err.Error())
		return engine.ComputeResult{Engine: "oracle", Success: false, Error: &msg, ErrorCode: "REMOTE_ERROR", TimeMS: elapsed}
	}

	return parseResponse(raw, elapsed)
}

func parseResponse(raw []byte, elapsed int64) engine.ComputeResult {
	qr := gjson.GetBytes(raw, "queryresult")
	if !qr.Get("success").Bool() {
		msg := "oracle could not interpret the query"
		tips, _ := json.Marshal(qr.Get("tips").Value())
		return engine.ComputeResult{
			Engine: "oracle", Success: false, Error: &msg, ErrorCode: "QUERY_FAILED",
			TimeMS: elapsed, Stdout: string(tips),
		}
	}

	pods := qr.Get("pods").Array()

	var resultText string
	for _, wantID := range preferredPods {
		for _, pod := range pods {
			if pod.Get("id").String() != wantID {
				continue
			}
			if sp := pod.Get("subpods.0.plaintext").String(); sp != "" {
				resultText = sp
			}
		}
		if resultText != "" {
			break
		}
	}

	if resultText == "" {
		for _, pod := range pods {
			if pod.Get("id").String() == "Input" {
				continue
			}
			if sp := pod.Get("subpods.0.plaintext").String(); sp != "" {
				resultText = sp
				break
			}
		}
	}

	if resultText == "" {
		msg := "no result found in oracle response"
		return engine.ComputeResult{Engine: "oracle", Success: false, Error: &msg, ErrorCode: "NO_RESULT", TimeMS: elapsed, Stdout: qr.Raw}
	}

	return engine.ComputeResult{
		Engine:  "oracle",
		Success: true,
		TimeMS:  elapsed,
		Result:  map[string]any{"value": resultText},
		Stdout:  resultText,
	}
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// Templates exposes oracle's template table for wire-adapter introspection.
func Templates() map[string]engine.TemplateDescriptor { return templates }
