// Package engine defines the contract every CAS back-end satisfies and
// the registry that holds them.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Capability is one of the operations an engine may support.
type Capability string

const (
	CapValidate Capability = "validate"
	CapCompute  Capability = "compute"
	CapRemote   Capability = "remote"
)

// ComputeRequest is a template-driven compute call routed to exactly
// one engine.
type ComputeRequest struct {
	Engine    string            `json:"engine"`
	TaskType  string            `json:"task_type"`
	Template  string            `json:"template"`
	Inputs    map[string]string `json:"inputs,omitempty"`
	TimeoutS  float64           `json:"timeout_s,omitempty"`
}

// ValidateResult is the outcome of one engine's validate call.
type ValidateResult struct {
	Engine         string  `json:"engine"`
	Success        bool    `json:"success"`
	IsValid        *bool   `json:"is_valid"`
	Simplified     *string `json:"simplified,omitempty"`
	OriginalParsed *string `json:"original_parsed,omitempty"`
	Error          *string `json:"error,omitempty"`
	TimeMS         int64   `json:"time_ms"`
}

// ComputeResult is the outcome of one engine's compute call.
type ComputeResult struct {
	Engine    string         `json:"engine"`
	Success   bool           `json:"success"`
	TimeMS    int64          `json:"time_ms"`
	Result    map[string]any `json:"result,omitempty"`
	Stdout    string         `json:"stdout,omitempty"`
	Stderr    string         `json:"stderr,omitempty"`
	Error     *string        `json:"error,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
}

// TemplateDescriptor documents one compute template.
type TemplateDescriptor struct {
	RequiredInputs []string
	OptionalInputs []string
	Description    string
}

// Engine is the uniform contract every back-end CAS implementation
// satisfies.
type Engine interface {
	Name() string
	Description() string
	Capabilities() []Capability
	HasCapability(c Capability) bool
	IsAvailable() bool
	Version() string
	AvailabilityReason() string
	Validate(ctx context.Context, preprocessed string) ValidateResult
	Compute(ctx context.Context, req ComputeRequest) ComputeResult
}

// NotImplementedValidate and NotImplementedCompute build the default
// results for an operation an engine does not declare; the engines in
// this module write their own Validate and Compute instead.

// NotImplementedValidate returns the default validate result for an
// engine that does not declare CapValidate.
func NotImplementedValidate(name string) ValidateResult {
	msg := "engine does not support validate"
	return ValidateResult{Engine: name, Success: false, Error: &msg}
}

// NotImplementedCompute returns the default compute result for an
// engine that does not declare CapCompute.
func NotImplementedCompute(name string) ComputeResult {
	msg := "engine does not support compute"
	return ComputeResult{Engine: name, Success: false, Error: &msg, ErrorCode: "NOT_IMPLEMENTED"}
}

// HasCapability is a shared helper for embedding into concrete engines.
func HasCapability(caps []Capability, c Capability) bool {
	for _, cc := range caps {
		if cc == c {
			return true
		}
	}
	return false
}

// DescribeTemplates joins a template table's per-template descriptions
// into one engine-level description, sorted by template name so the
// result is deterministic across calls.
func DescribeTemplates(templates map[string]TemplateDescriptor) string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, templates[name].Description))
	}
	return strings.Join(parts, "; ")
}
