// Command symhelper is the dispatcher's symbolic co-interpreter. It
// reads a base64-wrapped JSON payload from standard input, runs a
// fixed JavaScript helper script through goja against a minimal
// single-variable polynomial grammar, and emits tagged result lines on
// standard output. It is invoked as a subprocess by the symbolic
// engine so that one crashing evaluation can never take the parent
// process down with it.
package main

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dop251/goja"
)

// request is the decoded stdin payload. Mode selects which JS entry
// point runs: "validate" or "compute".
type request struct {
	Mode   string            `json:"mode"`
	Latex  string            `json:"latex"`
	Task   string            `json:"task"`
	Inputs map[string]string `json:"inputs"`
}

func main() {
	if err := run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stdout, "SYM_ERROR:%s\n", err.Error())
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer) error {
	raw, err := io.ReadAll(bufio.NewReader(in))
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimRight(string(raw), "\r\n"))
	if err != nil {
		return fmt.Errorf("decode base64 payload: %w", err)
	}

	var req request
	if err := json.Unmarshal(decoded, &req); err != nil {
		return fmt.Errorf("decode json payload: %w", err)
	}

	vm := goja.New()
	if _, err := vm.RunString(symbolicScript); err != nil {
		return fmt.Errorf("load symbolic script: %w", err)
	}

	switch req.Mode {
	case "validate":
		return runValidate(vm, req, out)
	case "compute":
		return runCompute(vm, req, out)
	default:
		return fmt.Errorf("unknown mode %q", req.Mode)
	}
}

func runValidate(vm *goja.Runtime, req request, out io.Writer) error {
	fn, ok := goja.AssertFunction(vm.Get("symValidate"))
	if !ok {
		return fmt.Errorf("symValidate entry point missing")
	}
	result, err := fn(goja.Undefined(), vm.ToValue(req.Latex))
	if err != nil {
		fmt.Fprintf(out, "SYM_ERROR:%s\n", err.Error())
		return nil
	}

	var payload struct {
		Valid      *bool  `json:"valid"`
		Simplified string `json:"simplified"`
		Parsed     string `json:"parsed"`
		Error      string `json:"error"`
	}
	if err := unmarshalValue(vm, result, &payload); err != nil {
		return err
	}
	if payload.Error != "" {
		fmt.Fprintf(out, "SYM_ERROR:%s\n", payload.Error)
		return nil
	}
	if payload.Valid != nil {
		fmt.Fprintf(out, "SYM_VALID:%t\n", *payload.Valid)
	}
	fmt.Fprintf(out, "SYM_SIMPLIFIED:%s\n", payload.Simplified)
	fmt.Fprintf(out, "SYM_PARSED:%s\n", payload.Parsed)
	return nil
}

func runCompute(vm *goja.Runtime, req request, out io.Writer) error {
	fn, ok := goja.AssertFunction(vm.Get("symCompute"))
	if !ok {
		return fmt.Errorf("symCompute entry point missing")
	}
	result, err := fn(goja.Undefined(), vm.ToValue(req.Task), vm.ToValue(req.Inputs))
	if err != nil {
		fmt.Fprintf(out, "SYM_ERROR:%s\n", err.Error())
		return nil
	}

	var payload struct {
		Value string `json:"value"`
		Error string `json:"error"`
	}
	if err := unmarshalValue(vm, result, &payload); err != nil {
		return err
	}
	if payload.Error != "" {
		fmt.Fprintf(out, "SYM_ERROR:%s\n", payload.Error)
		return nil
	}
	fmt.Fprintf(out, "SYM_RESULT:%s\n", payload.Value)
	return nil
}

func unmarshalValue(vm *goja.Runtime, v goja.Value, target any) error {
	encoded, err := json.Marshal(v.Export())
	if err != nil {
		return fmt.Errorf("export result: %w", err)
	}
	return json.Unmarshal(encoded, target)
}
